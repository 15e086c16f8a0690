package window

import "testing"

func TestNewWindowConfig(t *testing.T) {
	tests := []struct {
		name    string
		options []WindowBuilderOption
		want    windowConfig
	}{
		{"defaults", nil, windowConfig{title: "camsim", width: 640, height: 480}},
		{"image size", []WindowBuilderOption{WithTitle("pmd"), WithWidth(352), WithHeight(288)}, windowConfig{title: "pmd", width: 352, height: 288}},
		{"resizable", []WindowBuilderOption{WithResizable(true)}, windowConfig{title: "camsim", width: 640, height: 480, resizable: true}},
		{"degenerate size", []WindowBuilderOption{WithWidth(0), WithHeight(-3)}, windowConfig{title: "camsim", width: 1, height: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := newWindowConfig(tt.options...); got != tt.want {
				t.Errorf("newWindowConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
