package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/camsim-go/engine/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := NewApp()
	app.Writer = &buf
	app.ErrWriter = &buf
	err := app.Run(append([]string{"camsim"}, args...))
	return buf.String(), err
}

func TestScenesCommand(t *testing.T) {
	out, err := run(t, "scenes")
	if err != nil {
		t.Fatalf("scenes error = %v", err)
	}
	for _, name := range []string{"cornellbox", "flow", "helloworld", "pmd", "shadowmaps"} {
		if !strings.Contains(out, name) {
			t.Errorf("scenes output lacks %q:\n%s", name, out)
		}
	}
}

func TestInfoCommand(t *testing.T) {
	out, err := run(t, "info", "--backend", "software", "--scene", "pmd")
	if err != nil {
		t.Fatalf("info error = %v", err)
	}
	for _, want := range []string{"352x288", "sub-frames per frame", "thin lens vignetting", "pmd-result.pfs", "spot"} {
		if !strings.Contains(out, want) {
			t.Errorf("info output lacks %q:\n%s", want, out)
		}
	}
}

func TestSimulateCommand(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "simulate",
		"--backend", "software", "--workers", "2",
		"--scene", "helloworld",
		"--width", "8", "--height", "6",
		"--spatial-samples", "1x1",
		"--out", dir,
	)
	if err != nil {
		t.Fatalf("simulate error = %v", err)
	}
	for _, name := range []string{"rgb.png", "pmd-result.csv", "depthrange.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestSimulateCommandWithOutputs(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "simulate",
		"--backend", "software", "--workers", "2",
		"--scene", "flow",
		"--width", "8", "--height", "6",
		"--temporal-samples", "1",
		"--outputs", "srgb,depthrange",
		"--frames", "2",
		"--out", dir,
	)
	if err != nil {
		t.Fatalf("simulate error = %v", err)
	}
	for _, name := range []string{
		"0000-rgb.pfs", "0000-srgb.png", "0000-depthrange.pfs",
		"0001-rgb.pfs", "0001-srgb.png", "0001-depthrange.pfs",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "0002-srgb.png")); err == nil {
		t.Errorf("0002-srgb.png exists, want two frames")
	}
	if _, err := os.Stat(filepath.Join(dir, "0000-positions.pfs")); err == nil {
		t.Errorf("0000-positions.pfs exists, want demo exports replaced")
	}
}

func TestInvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown scene", []string{"info", "--scene", "teapot"}, "unknown scene"},
		{"even samples", []string{"info", "--spatial-samples", "2x2"}, "spatial samples"},
		{"bad samples", []string{"info", "--spatial-samples", "three"}, "spatial samples"},
		{"zero temporal", []string{"info", "--temporal-samples", "0"}, "temporal samples"},
		{"bad projection", []string{"info", "--fovy", "180"}, "invalid projection"},
		{"unknown backend", []string{"info", "--backend", "vulkan"}, "unknown backend"},
		{"missing animation", []string{"info", "--camera-anim", "does-not-exist.txt"}, "does-not-exist.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}

	_, err := run(t, "info", "--outputs", "rgb,teapot")
	if !errors.Is(err, config.ErrUnknownOutput) {
		t.Errorf("error = %v, want ErrUnknownOutput", err)
	}
}

func TestCameraAnimationFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera.txt")
	anim := "time 0 pos:cart 0 0 0\ntime 2 pos:cart 1 0 0\n"
	if err := os.WriteFile(path, []byte(anim), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	out, err := run(t, "info", "--backend", "software", "--camera-anim", path)
	if err != nil {
		t.Fatalf("info error = %v", err)
	}
	if !strings.Contains(out, "0.000000 .. 2.000000 s") {
		t.Errorf("info output lacks the camera animation range:\n%s", out)
	}
}
