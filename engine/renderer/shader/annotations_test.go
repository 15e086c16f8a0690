package shader

import "testing"

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    AnnotationType
		wantNil bool
		wantErr bool
	}{
		{"plain code", "let x = 1.0;", "", true, false},
		{"plain comment", "// a comment", "", true, false},
		{"include", "//@camsim:include light", annotationTypeInclude, false, false},
		{"include unknown", "//@camsim:include camera", "", false, true},
		{"group", "//@camsim:group 0 4 storage_read lights array<light>", AnnotationTypeBindingGroup, false, false},
		{"group bad number", "//@camsim:group x 4 storage_read lights array<light>", "", false, true},
		{"group bad space", "//@camsim:group 0 4 storage_write lights array<light>", "", false, true},
		{"if", "    //@camsim:if rgb !pmd", annotationTypeIf, false, false},
		{"if any", "//@camsim:if bwdflow3d|bwdflow2d", annotationTypeIf, false, false},
		{"if unknown", "//@camsim:if sparkles", "", false, true},
		{"else", "//@camsim:else", annotationTypeElse, false, false},
		{"endif args", "//@camsim:endif rgb", "", false, true},
		{"generate", "//@camsim:generate fragment_outputs", annotationTypeGenerate, false, false},
		{"unknown directive", "//@camsim:pragma once", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := parseAnnotation(tt.line, 1)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseAnnotation() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.wantNil {
				if a != nil {
					t.Errorf("parseAnnotation() = %+v, want nil", a)
				}
				return
			}
			if a == nil || a.Type != tt.want {
				t.Errorf("parseAnnotation() = %+v, want type %q", a, tt.want)
			}
		})
	}
}

func TestParseGroupAnnotation(t *testing.T) {
	a, err := parseAnnotation("//@camsim:group 2 3 storage_uniform scene_pass pass_uniforms", 7)
	if err != nil {
		t.Fatal(err)
	}
	if *a.Group != 2 || *a.Binding != 3 || a.Line != 7 {
		t.Errorf("group = %d, binding = %d, line = %d, want 2, 3, 7", *a.Group, *a.Binding, a.Line)
	}
	if a.Args[1] != "scene_pass" || a.Args[2] != "pass_uniforms" {
		t.Errorf("Args = %v, want [storage_uniform scene_pass pass_uniforms]", a.Args)
	}
}

func TestEvalCondition(t *testing.T) {
	v := Variant{Pass: PassLight, Features: FeatureRGB | FeatureShadowMaps}
	tests := []struct {
		conds []AnnotationArg
		want  bool
	}{
		{[]AnnotationArg{"rgb"}, true},
		{[]AnnotationArg{"pmd"}, false},
		{[]AnnotationArg{"!pmd"}, true},
		{[]AnnotationArg{"rgb", "shadowmaps"}, true},
		{[]AnnotationArg{"rgb", "rsm"}, false},
		{[]AnnotationArg{"pmd|shadowmaps"}, true},
		{[]AnnotationArg{"!pmd|shadowmaps"}, false},
	}
	for _, tt := range tests {
		if got := evalCondition(tt.conds, v); got != tt.want {
			t.Errorf("evalCondition(%v) = %v, want %v", tt.conds, got, tt.want)
		}
	}
}
