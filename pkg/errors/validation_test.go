package errors

import (
	"strings"
	"testing"
)

func TestValidateNodeID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"marquez dataset id", "dataset:food_delivery:public.orders", false},
		{"marquez job id", "job:food_delivery:etl_orders.load", false},
		{"unicode", "dataset:ns:tábla", false},
		{"empty", "", true},
		{"newline", "job:ns:a\nb", true},
		{"null byte", "job:ns:\x00", true},
		{"too long", strings.Repeat("x", 1025), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"json", "dot", "svg", "png", "SVG"} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) = %v", f, err)
		}
	}
	for _, f := range []string{"", "pdf", "html"} {
		if err := ValidateFormat(f); !Is(err, ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) = %v, want INVALID_FORMAT", f, err)
		}
	}
}

func TestValidateDepth(t *testing.T) {
	if err := ValidateDepth(0); err != nil {
		t.Errorf("ValidateDepth(0) = %v", err)
	}
	if err := ValidateDepth(5); err != nil {
		t.Errorf("ValidateDepth(5) = %v", err)
	}
	if err := ValidateDepth(-1); !Is(err, ErrCodeInvalidOptions) {
		t.Errorf("ValidateDepth(-1) = %v, want INVALID_OPTIONS", err)
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative", "testdata/sample.json", false},
		{"absolute", "/var/lib/lineage/graph.json", false},
		{"empty", "", true},
		{"control", "graph\x07.json", true},
		{"too long", strings.Repeat("a", 4097), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePath(tt.path); (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
