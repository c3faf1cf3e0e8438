package errors

import (
	"math"
	"strings"
	"testing"
)

func TestValidateDocumentID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"uuid", "5f0c3a52-8d6e-4b59-9d1f-3f4f2f1c9a11", false},
		{"simple", "family-smith", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 129), true},
		{"traversal", "../etc", true},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"control", "a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDocumentID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateCarrierFrequency(t *testing.T) {
	tests := []struct {
		f       float64
		wantErr bool
	}{
		{0, false},
		{0.01, false},
		{1, false},
		{-0.1, true},
		{1.5, true},
		{math.NaN(), true},
		{math.Inf(1), true},
	}

	for _, tt := range tests {
		if err := ValidateCarrierFrequency(tt.f); (err != nil) != tt.wantErr {
			t.Errorf("ValidateCarrierFrequency(%v) error = %v, wantErr %v", tt.f, err, tt.wantErr)
		}
	}
}
