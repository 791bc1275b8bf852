package validation

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/vnykmshr/reqstream/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int64
		wantError bool
	}{
		{"positive value", 10, false},
		{"positive value 1", 1, false},
		{"zero value", 0, true},
		{"negative value", -1, true},
		{"large positive", 1 << 40, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive("httpfetch", "maxBodyBytes", tt.value)

			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				if !errors.IsValidationError(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateNonNegative(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 5, false},
		{"zero value", 0, false},
		{"negative value", -1, true},
		{"large negative", -1000000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNonNegative("reqstream", "maxIterations", tt.value)

			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				if !stderrors.Is(err, errors.ErrInvalidConfiguration) {
					t.Errorf("expected ErrInvalidConfiguration, got %v", err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateNonNegativeDuration(t *testing.T) {
	if err := ValidateNonNegativeDuration("httpfetch", "timeout", 0); err != nil {
		t.Errorf("zero duration should be valid, got %v", err)
	}
	if err := ValidateNonNegativeDuration("httpfetch", "timeout", time.Second); err != nil {
		t.Errorf("positive duration should be valid, got %v", err)
	}
	if err := ValidateNonNegativeDuration("httpfetch", "timeout", -time.Millisecond); !errors.IsValidationError(err) {
		t.Errorf("negative duration should fail validation, got %v", err)
	}
}

func TestValidateNotNil(t *testing.T) {
	var nilFunc func()
	tests := []struct {
		name      string
		value     interface{}
		wantError bool
	}{
		{"non-nil int", 123, false},
		{"non-nil string", "value", false},
		{"non-nil struct", struct{}{}, false},
		{"non-nil pointer", new(int), false},
		{"non-nil func", func() {}, false},
		{"nil value", nil, true},
		{"nil pointer", (*int)(nil), true},
		{"nil func", nilFunc, true},
		{"nil map", map[string]int(nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNotNil("reqstream", "producer", tt.value)

			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				if !errors.IsValidationError(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateNotEmpty(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantError bool
	}{
		{"non-empty string", "@every 1s", false},
		{"whitespace", " ", false}, // Whitespace is not empty
		{"empty string", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNotEmpty("feeder", "spec", tt.value)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateNotEmpty(%q) error = %v, wantError %v", tt.value, err, tt.wantError)
			}
		})
	}
}

func TestValidationErrorDetails(t *testing.T) {
	err := ValidateNonNegative("reqstream", "maxIterations", -5)
	if err == nil {
		t.Fatal("expected error")
	}

	var valErr *errors.ValidationError
	if !stderrors.As(err, &valErr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if valErr.Module != "reqstream" {
		t.Errorf("Module = %q, want %q", valErr.Module, "reqstream")
	}
	if valErr.Field != "maxIterations" {
		t.Errorf("Field = %q, want %q", valErr.Field, "maxIterations")
	}
	if valErr.Value != -5 {
		t.Errorf("Value = %v, want %v", valErr.Value, -5)
	}
	if valErr.Hint == "" {
		t.Error("expected a hint")
	}
}
