package phone

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
		err   error
	}{
		{input: "(555) 123-4567", want: "+15551234567"},
		{input: "1 555 123 4567", want: "+15551234567"},
		{input: "+1-555-123-4567", want: "+15551234567"},
		{input: "+52 55 1234 56789", want: "+5255123456789"},
		{input: "555-1234", err: ErrInvalid},
		{input: "25551234567", err: ErrInvalid},
		{input: "", err: ErrInvalid},
	}
	for _, tc := range tests {
		got, err := Normalize(tc.input)
		if !errors.Is(err, tc.err) {
			t.Fatalf("Normalize(%q) error = %v, want %v", tc.input, err, tc.err)
		}
		if got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFormatEnglish(t *testing.T) {
	t.Parallel()

	if got, ok := FormatEnglish("+15551234567"); !ok || got != "(555) 123-4567" {
		t.Fatalf("FormatEnglish() = %q, %v", got, ok)
	}
	if got, ok := FormatEnglish("5551234567"); !ok || got != "(555) 123-4567" {
		t.Fatalf("FormatEnglish(10 digits) = %q, %v", got, ok)
	}
	if _, ok := FormatEnglish("+5255123456789"); ok {
		t.Fatalf("expected international number to have no English format")
	}
	if _, ok := FormatEnglish("123"); ok {
		t.Fatalf("expected invalid number to have no English format")
	}
}

func TestDisplayAndLastFour(t *testing.T) {
	t.Parallel()

	if got := Display("+15551234567"); got != "(555) 123-4567" {
		t.Fatalf("Display() = %q", got)
	}
	if got := Display(" ***-***-4567 "); got != "***-***-4567" {
		t.Fatalf("Display(masked) = %q", got)
	}
	if got := LastFour("+1 (555) 123-4567"); got != "4567" {
		t.Fatalf("LastFour() = %q", got)
	}
	if got := LastFour("12"); got != "" {
		t.Fatalf("LastFour(short) = %q", got)
	}
}

func TestMask(t *testing.T) {
	t.Parallel()

	if got := Mask("+15551234567"); got != "***-***-4567" {
		t.Fatalf("Mask() = %q, want ***-***-4567", got)
	}
	if got := Mask("12"); got != "" {
		t.Fatalf("Mask(short) = %q, want empty", got)
	}
}
