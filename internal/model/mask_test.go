package model

import "testing"

// TestMaskEmail tests email masking.
func TestMaskEmail(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "regular address", input: "jdoe@acme.com", want: "jd***@a***"},
		{name: "short local part", input: "jd@acme.com", want: "***@a***"},
		{name: "missing domain", input: "jdoe@", want: "jd***@***"},
		{name: "not an address", input: "justtext", want: "j***t"},
		{name: "empty", input: "", want: ""},
		{name: "whitespace only", input: "  ", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := MaskEmail(tc.input); got != tc.want {
				t.Errorf("MaskEmail(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

// TestMaskPhone tests phone number masking.
func TestMaskPhone(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "formatted number", input: "+1 (555) 123-4567", want: "***4567"},
		{name: "bare digits", input: "5551234567", want: "***4567"},
		{name: "too short to keep digits", input: "1234", want: "***"},
		{name: "no digits", input: "ext", want: ""},
		{name: "empty", input: "", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := MaskPhone(tc.input); got != tc.want {
				t.Errorf("MaskPhone(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

// TestMaskText tests generic string masking.
func TestMaskText(t *testing.T) {
	t.Parallel()

	if got := MaskText("secretvalue"); got != "s***e" {
		t.Errorf("MaskText() = %q, want %q", got, "s***e")
	}
	if got := MaskText("ab"); got != "***" {
		t.Errorf("MaskText() = %q, want %q", got, "***")
	}
}

// TestMaskPassword tests password masking with length hint.
func TestMaskPassword(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "regular password", input: "hunter2", want: "h***2 (len=7)"},
		{name: "two characters", input: "ab", want: "*** (len=2)"},
		{name: "empty", input: "", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := MaskPassword(tc.input); got != tc.want {
				t.Errorf("MaskPassword(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
