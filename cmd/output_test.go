package cmd

import "testing"

func TestHumanBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := humanBytes(tt.in); got != tt.want {
			t.Errorf("humanBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecimalMB(t *testing.T) {
	if got := decimalMB(123_456_789); got != "123.46 MB" {
		t.Fatalf("decimalMB = %q", got)
	}
}

func TestJoinOrNone(t *testing.T) {
	if got := joinOrNone(nil); got != "(none)" {
		t.Fatalf("joinOrNone(nil) = %q", got)
	}
	if got := joinOrNone([]string{"a", "b"}); got != "a, b" {
		t.Fatalf("joinOrNone = %q", got)
	}
}

func TestSplitRequest(t *testing.T) {
	tests := []struct {
		arg, name, req string
	}{
		{"krita", "krita", ""},
		{"krita@^5.0.0", "krita", "^5.0.0"},
		{" krita @ >=1.2 ", "krita", ">=1.2"},
	}
	for _, tt := range tests {
		name, req := splitRequest(tt.arg)
		if name != tt.name || req != tt.req {
			t.Errorf("splitRequest(%q) = %q, %q; want %q, %q", tt.arg, name, req, tt.name, tt.req)
		}
	}
}

func TestEmptyAsNA(t *testing.T) {
	if got := emptyAsNA(""); got != "n/a" {
		t.Fatalf("emptyAsNA(\"\") = %q", got)
	}
	if got := emptyAsNA("abc123"); got != "abc123" {
		t.Fatalf("emptyAsNA = %q", got)
	}
}
