package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIs_WalksWrappedChain(t *testing.T) {
	inner := New(CodeManifestValidation, "bad sha256 for %s", "foo")
	outer := Wrap(CodeManifestParse, inner, "parse %s", "https://example.com/a.yaml")
	wrapped := fmt.Errorf("refresh failed: %w", outer)

	if !Is(wrapped, CodeManifestParse) {
		t.Fatal("expected outer code to match")
	}
	if !Is(wrapped, CodeManifestValidation) {
		t.Fatal("expected inner code to match through the chain")
	}
	if Is(wrapped, CodeNetwork) {
		t.Fatal("unexpected match for CodeNetwork")
	}
	if got := CodeOf(wrapped); got != CodeManifestParse {
		t.Fatalf("CodeOf = %q, want %q", got, CodeManifestParse)
	}
}

func TestError_MessageIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeNetwork, cause, "fetch %s", "https://example.com")
	want := "fetch https://example.com: connection refused"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is should reach the cause")
	}
}

func TestCodeOf_PlainError(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Fatalf("CodeOf(plain) = %q, want empty", got)
	}
	if Is(nil, CodeNotFound) {
		t.Fatal("Is(nil) should be false")
	}
}
