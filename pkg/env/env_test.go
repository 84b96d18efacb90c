package env

import "testing"

func TestGetPrefersPrefixedVariable(t *testing.T) {
	t.Setenv("LOG_FORMAT", "console")
	if got := Get("LOG_FORMAT", "json"); got != "console" {
		t.Fatalf("expected bare fallback, got %q", got)
	}

	t.Setenv("ESTATEERP_LOG_FORMAT", "json")
	if got := Get("LOG_FORMAT", "console"); got != "json" {
		t.Fatalf("expected prefixed value, got %q", got)
	}
	if got := Get("ESTATEERP_LOG_FORMAT", "console"); got != "json" {
		t.Fatalf("expected prefixed key to resolve, got %q", got)
	}
}

func TestGetFallback(t *testing.T) {
	t.Setenv("ESTATEERP_UNSET_FOR_TEST", "  ")
	if got := Get("UNSET_FOR_TEST", "default"); got != "default" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
