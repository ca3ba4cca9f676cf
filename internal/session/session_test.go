package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestStaticTrims(t *testing.T) {
	t.Parallel()
	tok, err := Static(" abc \n").Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "abc" {
		t.Fatalf("token = %q", tok)
	}
}

func TestFileSourceLifecycle(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "token")

	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}

	// Missing file: no session, no error.
	tok, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token (missing file): %v", err)
	}
	if tok != "" {
		t.Fatalf("token = %q, want empty", tok)
	}

	// Login writes the file; the next call sees it.
	if err := os.WriteFile(path, []byte("tok123\n"), 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}
	tok, err = src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "tok123" {
		t.Fatalf("token = %q, want tok123", tok)
	}

	// Logout removes the file; the session is gone again.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove token: %v", err)
	}
	tok, err = src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token (after logout): %v", err)
	}
	if tok != "" {
		t.Fatalf("token = %q, want empty after logout", tok)
	}
}

func TestNewFileSourceEmptyPath(t *testing.T) {
	t.Parallel()
	if _, err := NewFileSource("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
