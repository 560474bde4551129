package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPort(t *testing.T) {
	t.Setenv("TEST_PORT", "8083")
	p, err := Port("TEST_PORT", "9000")
	if err != nil || p != "8083" {
		t.Fatalf("expected 8083, got %q err=%v", p, err)
	}

	t.Setenv("TEST_PORT", "70000")
	if _, err := Port("TEST_PORT", "9000"); err == nil {
		t.Fatal("expected error for out of range port")
	}
}

func TestRequiredString(t *testing.T) {
	t.Setenv("TEST_REQUIRED", "")
	if _, err := RequiredString("TEST_REQUIRED"); err == nil {
		t.Fatal("expected error for empty value")
	}
	t.Setenv("TEST_REQUIRED", "postgres://x")
	if v, err := RequiredString("TEST_REQUIRED"); err != nil || v != "postgres://x" {
		t.Fatalf("unexpected %q err=%v", v, err)
	}
}

func TestTypedHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "12")
	t.Setenv("TEST_BAD_INT", "-3")
	t.Setenv("TEST_BOOL", "yes")
	t.Setenv("TEST_DURATION", "750ms")
	t.Setenv("TEST_SECONDS", "3")
	t.Setenv("TEST_LIST", " a, ,b ,c")

	if got := Int("TEST_INT", 1); got != 12 {
		t.Fatalf("Int = %d", got)
	}
	if got := Int("TEST_BAD_INT", 7); got != 7 {
		t.Fatalf("Int fallback = %d", got)
	}
	if !Bool("TEST_BOOL", false) {
		t.Fatal("Bool should be true")
	}
	if Bool("TEST_UNSET_BOOL", false) {
		t.Fatal("Bool fallback should be false")
	}
	if got := Duration("TEST_DURATION", time.Second); got != 750*time.Millisecond {
		t.Fatalf("Duration = %s", got)
	}
	if got := Duration("TEST_SECONDS", time.Second); got != 3*time.Second {
		t.Fatalf("Duration seconds = %s", got)
	}
	list := List("TEST_LIST", "")
	if len(list) != 3 || list[0] != "a" || list[1] != "b" || list[2] != "c" {
		t.Fatalf("List = %#v", list)
	}
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("SALONBOOK_DOTENV_KEY=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("SALONBOOK_DOTENV_KEY") })

	if err := LoadDotenv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}
	if got := os.Getenv("SALONBOOK_DOTENV_KEY"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
}
