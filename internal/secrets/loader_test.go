package secrets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	if err := os.WriteFile(path, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SECRET_TEST_TOKEN", "from-env")

	got, err := Load(Source{Name: "api key", Value: "from-value", Env: "SECRET_TEST_TOKEN", File: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "from-file" {
		t.Errorf("file should win, got %q", got)
	}

	got, err = Load(Source{Name: "api key", Value: "from-value", Env: "SECRET_TEST_TOKEN"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "from-env" {
		t.Errorf("env should win over value, got %q", got)
	}

	got, err = Load(Source{Name: "api key", Value: "from-value", Env: "SECRET_TEST_UNSET"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "from-value" {
		t.Errorf("value should be the fallback, got %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(Source{Name: "api key"}); err == nil {
		t.Error("expected error when nothing configured")
	}

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("   \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(Source{Name: "api key", File: empty}); err == nil {
		t.Error("expected error for empty secret file")
	}

	if _, err := Load(Source{Name: "api key", File: filepath.Join(dir, "missing")}); err == nil {
		t.Error("expected error for unreadable secret file")
	}
}

func TestLoadOptional(t *testing.T) {
	got, err := LoadOptional(Source{Name: "queue url"})
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty secret, got %q", got)
	}

	dir := t.TempDir()
	if _, err := LoadOptional(Source{Name: "queue url", File: filepath.Join(dir, "missing")}); err == nil {
		t.Error("expected error for unreadable secret file even when optional")
	}
}
