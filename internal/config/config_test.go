package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_TokenFiles(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NOTIONUP_CONFIG_DIR", dir)
	t.Setenv("NOTION_DATABASE_ID", "")
	t.Setenv("NOTION_TOKEN", "")

	if err := os.WriteFile(filepath.Join(dir, "database_id"), []byte("db-123\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "token"), []byte("  secret-token  \n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Load()
	if cfg.DatabaseID != "db-123" {
		t.Errorf("database id: got %q", cfg.DatabaseID)
	}
	if cfg.Token != "secret-token" {
		t.Errorf("token should be trimmed, got %q", cfg.Token)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validate error: %v", err)
	}
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NOTIONUP_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "token"), []byte("file-token"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NOTION_TOKEN", "env-token")
	t.Setenv("NOTION_DATABASE_ID", "db")

	cfg := Load()
	if cfg.Token != "env-token" {
		t.Errorf("env must win, got %q", cfg.Token)
	}
}

func TestValidate_MissingCredentials(t *testing.T) {
	t.Setenv("NOTIONUP_CONFIG_DIR", t.TempDir())
	t.Setenv("NOTION_DATABASE_ID", "")
	t.Setenv("NOTION_TOKEN", "")

	cfg := Load()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected a validation error")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("NOTIONUP_CONFIG_DIR", t.TempDir())
	t.Setenv("MAX_BLOCKS_PER_PAGE", "")
	t.Setenv("MAX_RICH_TEXT_LEN", "")
	t.Setenv("VIDEO_DOMAINS", "")

	cfg := Load()
	if cfg.MaxBlocksPerPage != 100 {
		t.Errorf("page quota default: got %d", cfg.MaxBlocksPerPage)
	}
	if cfg.MaxRichTextLen != 2000 {
		t.Errorf("rich text default: got %d", cfg.MaxRichTextLen)
	}
	if len(cfg.VideoDomains) != 3 {
		t.Errorf("video domains default: got %v", cfg.VideoDomains)
	}
}

func TestHasFTP(t *testing.T) {
	cfg := Config{FTPHost: "h", FTPUser: "u", FTPPass: "p", FTPBaseURL: "https://cdn.example"}
	if !cfg.HasFTP() {
		t.Error("fully configured FTP should report true")
	}
	cfg.FTPBaseURL = ""
	if cfg.HasFTP() {
		t.Error("missing base URL should report false")
	}
}
