package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds credentials and destination limits. Notion credentials
// come from files under the config directory (with env overrides);
// image-host credentials are env-only.
type Config struct {
	// Notion connection
	DatabaseID string
	Token      string

	// FTP image host
	FTPHost    string
	FTPUser    string
	FTPPass    string
	FTPDir     string
	FTPBaseURL string

	// ImgBB image host
	ImgBBKey string

	// Destination limits
	MaxBlocksPerPage int
	MaxRichTextLen   int

	// Conversion policy
	VideoDomains   []string
	NativeCallouts bool
	// StrictImages aborts the run when an image upload fails instead
	// of degrading to the local path with a warning.
	StrictImages bool
}

// Dir returns the credential directory, ~/.config/notionup by default.
func Dir() string {
	if d := os.Getenv("NOTIONUP_CONFIG_DIR"); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".notionup"
	}
	return filepath.Join(home, ".config", "notionup")
}

func Load() Config {
	// Best-effort .env for local runs.
	_ = godotenv.Load()

	dir := Dir()
	cfg := Config{
		DatabaseID: envOrFile("NOTION_DATABASE_ID", filepath.Join(dir, "database_id")),
		Token:      envOrFile("NOTION_TOKEN", filepath.Join(dir, "token")),

		FTPHost:    os.Getenv("FTP_HOST"),
		FTPUser:    os.Getenv("FTP_USER"),
		FTPPass:    os.Getenv("FTP_PASS"),
		FTPDir:     envOr("FTP_DIR", "public_html/assets"),
		FTPBaseURL: os.Getenv("FTP_BASE_URL"),

		ImgBBKey: os.Getenv("IMGBB_API_KEY"),

		MaxBlocksPerPage: envInt("MAX_BLOCKS_PER_PAGE", 100),
		MaxRichTextLen:   envInt("MAX_RICH_TEXT_LEN", 2000),

		VideoDomains:   splitList(envOr("VIDEO_DOMAINS", "youtube.com,youtu.be,vimeo.com")),
		NativeCallouts: envBool("NATIVE_CALLOUTS", true),
		StrictImages:   envBool("STRICT_IMAGES", false),
	}

	if cfg.MaxBlocksPerPage <= 0 {
		cfg.MaxBlocksPerPage = 100
	}
	if cfg.MaxRichTextLen <= 0 {
		cfg.MaxRichTextLen = 2000
	}
	return cfg
}

// Validate checks the credentials needed before any parsing begins.
func (c Config) Validate() error {
	if c.DatabaseID == "" {
		return fmt.Errorf("notion database ID is not configured (set NOTION_DATABASE_ID or %s)", filepath.Join(Dir(), "database_id"))
	}
	if c.Token == "" {
		return fmt.Errorf("notion token is not configured (set NOTION_TOKEN or %s)", filepath.Join(Dir(), "token"))
	}
	return nil
}

// HasFTP reports whether the FTP host is fully configured.
func (c Config) HasFTP() bool {
	return c.FTPHost != "" && c.FTPUser != "" && c.FTPPass != "" && c.FTPBaseURL != ""
}

// HasImgBB reports whether the ImgBB host is configured.
func (c Config) HasImgBB() bool {
	return c.ImgBBKey != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envOrFile prefers the environment, then the trimmed contents of a
// credential file.
func envOrFile(key, path string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
