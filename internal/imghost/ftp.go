package imghost

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

// FTPHost uploads images to an FTP server that fronts a public web
// directory.
type FTPHost struct {
	Addr    string // host or host:port; port 21 assumed when absent
	User    string
	Pass    string
	Dir     string // remote directory, e.g. public_html/assets
	BaseURL string // public URL prefix for Dir
}

func (h *FTPHost) Resolve(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	addr := h.Addr
	if !strings.Contains(addr, ":") {
		addr += ":21"
	}
	conn, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return "", fmt.Errorf("ftp dial %s: %w", addr, err)
	}
	defer conn.Quit()

	if err := conn.Login(h.User, h.Pass); err != nil {
		return "", fmt.Errorf("ftp login: %w", err)
	}
	for _, segment := range strings.Split(h.Dir, "/") {
		if segment == "" {
			continue
		}
		if err := conn.ChangeDir(segment); err != nil {
			if err := conn.MakeDir(segment); err != nil {
				return "", fmt.Errorf("ftp mkdir %s: %w", segment, err)
			}
			if err := conn.ChangeDir(segment); err != nil {
				return "", fmt.Errorf("ftp cd %s: %w", segment, err)
			}
		}
	}

	name := hostedName(localPath)
	if err := conn.Stor(name, f); err != nil {
		return "", fmt.Errorf("ftp store %s: %w", name, err)
	}
	return strings.TrimRight(h.BaseURL, "/") + "/" + name, nil
}
