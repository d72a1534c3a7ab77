// Package imghost resolves local image paths to publicly reachable
// URLs by uploading them to a configured host (FTP server or ImgBB).
package imghost

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Resolver uploads one local file and returns its hosted URL.
type Resolver interface {
	Resolve(ctx context.Context, localPath string) (string, error)
}

// Chain tries each resolver in order and returns the first success.
type Chain []Resolver

func (c Chain) Resolve(ctx context.Context, localPath string) (string, error) {
	if len(c) == 0 {
		return "", errors.New("no image host configured")
	}
	var errs []string
	for _, r := range c {
		url, err := r.Resolve(ctx, localPath)
		if err == nil {
			return url, nil
		}
		errs = append(errs, err.Error())
	}
	return "", fmt.Errorf("all image hosts failed: %s", strings.Join(errs, "; "))
}

// hostedName builds a collision-free remote file name that keeps the
// original extension.
func hostedName(localPath string) string {
	id := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("%d_%s%s", time.Now().Unix(), id, strings.ToLower(filepath.Ext(localPath)))
}
