package imghost

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const imgbbEndpoint = "https://api.imgbb.com/1/upload"

// ImgBBHost uploads images through the ImgBB REST API.
type ImgBBHost struct {
	APIKey string

	httpClient *http.Client
}

func NewImgBBHost(apiKey string) *ImgBBHost {
	return &ImgBBHost{
		APIKey: apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type imgbbResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (h *ImgBBHost) Resolve(ctx context.Context, localPath string) (string, error) {
	raw, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	form := url.Values{}
	form.Set("key", h.APIKey)
	form.Set("image", base64.StdEncoding.EncodeToString(raw))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, imgbbEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := h.httpClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("imgbb upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("imgbb upload: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed imgbbResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode imgbb response: %w", err)
	}
	if !parsed.Success || parsed.Data.URL == "" {
		return "", fmt.Errorf("imgbb upload rejected: status %d", parsed.Status)
	}
	return parsed.Data.URL, nil
}
