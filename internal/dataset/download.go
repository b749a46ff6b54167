package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Download fetches a remote dataset file into destDir and returns the local
// path. Existing files are reused; the fetch retries transient failures.
func Download(url, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create dataset dir: %w", err)
	}
	dest := filepath.Join(destDir, filepath.Base(url))
	if _, err := os.Stat(dest); err == nil {
		log.Debug().Str("file", dest).Msg("dataset already downloaded")
		return dest, nil
	}

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(5 * time.Second)

	resp, err := client.R().SetOutput(dest).Get(url)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	if resp.IsError() {
		os.Remove(dest)
		return "", fmt.Errorf("download %s: status %d", url, resp.StatusCode())
	}

	log.Info().Str("url", url).Str("file", dest).Msg("dataset downloaded")
	return dest, nil
}
