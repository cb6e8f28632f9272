package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileCache stores fetched image bytes on disk under a base directory,
// keyed by source URL.
type FileCache struct {
	basePath string
}

// NewFileCache creates the base directory if missing.
func NewFileCache(basePath string) (*FileCache, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("cache base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{basePath: basePath}, nil
}

// Has reports whether the URL's bytes are already cached.
func (c *FileCache) Has(srcURL string) bool {
	_, err := os.Stat(c.Path(srcURL))
	return err == nil
}

// Save writes the bytes for a URL, replacing any previous entry. The
// write goes to a temp file first so an interrupted copy never leaves a
// truncated entry behind to be served as a hit.
func (c *FileCache) Save(srcURL string, r io.Reader) error {
	target := c.Path(srcURL)
	tmp, err := os.CreateTemp(c.basePath, "save-*")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("commit cache file: %w", err)
	}
	return nil
}

// Path returns the on-disk location for a URL, whether or not it exists.
// The name is a digest of the full URL plus the source extension, so
// differently transformed variants of one asset cache separately.
func (c *FileCache) Path(srcURL string) string {
	sum := sha256.Sum256([]byte(srcURL))
	name := hex.EncodeToString(sum[:16]) + safeExt(srcURL)
	return filepath.Join(c.basePath, name)
}

func safeExt(srcURL string) string {
	parsed, err := url.Parse(srcURL)
	if err != nil {
		return ""
	}
	ext := filepath.Ext(parsed.Path)
	if len(ext) > 8 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
