package output

import (
	"fmt"
	"os"
	"path/filepath"

	urlutil "github.com/law-makers/parscrape/internal/utils/url"
)

// TextFileName is the file a page's text is saved under.
func TextFileName(pageURL string) string {
	return urlutil.FileStem(pageURL) + ".txt"
}

// SaveText writes "URL: <url>" and a blank line followed by text into
// dir/<stem>.txt, creating dir if needed. It returns the written path.
func SaveText(dir, pageURL, text string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, TextFileName(pageURL))
	content := fmt.Sprintf("URL: %s\n\n%s", pageURL, text)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
