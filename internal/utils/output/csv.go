package output

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/law-makers/parscrape/pkg/models"
)

var summaryHeader = []string{"url", "status", "backend", "links", "text_chars", "attempts", "duration_ms", "file", "error"}

// SaveSummaryCSV writes one row per batch result.
func SaveSummaryCSV(results []models.BatchResult, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(summaryHeader); err != nil {
		return err
	}

	for _, r := range results {
		status := "ok"
		var backend, links, chars, errMsg string
		if r.Err != nil {
			status = "failed"
			errMsg = r.Err.Error()
		} else if r.Error != "" {
			status = "failed"
			errMsg = r.Error
		}
		if r.Response != nil {
			backend = r.Response.FetchUsing
			links = strconv.Itoa(len(r.Response.URLs))
			chars = strconv.Itoa(len([]rune(r.Response.Text)))
		}
		row := []string{
			r.URL,
			status,
			backend,
			links,
			chars,
			strconv.Itoa(r.Attempts),
			strconv.FormatInt(r.Duration.Milliseconds(), 10),
			r.File,
			errMsg,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
