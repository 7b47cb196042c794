package output

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/parscrape/pkg/models"
)

const samplePage = `<html><head><title>T</title><style>p{}</style></head>
<body>
<h1 class="big">Title</h1>
<p id="intro">Hello <a href="/docs" onclick="x()">docs</a></p>
<img src="/logo.png" alt="logo">
<script>alert(1)</script>
</body></html>`

func TestCleanHTML(t *testing.T) {
	out, err := CleanHTML(samplePage, true)
	if err != nil {
		t.Fatalf("CleanHTML: %v", err)
	}
	for _, gone := range []string{"<script", "<style", "class=", "onclick", "id="} {
		if strings.Contains(out, gone) {
			t.Errorf("cleaned output still contains %q:\n%s", gone, out)
		}
	}
	if !strings.Contains(out, `href="/docs"`) {
		t.Errorf("link target was dropped:\n%s", out)
	}
	if !strings.Contains(out, `src="/logo.png"`) {
		t.Errorf("image was dropped:\n%s", out)
	}

	out, err = CleanHTML(samplePage, false)
	if err != nil {
		t.Fatalf("CleanHTML: %v", err)
	}
	if strings.Contains(out, "<img") {
		t.Errorf("image kept with keepImages=false:\n%s", out)
	}
}

func TestMarkdown(t *testing.T) {
	out, err := Markdown(samplePage, "https://example.com/guide/", true)
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	if !strings.Contains(out, "# Title") {
		t.Errorf("heading missing:\n%s", out)
	}
	if !strings.Contains(out, "[docs](https://example.com/docs)") {
		t.Errorf("link not resolved:\n%s", out)
	}
	if !strings.Contains(out, "![logo](https://example.com/logo.png)") {
		t.Errorf("image not rendered:\n%s", out)
	}
	if strings.Contains(out, "alert(1)") {
		t.Errorf("script content leaked:\n%s", out)
	}

	out, err = Markdown(samplePage, "https://example.com/guide/", false)
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	if strings.Contains(out, "![") {
		t.Errorf("image rendered with keepImages=false:\n%s", out)
	}
}

func TestSaveText(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scraped_data")

	path, err := SaveText(dir, "https://www.lemonde.fr/", "line one\nline two")
	if err != nil {
		t.Fatalf("SaveText: %v", err)
	}
	if filepath.Base(path) != "lemonde.fr.txt" {
		t.Errorf("file name = %s, want lemonde.fr.txt", filepath.Base(path))
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "URL: https://www.lemonde.fr/\n\nline one\nline two"
	if string(got) != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestTextFileName(t *testing.T) {
	tests := map[string]string{
		"https://cookielaw.org/demo":            "cookielaw.org_demo.txt",
		"https://opt-out.ferank.eu/fr/install/": "opt-out.ferank.eu_fr_install.txt",
		"https://www.bbc.com":                   "bbc.com.txt",
	}
	for in, want := range tests {
		if got := TextFileName(in); got != want {
			t.Errorf("TextFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSaveJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	resp := &models.ScrapeResponse{URL: "https://example.com", URLs: []string{}, Text: "hi", FetchUsing: "http"}
	if err := SaveJSON(resp, path); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if urls, ok := decoded["urls"].([]interface{}); !ok || len(urls) != 0 {
		t.Errorf("urls = %#v, want empty array", decoded["urls"])
	}
}

func TestSaveSummaryCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	results := []models.BatchResult{
		{
			URL:      "https://a.example",
			Response: &models.ScrapeResponse{FetchUsing: "chromedp", URLs: []string{"https://a.example/x"}, Text: "héllo"},
			Attempts: 1,
			Duration: 1500 * time.Millisecond,
			File:     "a.example.txt",
		},
		{URL: "https://b.example", Err: errors.New("boom"), Attempts: 3},
	}
	if err := SaveSummaryCSV(results, path); err != nil {
		t.Fatalf("SaveSummaryCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	ok := rows[1]
	if ok[1] != "ok" || ok[2] != "chromedp" || ok[3] != "1" || ok[4] != "5" || ok[6] != "1500" {
		t.Errorf("unexpected success row: %v", ok)
	}
	failed := rows[2]
	if failed[1] != "failed" || failed[5] != "3" || failed[8] != "boom" {
		t.Errorf("unexpected failure row: %v", failed)
	}
}
