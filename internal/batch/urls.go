// Package batch drives the scrape pipeline over a list of URLs.
package batch

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultURLs is the list scraped when no URL file is given: consent
// management vendors followed by French news, retail, public service and
// banking sites, then a few English-language news sites.
var DefaultURLs = []string{
	"https://www.axeptio.eu",
	"https://opt-out.ferank.eu/fr/install/",
	"https://www.didomi.io",
	"https://www.lemonde.fr",
	"https://www.lefigaro.fr",
	"https://www.liberation.fr",
	"https://www.20minutes.fr",
	"https://www.carrefour.fr",
	"https://www.fnac.com",
	"https://www.cdiscount.com",
	"https://www.laredoute.fr",
	"https://www.service-public.fr",
	"https://www.ameli.fr",
	"https://www.impots.gouv.fr",
	"https://www.bnpparibas.com",
	"https://www.creditagricole.fr",
	"https://www.labanquepostale.fr",
	"https://www.cookielaw.org/demo",
	"https://www.trustarc.com",
	"https://www.iubenda.com",
	"https://www.onetrust.com",
	"https://www.bbc.com",
	"https://www.cnn.com",
	"https://www.theguardian.com",
}

// urlFile is the object form of a YAML or JSON URL list.
type urlFile struct {
	URLs []string `yaml:"urls" json:"urls"`
}

// LoadURLs reads a URL list. The format follows the extension:
//
//	.txt          one URL per line, blank lines and # comments ignored
//	.yaml, .yml   a list of URLs, or an object with a "urls" list
//	.json         an array of URLs, or an object with a "urls" array
//
// Duplicates are dropped, keeping the first occurrence.
func LoadURLs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}

	var urls []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		urls, err = parseYAML(data)
	case ".json":
		urls, err = parseJSON(data)
	default:
		urls, err = parseText(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	urls = dedupe(urls)
	if len(urls) == 0 {
		return nil, fmt.Errorf("no URLs found in %s", path)
	}
	return urls, nil
}

func parseText(data []byte) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}

func parseYAML(data []byte) ([]string, error) {
	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var obj urlFile
	if err := yaml.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return obj.URLs, nil
}

func parseJSON(data []byte) ([]string, error) {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var obj urlFile
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return obj.URLs, nil
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
