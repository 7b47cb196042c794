package cache

import (
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/law-makers/parscrape/pkg/models"
)

// Key fingerprints every request field that can change the response.
// req is expected to have defaults applied already.
func Key(req models.ScrapeRequest) string {
	d := xxhash.New()
	write := func(s string) {
		_, _ = d.WriteString(s)
		_, _ = d.WriteString("\x00")
	}

	write(req.URL)
	write(req.FetchUsing)
	write(req.WaitType)
	write(req.WaitSelector)
	write(strconv.FormatInt(int64(req.Sleep()), 10))
	write(strconv.FormatBool(req.IsHeadless()))
	write(strconv.FormatBool(req.IncludeMarkdown))
	write(strconv.FormatBool(req.KeepImages()))

	keys := make([]string, 0, len(req.Headers))
	for k := range req.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		write(k)
		write(req.Headers[k])
	}

	return strconv.FormatUint(d.Sum64(), 16)
}
