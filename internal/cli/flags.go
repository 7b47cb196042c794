package cli

import (
	"github.com/spf13/pflag"

	"github.com/law-makers/parscrape/internal/utils/headers"
	"github.com/law-makers/parscrape/pkg/models"
)

// fetchFlags are the per-request options shared by scrape and batch.
type fetchFlags struct {
	waitType     string
	waitSelector string
	sleep        int
	timeout      int
	headful      bool
	headers      []string
}

func addFetchFlags(fs *pflag.FlagSet, f *fetchFlags) {
	fs.StringVar(&f.waitType, "wait", models.WaitSleep, "Wait strategy: sleep, idle, none, selector or text")
	fs.StringVarP(&f.waitSelector, "selector", "s", "", "CSS selector (or text) to wait for with --wait=selector|text")
	fs.IntVar(&f.sleep, "sleep", models.DefaultSleepTime, "Seconds to sleep after navigation (0-30)")
	fs.IntVar(&f.timeout, "timeout", models.DefaultTimeout, "Page load timeout in seconds (1-60)")
	fs.BoolVar(&f.headful, "headful", false, "Show the browser window")
	fs.StringArrayVarP(&f.headers, "header", "H", []string{}, "Custom headers (e.g., -H \"Accept-Language: en\")")
}

// request builds a ScrapeRequest template. Numeric options are only set
// when given on the command line so the service defaults apply otherwise.
func (f *fetchFlags) request(fs *pflag.FlagSet) (models.ScrapeRequest, error) {
	hdrs, err := headers.ParseHeaders(f.headers)
	if err != nil {
		return models.ScrapeRequest{}, err
	}

	req := models.ScrapeRequest{
		WaitType:     f.waitType,
		WaitSelector: f.waitSelector,
	}
	if len(hdrs) > 0 {
		req.Headers = hdrs
	}
	if fs.Changed("sleep") {
		sleep := f.sleep
		req.SleepTime = &sleep
	}
	if fs.Changed("timeout") {
		timeout := f.timeout
		req.Timeout = &timeout
	}
	if f.headful {
		headless := false
		req.Headless = &headless
	}
	return req, nil
}
