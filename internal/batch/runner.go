package batch

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"

	"github.com/law-makers/parscrape/internal/retry"
	"github.com/law-makers/parscrape/internal/utils/output"
	urlutil "github.com/law-makers/parscrape/internal/utils/url"
	"github.com/law-makers/parscrape/pkg/models"
)

// Scraper is anything that can run one scrape: the service Client or an
// in-process service.Scraper.
type Scraper interface {
	Scrape(ctx context.Context, req models.ScrapeRequest) (*models.ScrapeResponse, error)
}

// Options configures a Runner.
type Options struct {
	// Concurrency is the number of URLs in flight at once.
	Concurrency int
	// Delay is the minimum gap between two dispatches.
	Delay time.Duration
	// Retry governs per-URL retries.
	Retry retry.Config
	// Template supplies every request field except the URL.
	Template models.ScrapeRequest
	// OutputDir receives one text file per page; empty disables writing.
	OutputDir string
	// SaveJSON also writes the full response next to each text file.
	SaveJSON bool
	// Progress receives a progress bar; nil disables it.
	Progress io.Writer
}

// Runner scrapes a list of URLs with bounded concurrency.
type Runner struct {
	scraper Scraper
	opts    Options
}

// NewRunner creates a Runner.
func NewRunner(s Scraper, opts Options) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry.MaxAttempts = 1
	}
	return &Runner{scraper: s, opts: opts}
}

// Run scrapes urls and returns one result per URL in input order. A failed
// URL never stops the batch; URLs not started before ctx ends carry the
// context error.
func (r *Runner) Run(ctx context.Context, urls []string) []models.BatchResult {
	results := make([]models.BatchResult, len(urls))
	for i, u := range urls {
		results[i].URL = u
	}
	if len(urls) == 0 {
		return results
	}

	pace := rate.NewLimiter(rate.Inf, 1)
	if r.opts.Delay > 0 {
		pace = rate.NewLimiter(rate.Every(r.opts.Delay), 1)
	}

	bar := r.newBar(len(urls))
	var barMu sync.Mutex

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.opts.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = r.scrapeOne(ctx, urls[i])
				if bar != nil {
					barMu.Lock()
					_ = bar.Add(1)
					barMu.Unlock()
				}
			}
		}()
	}

	dispatched := 0
	for i := range urls {
		if err := pace.Wait(ctx); err != nil {
			break
		}
		jobs <- i
		dispatched++
	}
	close(jobs)
	wg.Wait()

	for i := dispatched; i < len(urls); i++ {
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		results[i].Err = err
		results[i].Error = err.Error()
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return results
}

func (r *Runner) scrapeOne(ctx context.Context, url string) models.BatchResult {
	start := time.Now()
	res := models.BatchResult{URL: url}

	req := r.opts.Template
	req.URL = url

	logger := log.With().Str("url", url).Logger()
	logger.Info().Msg("Scraping")

	attempts, err := retry.Do(ctx, r.opts.Retry, func(attempt int) error {
		if attempt > 1 {
			logger.Info().Int("attempt", attempt).Msg("Retrying")
		}
		resp, err := r.scraper.Scrape(ctx, req)
		if err != nil {
			return err
		}
		res.Response = resp
		return nil
	})
	res.Attempts = attempts
	res.Duration = time.Since(start)

	if err != nil {
		res.Err = err
		res.Error = err.Error()
		logger.Error().Err(err).Int("attempts", attempts).Msg("Failed to scrape")
		return res
	}

	if r.opts.OutputDir != "" {
		path, err := output.SaveText(r.opts.OutputDir, url, res.Response.Text)
		if err != nil {
			res.Err = err
			res.Error = err.Error()
			logger.Error().Err(err).Msg("Failed to save text")
			return res
		}
		res.File = path
		if r.opts.SaveJSON {
			jsonPath := filepath.Join(r.opts.OutputDir, urlutil.FileStem(url)+".json")
			if err := output.SaveJSON(res.Response, jsonPath); err != nil {
				logger.Warn().Err(err).Msg("Failed to save JSON")
			}
		}
	}

	logger.Info().
		Int("links", len(res.Response.URLs)).
		Str("file", res.File).
		Dur("duration", res.Duration).
		Msg("Scraped")
	return res
}

func (r *Runner) newBar(total int) *progressbar.ProgressBar {
	if r.opts.Progress == nil {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.opts.Progress),
		progressbar.OptionSetDescription("Scraping"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// Summary counts successes and failures.
func Summary(results []models.BatchResult) (ok, failed int) {
	for _, r := range results {
		if r.Err != nil || r.Error != "" {
			failed++
		} else {
			ok++
		}
	}
	return ok, failed
}
