package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/browser"

	"stencil/internal/domain"
	"stencil/internal/infra"
	"stencil/internal/nanoid"
	"stencil/internal/storage"
)

const (
	StrategyLink = "link"

	imageHint = `Download started. If not, right-click the image and select "Save Image As".`
)

// Opener hands a URL to something that can save it outside this process.
type Opener interface {
	Open(url string) error
}

// BrowserOpener opens the URL in the system browser.
type BrowserOpener struct{}

func (BrowserOpener) Open(url string) error {
	return browser.OpenURL(url)
}

// StrategyFailure records why one strategy did not produce a file.
type StrategyFailure struct {
	Strategy string
	Err      error
}

// DownloadError lists every failed strategy. Download never returns it; it
// is attached to the Outcome for logging.
type DownloadError struct {
	Failures []StrategyFailure
}

func (e *DownloadError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Strategy+": "+f.Err.Error())
	}
	return "download failed: " + strings.Join(parts, "; ")
}

// Outcome reports how a download ended.
type Outcome struct {
	Strategy string `json:"strategy"`
	Filename string `json:"filename"`
	Location string `json:"location,omitempty"`
	Hint     string `json:"hint,omitempty"`
	Err      error  `json:"-"`
}

// Saved reports whether a strategy stored the content.
func (o Outcome) Saved() bool {
	return o.Location != ""
}

// Options configures a Downloader.
type Options struct {
	Strategies []Strategy
	Store      storage.Store
	Opener     Opener
	Prefix     string
	NewID      nanoid.Generator
	Logger     *infra.Logger
}

// Downloader runs the strategy cascade and saves the first blob obtained.
type Downloader struct {
	strategies []Strategy
	store      storage.Store
	opener     Opener
	prefix     string
	newID      nanoid.Generator
	logger     *infra.Logger
}

func NewDownloader(opts Options) *Downloader {
	opener := opts.Opener
	if opener == nil {
		opener = BrowserOpener{}
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "stencil_result_"
	}
	newID := opts.NewID
	if newID == nil {
		newID = nanoid.New
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Downloader{
		strategies: opts.Strategies,
		store:      opts.Store,
		opener:     opener,
		prefix:     prefix,
		newID:      newID,
		logger:     logger,
	}
}

// DefaultStrategies returns proxy, direct and re-encode in cascade order.
func DefaultStrategies(client *http.Client, proxyURL ProxyURLFunc, now func() time.Time) []Strategy {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if now == nil {
		now = time.Now
	}
	return []Strategy{
		NewProxyStrategy(client, proxyURL),
		NewDirectStrategy(client, now),
		NewReencodeStrategy(client, now),
	}
}

// Download tries each strategy in order and saves the first blob. When all of
// them fail it falls back to opening the link. It never fails; the outcome
// carries the hint to show the user. A cancelled ctx stops the cascade without
// opening anything.
func (d *Downloader) Download(ctx context.Context, req Request) Outcome {
	if req.Kind == "" {
		req.Kind = domain.MediaKindForURL(req.URL)
	}
	var failures []StrategyFailure
	for _, strategy := range d.strategies {
		if err := ctx.Err(); err != nil {
			failures = append(failures, StrategyFailure{Strategy: strategy.Name(), Err: err})
			return Outcome{Err: &DownloadError{Failures: failures}}
		}
		blob, err := strategy.Fetch(ctx, req)
		if errors.Is(err, ErrNotApplicable) {
			d.logger.Debug().Str("strategy", strategy.Name()).Msg("download: strategy skipped")
			continue
		}
		if err == nil {
			var out Outcome
			out, err = d.save(ctx, strategy.Name(), blob)
			if err == nil {
				d.logger.Info().
					Str("strategy", out.Strategy).
					Str("location", out.Location).
					Msg("download: saved result")
				return out
			}
		}
		d.logger.Warn().Err(err).Str("strategy", strategy.Name()).Str("url", req.URL).Msg("download: strategy failed")
		failures = append(failures, StrategyFailure{Strategy: strategy.Name(), Err: err})
	}
	if err := ctx.Err(); err != nil {
		return Outcome{Err: &DownloadError{Failures: failures}}
	}
	return d.openLink(req, failures)
}

func (d *Downloader) save(ctx context.Context, strategy string, blob *Blob) (Outcome, error) {
	if d.store == nil {
		return Outcome{}, errors.New("no store configured")
	}
	filename, err := d.filename(blob.Extension)
	if err != nil {
		return Outcome{}, err
	}
	location, err := d.store.Write(ctx, filename, blob.Data, blob.ContentType)
	if err != nil {
		return Outcome{}, fmt.Errorf("save: %w", err)
	}
	return Outcome{Strategy: strategy, Filename: filename, Location: location}, nil
}

func (d *Downloader) filename(ext string) (string, error) {
	id, err := d.newID(nanoid.SuffixLength)
	if err != nil {
		return "", fmt.Errorf("generate filename: %w", err)
	}
	return d.prefix + id + "." + ext, nil
}

func (d *Downloader) openLink(req Request, failures []StrategyFailure) Outcome {
	out := Outcome{Strategy: StrategyLink, Filename: "download"}
	if req.Kind == domain.MediaKindImage && req.PreviewVisible {
		out.Hint = imageHint
		if name, err := d.filename("png"); err == nil {
			out.Filename = name
		}
	}
	if err := d.opener.Open(req.URL); err != nil {
		failures = append(failures, StrategyFailure{Strategy: StrategyLink, Err: err})
		out.Hint = fmt.Sprintf("Could not start the download. Open %s and save it manually.", req.URL)
	}
	if len(failures) > 0 {
		out.Err = &DownloadError{Failures: failures}
	}
	d.logger.Warn().Err(out.Err).Str("url", req.URL).Msg("download: fell back to link")
	return out
}
