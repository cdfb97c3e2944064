package chroma

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stencil/internal/infra"
	"stencil/internal/nanoid"
)

const (
	acceptHeader = "application/json, text/plain, */*"

	defaultBaseURL        = "https://api.chromastudio.ai"
	defaultContentBaseURL = "https://contents.maxstudio.ai"
	defaultPollInterval   = 2 * time.Second
	defaultMaxPolls       = 60
)

// Options configures the Chroma Studio effects client.
type Options struct {
	BaseURL        string
	ContentBaseURL string
	UserID         string
	EffectID       string
	ModelType      string
	PollInterval   time.Duration
	MaxPolls       int
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
	NewID          nanoid.Generator
}

// Client talks to the upload, generation and status endpoints.
type Client struct {
	baseURL        string
	contentBaseURL string
	userID         string
	effectID       string
	modelType      string
	pollInterval   time.Duration
	maxPolls       int
	httpClient     *http.Client
	logger         *infra.Logger
	newID          nanoid.Generator
	sleep          func(ctx context.Context, d time.Duration) error
}

// NewClient constructs a client with defaults for anything left unset.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	contentBaseURL := strings.TrimRight(strings.TrimSpace(opts.ContentBaseURL), "/")
	if contentBaseURL == "" {
		contentBaseURL = defaultContentBaseURL
	}
	modelType := strings.TrimSpace(opts.ModelType)
	if modelType == "" {
		modelType = infra.ModelImageEffects
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	maxPolls := opts.MaxPolls
	if maxPolls <= 0 {
		maxPolls = defaultMaxPolls
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	newID := opts.NewID
	if newID == nil {
		newID = nanoid.New
	}
	return &Client{
		baseURL:        baseURL,
		contentBaseURL: contentBaseURL,
		userID:         opts.UserID,
		effectID:       opts.EffectID,
		modelType:      modelType,
		pollInterval:   pollInterval,
		maxPolls:       maxPolls,
		httpClient:     httpClient,
		logger:         logger,
		newID:          newID,
		sleep:          sleepContext,
	}
}

// IsVideo reports whether jobs go to the video endpoints.
func (c *Client) IsVideo() bool {
	return c.modelType == infra.ModelVideoEffects
}

// ModelType returns the static job type flag.
func (c *Client) ModelType() string {
	return c.modelType
}

// ProxyURL returns the download-proxy address for target.
func (c *Client) ProxyURL(target string) string {
	return c.baseURL + "/download-proxy?url=" + url.QueryEscape(target)
}

func (c *Client) jobEndpoint() string {
	if c.IsVideo() {
		return c.baseURL + "/video-gen"
	}
	return c.baseURL + "/image-gen"
}

func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return strings.TrimSpace(resp.Status)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
