package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"stencil/internal/domain"
)

// ErrNotApplicable tells the cascade a strategy does not handle this request.
var ErrNotApplicable = errors.New("strategy not applicable")

// Request describes one result to download.
type Request struct {
	URL            string
	Kind           domain.MediaKind
	PreviewVisible bool
}

// Blob is fetched result content ready to be saved.
type Blob struct {
	Data        []byte
	ContentType string
	Extension   string
}

// Strategy is one way of obtaining a result's bytes.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, req Request) (*Blob, error)
}

// ProxyURLFunc maps a result URL to its download-proxy address.
type ProxyURLFunc func(target string) string

// httpStrategy GETs a URL derived from the request.
type httpStrategy struct {
	name   string
	client *http.Client
	target func(Request) string
}

func (s *httpStrategy) Name() string { return s.name }

func (s *httpStrategy) Fetch(ctx context.Context, req Request) (*Blob, error) {
	data, contentType, err := get(ctx, s.client, s.target(req))
	if err != nil {
		return nil, err
	}
	return &Blob{Data: data, ContentType: contentType, Extension: Extension(req.URL, contentType)}, nil
}

// NewProxyStrategy fetches through the server-side download proxy.
func NewProxyStrategy(client *http.Client, proxyURL ProxyURLFunc) Strategy {
	return &httpStrategy{
		name:   "proxy",
		client: client,
		target: func(req Request) string { return proxyURL(req.URL) },
	}
}

// NewDirectStrategy fetches the result URL itself with a cache-busting parameter.
func NewDirectStrategy(client *http.Client, now func() time.Time) Strategy {
	return &httpStrategy{
		name:   "direct",
		client: client,
		target: func(req Request) string {
			return withParam(req.URL, "t", strconv.FormatInt(now().UnixMilli(), 10))
		},
	}
}

// ReencodeStrategy decodes an image result and re-encodes it as PNG at its
// natural size. It only runs for image results whose preview is showing.
type ReencodeStrategy struct {
	client *http.Client
	now    func() time.Time
}

func NewReencodeStrategy(client *http.Client, now func() time.Time) *ReencodeStrategy {
	return &ReencodeStrategy{client: client, now: now}
}

func (s *ReencodeStrategy) Name() string { return "reencode" }

func (s *ReencodeStrategy) Fetch(ctx context.Context, req Request) (*Blob, error) {
	if req.Kind != domain.MediaKindImage || !req.PreviewVisible {
		return nil, ErrNotApplicable
	}
	target := withParam(req.URL, "crossorigin", strconv.FormatInt(s.now().UnixMilli(), 10))
	data, _, err := get(ctx, s.client, target)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return &Blob{Data: buf.Bytes(), ContentType: "image/png", Extension: "png"}, nil
}

func get(ctx context.Context, client *http.Client, target string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func withParam(rawURL, key, value string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + key + "=" + value
}
