// Package bootstrap assembles the playground from configuration. Both
// front-ends share it.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"stencil/internal/adapter/repo"
	"stencil/internal/domain"
	"stencil/internal/download"
	"stencil/internal/infra"
	"stencil/internal/playground"
	"stencil/internal/providers/chroma"
	"stencil/internal/storage"
)

// Components holds the wired pipeline.
type Components struct {
	Client     *chroma.Client
	Store      storage.Store
	Downloader *download.Downloader
	History    domain.JobRepository
	Controller *playground.Controller

	closers []func()
}

// Build wires the client, storage, optional job history and the controller.
func Build(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*Components, error) {
	c := &Components{}

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	c.Client = chroma.NewClient(chroma.Options{
		BaseURL:        cfg.APIBaseURL,
		ContentBaseURL: cfg.ContentBaseURL,
		UserID:         cfg.UserID,
		EffectID:       cfg.EffectID,
		ModelType:      cfg.ModelType,
		PollInterval:   cfg.PollInterval,
		MaxPolls:       cfg.MaxPolls,
		HTTPClient:     httpClient,
		Logger:         &logger,
	})

	store, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.Store = store

	c.Downloader = download.NewDownloader(download.Options{
		Strategies: download.DefaultStrategies(httpClient, c.Client.ProxyURL, time.Now),
		Store:      store,
		Opener:     download.BrowserOpener{},
		Prefix:     cfg.DownloadPrefix,
		Logger:     &logger,
	})

	opts := playground.Options{
		Pipeline:   c.Client,
		Downloader: c.Downloader,
		Logger:     &logger,
	}
	if cfg.DatabaseURL != "" {
		history, err := c.buildHistory(ctx, cfg, logger)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.History = history
		opts.History = history
	}
	c.Controller = playground.NewController(opts)
	return c, nil
}

// Close cancels in-flight work and releases the database pool.
func (c *Components) Close() {
	if c.Controller != nil {
		c.Controller.Reset()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func buildStore(ctx context.Context, cfg *infra.Config, logger infra.Logger) (storage.Store, error) {
	files, err := storage.NewFileStore(cfg.DownloadDir)
	if err != nil {
		return nil, err
	}
	if cfg.S3Bucket == "" {
		return files, nil
	}
	s3, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket: cfg.S3Bucket,
		Prefix: cfg.S3Prefix,
		Region: cfg.AWSRegion,
	})
	if err != nil {
		return nil, err
	}
	logger.Info().Str("bucket", cfg.S3Bucket).Msg("results mirrored to s3")
	return storage.MultiStore{files, s3}, nil
}

func (c *Components) buildHistory(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*repo.JobRepositoryPG, error) {
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, pool.Close)

	jobs := repo.NewJobRepository(infra.NewSQLRunner(pool, logger))
	if err := jobs.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("job history: %w", err)
	}
	return jobs, nil
}
