// Package app provides application-level wiring and dependency injection
// for the gcloud-go clients.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gcloud-go/internal/config"
	"gcloud-go/internal/domain"
	bqgateway "gcloud-go/internal/gateway/bigquery"
	gcsgateway "gcloud-go/internal/gateway/storage"
	"gcloud-go/internal/service/bigquery"
	"gcloud-go/internal/service/storage"
)

// Deps holds what the caller must provide. BigQuery and Storage are optional
// overrides; when nil, gateways are built from Cfg.
type Deps struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	BigQuery domain.BigQueryGateway
	Storage  domain.StorageGateway
}

// App holds the fully-wired services.
type App struct {
	Project *bigquery.Project
	Buckets *storage.BucketService

	closers []func() error
}

// New wires gateways and services from deps. Gateways are created lazily
// only when no override is supplied.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{}

	// === Gateways ===
	bq := deps.BigQuery
	if bq == nil {
		gw, err := bqgateway.New(ctx, bqgateway.Options{
			Endpoint:        cfg.BigQueryEndpoint,
			CredentialsFile: cfg.CredentialsFile,
			RateLimitRPS:    cfg.RateLimitRPS,
			RateLimitBurst:  cfg.RateLimitBurst,
			Logger:          logger.With("component", "bigquery-gateway"),
		})
		if err != nil {
			return nil, fmt.Errorf("bigquery gateway: %w", err)
		}
		bq = gw
	}

	gcs := deps.Storage
	if gcs == nil {
		gw, err := gcsgateway.New(ctx, gcsgateway.Options{
			Endpoint:        cfg.StorageEndpoint,
			CredentialsFile: cfg.CredentialsFile,
			RateLimitRPS:    cfg.RateLimitRPS,
			RateLimitBurst:  cfg.RateLimitBurst,
			Logger:          logger.With("component", "storage-gateway"),
		})
		if err != nil {
			return nil, fmt.Errorf("storage gateway: %w", err)
		}
		a.closers = append(a.closers, gw.Close)
		gcs = gw
	}

	// === Services ===
	a.Project = bigquery.NewProject(bq, cfg.ProjectID, bigquery.Options{
		Logger:       logger.With("component", "bigquery"),
		Backoff:      bigquery.LinearBackoff{Unit: cfg.PollUnit},
		PollDeadline: cfg.PollDeadline,
		QueryTimeout: cfg.QueryTimeout,
		Location:     cfg.Location,
	})
	a.Buckets = storage.NewBucketService(gcs, cfg.ProjectID, logger.With("component", "storage"))

	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}
	return a, nil
}

// Close releases gateway clients created by New.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
