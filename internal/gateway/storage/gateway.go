// Package storage implements domain.StorageGateway over the Cloud Storage
// client library.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"gcloud-go/internal/domain"
	"gcloud-go/internal/gateway"
)

// Compile-time check: Gateway implements the storage port.
var _ domain.StorageGateway = (*Gateway)(nil)

// defaultPageSize is the service maximum; the pager requires a positive size.
const defaultPageSize = 1000

// Options configures a Gateway.
type Options struct {
	Endpoint        string // emulator or private endpoint; disables auth when no credentials file is set
	CredentialsFile string
	RateLimitRPS    float64
	RateLimitBurst  int
	Logger          *slog.Logger
}

// Gateway issues Cloud Storage calls.
type Gateway struct {
	client *storage.Client
	caller *gateway.Caller
}

// New creates a Gateway with its own storage client.
func New(ctx context.Context, opts Options) (*Gateway, error) {
	var clientOpts []option.ClientOption
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	switch {
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithAuthCredentialsFile(option.ServiceAccount, opts.CredentialsFile))
	case opts.Endpoint != "":
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return NewFromClient(client, opts), nil
}

// NewFromClient wraps an existing storage client. Endpoint and
// CredentialsFile in opts are ignored.
func NewFromClient(client *storage.Client, opts Options) *Gateway {
	return &Gateway{
		client: client,
		caller: gateway.NewCaller("storage", opts.RateLimitRPS, opts.RateLimitBurst, opts.Logger),
	}
}

// Close releases the underlying client.
func (g *Gateway) Close() error {
	return g.client.Close()
}

// ListBuckets lists one page of buckets in a project.
func (g *Gateway) ListBuckets(ctx context.Context, projectID string, opts domain.BucketListOptions) (*domain.ListResult[*domain.Bucket], error) {
	pageSize := opts.MaxResults
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var (
		attrs []*storage.BucketAttrs
		next  string
	)
	err := g.caller.Do(ctx, "buckets.list", func(ctx context.Context) error {
		it := g.client.Buckets(ctx, projectID)
		it.Prefix = opts.Prefix
		var err error
		next, err = iterator.NewPager(it, pageSize, opts.PageToken).NextPage(&attrs)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &domain.ListResult[*domain.Bucket]{
		NextPageToken: next,
		Items:         make([]*domain.Bucket, 0, len(attrs)),
	}
	for _, a := range attrs {
		out.Items = append(out.Items, bucketFromAttrs(a))
	}
	return out, nil
}

func bucketFromAttrs(a *storage.BucketAttrs) *domain.Bucket {
	return &domain.Bucket{
		Name:              a.Name,
		Location:          a.Location,
		StorageClass:      a.StorageClass,
		Created:           a.Created,
		VersioningEnabled: a.VersioningEnabled,
		Labels:            a.Labels,
	}
}
