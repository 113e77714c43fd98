// Package storage exposes Cloud Storage listings as paginated collections.
package storage

import (
	"context"
	"log/slog"
	"strings"

	"gcloud-go/internal/domain"
)

// BucketService lists the buckets of one project.
type BucketService struct {
	gw        domain.StorageGateway
	projectID string
	logger    *slog.Logger
}

// NewBucketService creates a new BucketService.
func NewBucketService(gw domain.StorageGateway, projectID string, logger *slog.Logger) *BucketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BucketService{gw: gw, projectID: projectID, logger: logger}
}

// List returns the first page of buckets. Follow-up pages replay the prefix
// and page size.
func (s *BucketService) List(ctx context.Context, opts domain.BucketListOptions) (*domain.Page[*domain.Bucket], error) {
	if strings.TrimSpace(s.projectID) == "" {
		return nil, domain.ErrValidation("project is required to list buckets")
	}
	var fetch domain.PageFetcher[*domain.Bucket]
	fetch = func(ctx context.Context, token string) (*domain.Page[*domain.Bucket], error) {
		req := opts
		req.PageToken = token
		res, err := s.gw.ListBuckets(ctx, s.projectID, req)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("buckets listed", "project", s.projectID, "count", len(res.Items), "more", res.NextPageToken != "")
		page := domain.NewPage(res.Items, res.NextPageToken, fetch,
			domain.WithEtag(res.Etag), domain.WithTotal(res.TotalItems))
		return page, nil
	}
	return fetch(ctx, opts.PageToken)
}
