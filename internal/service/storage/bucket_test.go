package storage

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gcloud-go/internal/domain"
	"gcloud-go/internal/testutil"
)

type mockStorageGateway = testutil.MockStorageGateway

func bucketNames(buckets []*domain.Bucket) []string {
	names := make([]string, len(buckets))
	for i, b := range buckets {
		names[i] = b.Name
	}
	return names
}

func TestBucketService_List(t *testing.T) {
	var seen []domain.BucketListOptions
	gw := &mockStorageGateway{
		ListBucketsFn: func(_ context.Context, projectID string, opts domain.BucketListOptions) (*domain.ListResult[*domain.Bucket], error) {
			assert.Equal(t, "p", projectID)
			seen = append(seen, opts)
			switch opts.PageToken {
			case "":
				return &domain.ListResult[*domain.Bucket]{
					Items:         []*domain.Bucket{{Name: "logs-a"}, {Name: "logs-b"}},
					NextPageToken: "n1",
				}, nil
			case "n1":
				return &domain.ListResult[*domain.Bucket]{Items: []*domain.Bucket{}, NextPageToken: "n2"}, nil
			default:
				return &domain.ListResult[*domain.Bucket]{Items: []*domain.Bucket{{Name: "logs-c"}}}, nil
			}
		},
	}
	svc := NewBucketService(gw, "p", slog.New(slog.DiscardHandler))
	ctx := context.Background()

	first, err := svc.List(ctx, domain.BucketListOptions{Prefix: "logs-", PageRequest: domain.PageRequest{MaxResults: 2}})
	require.NoError(t, err)
	assert.Equal(t, []string{"logs-a", "logs-b"}, bucketNames(first.Items))

	t.Run("all", func(t *testing.T) {
		all, err := domain.Collect(first.All(ctx))
		require.NoError(t, err)
		assert.Equal(t, []string{"logs-a", "logs-b", "logs-c"}, bucketNames(all))
	})

	t.Run("request_limit", func(t *testing.T) {
		got, err := domain.Collect(first.All(ctx, domain.WithRequestLimit(1)))
		require.NoError(t, err)
		assert.Equal(t, []string{"logs-a", "logs-b"}, bucketNames(got))
	})

	for _, o := range seen {
		assert.Equal(t, "logs-", o.Prefix)
		assert.Equal(t, 2, o.MaxResults)
	}
}

func TestBucketService_List_Error(t *testing.T) {
	boom := &domain.RemoteCallError{Op: "buckets.list", StatusCode: 403, Message: "forbidden"}
	gw := &mockStorageGateway{
		ListBucketsFn: func(context.Context, string, domain.BucketListOptions) (*domain.ListResult[*domain.Bucket], error) {
			return nil, boom
		},
	}
	svc := NewBucketService(gw, "p", nil)

	_, err := svc.List(context.Background(), domain.BucketListOptions{})
	var rce *domain.RemoteCallError
	require.ErrorAs(t, err, &rce)
	assert.True(t, errors.Is(err, boom))
}

func TestBucketService_List_RequiresProject(t *testing.T) {
	svc := NewBucketService(&mockStorageGateway{}, "", nil)

	_, err := svc.List(context.Background(), domain.BucketListOptions{})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}
