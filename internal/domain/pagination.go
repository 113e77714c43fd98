package domain

import (
	"context"
	"iter"
)

// PageRequest holds pagination parameters for list operations.
type PageRequest struct {
	MaxResults int    // 0 lets the server pick its default page size
	PageToken  string // opaque continuation token from a previous page
}

// PageFetcher fetches the page identified by token. Implementations close
// over the filters that produced the first page so every follow-up request
// replays them unchanged.
type PageFetcher[T any] func(ctx context.Context, token string) (*Page[T], error)

// Page is one page of a server-paginated collection. Its fields are read-only
// to callers: NewPage and its options set them, and Next returns a new Page
// rather than advancing this one.
type Page[T any] struct {
	Items         []T
	NextPageToken string // empty on the final page
	Etag          string
	Total         *int64 // server-reported item count, when provided

	fetch PageFetcher[T]
}

// PageOption sets list metadata on a page under construction.
type PageOption func(*pageMeta)

type pageMeta struct {
	etag  string
	total *int64
}

// WithEtag records the list etag reported by the server.
func WithEtag(etag string) PageOption {
	return func(m *pageMeta) { m.etag = etag }
}

// WithTotal records the server-reported item count. A nil total is ignored.
func WithTotal(total *int64) PageOption {
	return func(m *pageMeta) {
		if total != nil {
			n := *total
			m.total = &n
		}
	}
}

// NewPage creates a page whose follow-up pages are produced by fetch.
func NewPage[T any](items []T, nextPageToken string, fetch PageFetcher[T], opts ...PageOption) *Page[T] {
	var m pageMeta
	for _, o := range opts {
		o(&m)
	}
	return &Page[T]{
		Items:         items,
		NextPageToken: nextPageToken,
		Etag:          m.etag,
		Total:         m.total,
		fetch:         fetch,
	}
}

// HasNext reports whether the server returned a continuation token.
func (p *Page[T]) HasNext() bool {
	return p.NextPageToken != ""
}

// Next fetches the following page. It returns a PreconditionError when this
// is the final page.
func (p *Page[T]) Next(ctx context.Context) (*Page[T], error) {
	if !p.HasNext() {
		return nil, ErrPrecondition("no next page: continuation token is empty")
	}
	if p.fetch == nil {
		return nil, ErrPrecondition("no next page: page is not bound to a gateway")
	}
	return p.fetch(ctx, p.NextPageToken)
}

type allOptions struct {
	requestLimit int
	limited      bool
}

// AllOption configures Page.All.
type AllOption func(*allOptions)

// WithRequestLimit caps the number of follow-up page fetches performed by
// All. Zero yields only the current page.
func WithRequestLimit(n int) AllOption {
	return func(o *allOptions) {
		if n < 0 {
			n = 0
		}
		o.requestLimit = n
		o.limited = true
	}
}

// All returns a lazy sequence over every item starting at this page,
// fetching follow-up pages on demand. Each range over the returned sequence
// starts a fresh traversal from p. A fetch error is yielded once as the
// final element.
func (p *Page[T]) All(ctx context.Context, opts ...AllOption) iter.Seq2[T, error] {
	var o allOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func(T, error) bool) {
		page := p
		fetched := 0
		for {
			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}
			if o.limited && fetched >= o.requestLimit {
				return
			}
			if !page.HasNext() {
				return
			}
			next, err := page.Next(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if next == nil {
				return
			}
			fetched++
			page = next
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for item, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Take drains at most n items from seq.
func Take[T any](seq iter.Seq2[T, error], n int) ([]T, error) {
	out := make([]T, 0, n)
	if n <= 0 {
		return out, nil
	}
	for item, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, item)
		if len(out) == n {
			break
		}
	}
	return out, nil
}
