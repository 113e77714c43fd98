package domain

import "time"

// Bucket describes a Cloud Storage bucket.
type Bucket struct {
	Name              string
	Location          string
	StorageClass      string
	Created           time.Time
	VersioningEnabled bool
	Labels            map[string]string
}

// BucketListOptions filters a bucket listing.
type BucketListOptions struct {
	PageRequest
	Prefix string
}
