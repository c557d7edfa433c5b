// Package blobstore retrieves dataset objects from a public blob container.
// Two backends exist: anonymous HTTP against an S3-style bucket endpoint,
// and anonymous FTP for mirrors that publish the same key tree over FTP.
package blobstore

import "context"

// Store lists and fetches objects by key. Implementations return keys in
// their native enumeration order; callers must not assume it is sorted.
type Store interface {
	// List returns every object key starting with prefix. Zero matches is
	// not an error.
	List(ctx context.Context, prefix string) ([]string, error)

	// Fetch returns the raw bytes of one object.
	Fetch(ctx context.Context, key string) ([]byte, error)
}
