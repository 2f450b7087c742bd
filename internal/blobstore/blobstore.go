// Package blobstore holds photo bytes on behalf of the database. The photo
// row is the source of truth; blob files are subordinate, which is why every
// delete operation treats a missing target as success.
package blobstore

import "context"

type Store interface {
	// Put writes data under the bin's directory and returns the storage
	// path to record on the photo row. The directory is created lazily.
	Put(ctx context.Context, binID, filename string, data []byte) (string, error)

	// Get reads the bytes at a storage path previously returned by Put.
	Get(ctx context.Context, path string) ([]byte, error)

	// Delete removes one blob. Missing files are not an error.
	Delete(ctx context.Context, path string) error

	// DeleteBin removes the bin's directory and anything left in it.
	// Missing directories are not an error.
	DeleteBin(ctx context.Context, binID string) error
}
