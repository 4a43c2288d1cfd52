// Package docstore exposes the hosted document database consumed by the
// submission controller. Only document-create is supported: the intake
// session never reads, updates, deletes, or queries.
package docstore

import "context"

// Store creates documents in a collection addressed by a hierarchical path
// and returns the backend-assigned document identifier.
type Store interface {
	CreateDocument(ctx context.Context, path CollectionPath, fields map[string]interface{}) (string, error)
	Ping(ctx context.Context) error
	Close() error
}
