// Package docstore abstracts the durable document database behind a small
// path-addressed interface. Documents live at slash-separated paths with an
// even number of segments ("Delitos/p1/likes/u1"); collections have an odd
// number ("Delitos/p1/comments").
package docstore

import "context"

// Update mutates a single field of an existing document.
type Update struct {
	Field string
	Value any
}

// increment is a transform value understood by implementations: add N to a
// numeric field server-side instead of overwriting it.
type increment struct{ delta int64 }

// Increment returns an update value that atomically adds delta to the field.
func Increment(delta int64) any {
	return increment{delta: delta}
}

type Store interface {
	// Get returns the document fields at path, or common.ErrNotFound.
	Get(ctx context.Context, path string) (map[string]any, error)
	// Add creates a document with a generated id in the collection and
	// returns the id.
	Add(ctx context.Context, collection string, fields map[string]any) (string, error)
	// Set creates or fully replaces the document at path.
	Set(ctx context.Context, path string, fields map[string]any) error
	// Update applies field updates to the document at path. Updating a
	// missing document returns common.ErrNotFound.
	Update(ctx context.Context, path string, updates []Update) error
	// Delete removes the document at path. Deleting a missing document is
	// not an error.
	Delete(ctx context.Context, path string) error
}
