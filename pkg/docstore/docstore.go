// Package docstore is a small hierarchical document store.
//
// Documents live at slash separated paths made of collection/id pairs,
// e.g. "doctors/d1/services/t1". The last collection segment of a path is
// its group, so every doctor's "services" collection can be listed at once.
// Documents are JSON objects; Merge and the increment primitives work on
// top-level fields.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("docstore: document not found")
	ErrLimitReached = errors.New("docstore: counter limit reached")
	ErrInvalidPath  = errors.New("docstore: invalid path")
	ErrInvalidDoc   = errors.New("docstore: document must encode to a JSON object")
)

// Store is implemented by the redis and postgres backends.
type Store interface {
	Get(ctx context.Context, path string) (Snapshot, error)
	// Set replaces the document at path.
	Set(ctx context.Context, path string, doc any) error
	// Merge writes the top-level fields of doc over the stored document,
	// creating it when absent.
	Merge(ctx context.Context, path string, doc any) error
	// Increment atomically adds delta to an integer field, creating the
	// document and the field when absent. It returns the new value.
	Increment(ctx context.Context, path, field string, delta int64) (int64, error)
	// IncrementWithin atomically adds one to field unless the integer stored
	// in limitField is positive and field has already reached it.
	// The document must exist.
	IncrementWithin(ctx context.Context, path, field, limitField string) (int64, error)
	// List returns the documents of one collection ordered by path.
	List(ctx context.Context, collection string) ([]Snapshot, error)
	// ListGroup returns the documents of every collection named group.
	ListGroup(ctx context.Context, group string) ([]Snapshot, error)
	// Where returns the documents of collection whose field equals value.
	Where(ctx context.Context, collection, field string, value any) ([]Snapshot, error)
	// Reserve claims path for owner. It reports false when another owner
	// already holds it. Reserving again with the same owner succeeds.
	Reserve(ctx context.Context, path, owner string) (bool, error)
	// Release drops a reservation held by owner.
	Release(ctx context.Context, path, owner string) error
	Ping(ctx context.Context) error
}

// Snapshot is a stored document together with its location.
type Snapshot struct {
	Path string
	Data json.RawMessage
}

// ID returns the last path segment.
func (s Snapshot) ID() string {
	return s.Path[strings.LastIndexByte(s.Path, '/')+1:]
}

// Segments returns the path split on "/".
func (s Snapshot) Segments() []string {
	return strings.Split(s.Path, "/")
}

func (s Snapshot) Decode(v any) error {
	if err := json.Unmarshal(s.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", s.Path, err)
	}
	return nil
}

// Path joins segments into a store path.
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

type docPath struct {
	full       string
	collection string
	group      string
	id         string
}

func parseDocPath(p string) (docPath, error) {
	segs := strings.Split(p, "/")
	if len(segs) < 2 || len(segs)%2 != 0 {
		return docPath{}, fmt.Errorf("%w: %q is not a document path", ErrInvalidPath, p)
	}
	for _, s := range segs {
		if s == "" {
			return docPath{}, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, p)
		}
	}
	return docPath{
		full:       p,
		collection: strings.Join(segs[:len(segs)-1], "/"),
		group:      segs[len(segs)-2],
		id:         segs[len(segs)-1],
	}, nil
}

func validateCollection(p string) error {
	segs := strings.Split(p, "/")
	if len(segs)%2 != 1 {
		return fmt.Errorf("%w: %q is not a collection path", ErrInvalidPath, p)
	}
	for _, s := range segs {
		if s == "" {
			return fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, p)
		}
	}
	return nil
}

// encodeFields marshals doc and splits it into its top-level fields.
func encodeFields(doc any) (map[string]json.RawMessage, error) {
	raw, ok := doc.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode document: %w", err)
		}
		raw = b
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, ErrInvalidDoc
	}
	return fields, nil
}

// fieldEquals reports whether the top-level field of data encodes the same
// JSON as want.
func fieldEquals(data json.RawMessage, field string, want []byte) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}
	got, ok := fields[field]
	if !ok {
		return false
	}
	var a, b bytes.Buffer
	if json.Compact(&a, got) != nil || json.Compact(&b, want) != nil {
		return false
	}
	return bytes.Equal(a.Bytes(), b.Bytes())
}
