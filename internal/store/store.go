package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"sort"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Document is a flat JSON record within a collection.
type Document = map[string]any

// ErrNotFound is returned when an id does not match any record.
var ErrNotFound = errors.New("record not found")

// PersistenceError wraps a durability failure: the backend rejected a write
// or a just-written record could not be read back.
type PersistenceError struct {
	Collection string
	Op         string
	Err        error
}

func (e *PersistenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store: %s %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("store: %s %s failed", e.Op, e.Collection)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// CreateResult tags the outcome of a create: either a fresh record or the
// pre-existing record when the caller-supplied id was already taken.
type CreateResult struct {
	Record        Document
	AlreadyExists bool
}

// Store is a generic, named collection store. Every collection is persisted
// as a single serialized blob; every mutating call rewrites the whole blob.
// Mutations are serialized by a store-level mutex.
type Store struct {
	backend Backend
	logger  *zap.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// Module provides the store and its backend to the Fx graph.
var Module = fx.Options(
	fx.Provide(NewBackend),
	fx.Provide(New),
)

// New constructs a Store on top of the given blob backend.
func New(backend Backend, logger *zap.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
		seen:    make(map[string]struct{}),
	}
}

// FindMany returns all records whose fields exactly match every key in
// filter. An empty filter returns the whole collection. Results are sorted
// ascending by createdAt.
func (s *Store) FindMany(ctx context.Context, collection string, filter Document) ([]Document, error) {
	docs, err := s.load(ctx, collection)
	if err != nil {
		return nil, err
	}

	matched := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if matches(doc, filter) {
			matched = append(matched, doc)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return docString(matched[i], "createdAt") < docString(matched[j], "createdAt")
	})

	return matched, nil
}

// FindByID returns the record with the given id, or ErrNotFound.
func (s *Store) FindByID(ctx context.Context, collection, id string) (Document, error) {
	docs, err := s.load(ctx, collection)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if docString(doc, "id") == id {
			return doc, nil
		}
	}
	return nil, ErrNotFound
}

// Create appends a record to the collection. An absent id is assigned as
// {collection}_{unixMilli}_{random}; createdAt/updatedAt are stamped. When a
// caller-supplied id already exists, the existing record is returned with
// AlreadyExists set and nothing is written. After persisting, the record is
// read back to verify durability.
func (s *Store) Create(ctx context.Context, collection string, data Document) (CreateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load(ctx, collection)
	if err != nil {
		return CreateResult{}, err
	}

	doc := clone(data)
	id := docString(doc, "id")
	if id == "" {
		id = generateID(collection)
		doc["id"] = id
	} else {
		for _, existing := range docs {
			if docString(existing, "id") == id {
				return CreateResult{Record: existing, AlreadyExists: true}, nil
			}
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	doc["createdAt"] = now
	doc["updatedAt"] = now

	docs = append(docs, doc)
	if err := s.save(ctx, collection, docs); err != nil {
		return CreateResult{}, err
	}

	// Read back the just-written record to verify the blob landed.
	reloaded, err := s.load(ctx, collection)
	if err != nil {
		return CreateResult{}, &PersistenceError{Collection: collection, Op: "verify", Err: err}
	}
	for _, candidate := range reloaded {
		if docString(candidate, "id") == id {
			return CreateResult{Record: candidate}, nil
		}
	}
	return CreateResult{}, &PersistenceError{Collection: collection, Op: "verify"}
}

// Update merges patch onto the record with the given id and bumps updatedAt.
// Returns ErrNotFound when the id is absent; the id itself is not patchable.
func (s *Store) Update(ctx context.Context, collection, id string, patch Document) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load(ctx, collection)
	if err != nil {
		return nil, err
	}

	for i, doc := range docs {
		if docString(doc, "id") != id {
			continue
		}
		merged := clone(doc)
		for key, value := range patch {
			if key == "id" {
				continue
			}
			merged[key] = value
		}
		merged["updatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)
		docs[i] = merged
		if err := s.save(ctx, collection, docs); err != nil {
			return nil, err
		}
		return merged, nil
	}

	return nil, ErrNotFound
}

// Delete removes the record with the given id, reporting whether it existed.
func (s *Store) Delete(ctx context.Context, collection, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load(ctx, collection)
	if err != nil {
		return false, err
	}

	kept := docs[:0]
	removed := false
	for _, doc := range docs {
		if docString(doc, "id") == id {
			removed = true
			continue
		}
		kept = append(kept, doc)
	}
	if !removed {
		return false, nil
	}
	if err := s.save(ctx, collection, kept); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteMany removes all records matching filter and returns the count.
func (s *Store) DeleteMany(ctx context.Context, collection string, filter Document) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load(ctx, collection)
	if err != nil {
		return 0, err
	}

	kept := docs[:0]
	removed := 0
	for _, doc := range docs {
		if matches(doc, filter) {
			removed++
			continue
		}
		kept = append(kept, doc)
	}
	if removed == 0 {
		return 0, nil
	}
	if err := s.save(ctx, collection, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// Reset drops an entire collection.
func (s *Store) Reset(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Drop(ctx, collection); err != nil {
		return &PersistenceError{Collection: collection, Op: "drop", Err: err}
	}
	delete(s.seen, collection)
	return nil
}

// Collections lists collection names touched since the store was built.
func (s *Store) Collections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.seen))
	for name := range s.seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) load(ctx context.Context, collection string) ([]Document, error) {
	blob, err := s.backend.Load(ctx, collection)
	if errors.Is(err, ErrNoCollection) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Collection: collection, Op: "load", Err: err}
	}

	var docs []Document
	if err := json.Unmarshal(blob, &docs); err != nil {
		return nil, &PersistenceError{Collection: collection, Op: "decode", Err: err}
	}
	return docs, nil
}

func (s *Store) save(ctx context.Context, collection string, docs []Document) error {
	if docs == nil {
		docs = []Document{}
	}
	blob, err := json.Marshal(docs)
	if err != nil {
		return &PersistenceError{Collection: collection, Op: "encode", Err: err}
	}
	if err := s.backend.Save(ctx, collection, blob); err != nil {
		return &PersistenceError{Collection: collection, Op: "save", Err: err}
	}
	s.seen[collection] = struct{}{}
	if s.logger != nil {
		s.logger.Debug("collection persisted",
			zap.String("collection", collection),
			zap.Int("records", len(docs)),
		)
	}
	return nil
}

// matches applies strict equality on every filter key. Numeric values are
// compared as float64 since documents round-trip through JSON.
func matches(doc, filter Document) bool {
	for key, want := range filter {
		got, ok := doc[key]
		if !ok {
			return false
		}
		if !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	na, aNum := toFloat(a)
	nb, bNum := toFloat(b)
	if aNum && bNum {
		return na == nb
	}
	sa, aStr := toString(a)
	sb, bStr := toString(b)
	if aStr && bStr {
		return sa == sb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

func toString(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

func docString(doc Document, key string) string {
	if value, ok := doc[key].(string); ok {
		return value
	}
	return ""
}

func clone(doc Document) Document {
	copied := make(Document, len(doc)+2)
	for key, value := range doc {
		copied[key] = value
	}
	return copied
}

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func generateID(collection string) string {
	suffix := make([]byte, 8)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return fmt.Sprintf("%s_%d_%s", collection, time.Now().UnixMilli(), suffix)
}
