package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrNotFound      = errors.New("product not found")
	ErrDuplicateCode = errors.New("product code already exists")
	ErrPersist       = errors.New("persist products")
)

// Store holds the product collection loaded from a Document and rewrites the whole
// document after every mutation. It does not reload on its own: callers run
// Initialize before acting so each request starts from the durable state.
//
// The mutex only keeps the in-memory slice consistent. A reload/mutate/persist
// sequence from two writers can still interleave and lose an update.
type Store struct {
	doc     Document
	log     *zap.Logger
	metrics *StoreMetrics

	mu       sync.RWMutex
	products []Product
	lastID   int
}

func NewStore(doc Document, log *zap.Logger, metrics *StoreMetrics) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		doc:      doc,
		log:      log,
		metrics:  metrics,
		products: []Product{},
	}
}

// Initialize replaces the in-memory state with the document contents. A missing,
// unreadable or malformed document yields an empty collection and no error; only
// an unreachable backend is reported.
func (s *Store) Initialize(ctx context.Context) error {
	data, err := s.doc.Read(ctx)
	if errors.Is(err, ErrDocumentUnavailable) {
		s.metrics.reload(resultError, 0)
		return err
	}

	var loaded []Product
	if err == nil {
		err = json.Unmarshal(data, &loaded)
	}

	result := resultOK
	if err != nil {
		if !errors.Is(err, ErrDocumentAbsent) {
			s.log.Warn("products document unreadable, starting empty", zap.Error(err))
		}
		loaded = nil
		result = resultRecovered
	}
	if loaded == nil {
		loaded = []Product{}
	}

	s.mu.Lock()
	s.products = loaded
	s.lastID = lastID(loaded)
	s.mu.Unlock()

	s.metrics.reload(result, len(loaded))
	return nil
}

// lastID takes the id of the final record, not the maximum. A collection whose last
// element is not the highest id will hand out an id that is already taken.
func lastID(products []Product) int {
	if len(products) == 0 {
		return 0
	}
	return products[len(products)-1].ID
}

func (s *Store) LastID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastID
}

// List returns a copy of the first limit products, or all of them when limit <= 0.
func (s *Store) List(limit int) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.products)
	if limit > 0 && limit < n {
		n = limit
	}
	return slices.Clone(s.products[:n])
}

func (s *Store) Get(id int) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.products[i], nil
	}
	return Product{}, ErrNotFound
}

// Create appends a product with the next id. A draft missing any required field is
// skipped without an error; the result reports which fields were missing.
func (s *Store) Create(ctx context.Context, d Draft) (CreateResult, error) {
	if missing := d.missing(); len(missing) > 0 {
		s.log.Warn("product not created: required fields missing", zap.Strings("missing", missing))
		return CreateResult{Skipped: true, Missing: missing}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.products {
		if p.Code == d.Code {
			return CreateResult{}, fmt.Errorf("%w: %s", ErrDuplicateCode, d.Code)
		}
	}

	p := Product{
		ID:          s.lastID + 1,
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		Thumbnail:   d.Thumbnail,
		Code:        d.Code,
		Stock:       d.Stock,
	}

	next := append(slices.Clone(s.products), p)
	if err := s.persist(ctx, next); err != nil {
		return CreateResult{}, err
	}

	s.products = next
	s.lastID = p.ID
	return CreateResult{Product: p}, nil
}

func (s *Store) Update(ctx context.Context, id int, patch Patch) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Product{}, ErrNotFound
	}

	next := slices.Clone(s.products)
	next[i] = patch.apply(next[i])

	if err := s.persist(ctx, next); err != nil {
		return Product{}, err
	}

	s.products = next
	return next[i], nil
}

func (s *Store) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}

	next := slices.Delete(slices.Clone(s.products), i, i+1)
	if err := s.persist(ctx, next); err != nil {
		return err
	}

	s.products = next
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.doc.Ping(ctx)
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(id int) int {
	return slices.IndexFunc(s.products, func(p Product) bool { return p.ID == id })
}

// persist must be called with s.mu held for writing.
func (s *Store) persist(ctx context.Context, products []Product) error {
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		s.metrics.persist(resultError, len(products))
		return fmt.Errorf("%w: encode: %w", ErrPersist, err)
	}

	if err := s.doc.Write(ctx, data); err != nil {
		s.metrics.persist(resultError, len(products))
		s.log.Error("products document write failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s.metrics.persist(resultOK, len(products))
	return nil
}
