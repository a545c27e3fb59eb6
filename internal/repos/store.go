package repos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"alquitones/internal/domain"
	applog "alquitones/internal/log"
	"alquitones/internal/metrics"
)

const DefaultKey = "alquitones:db"

// errNoChange aborts a write without persisting when there is nothing to do.
var errNoChange = errors.New("no change")

// Sequences hold the last id issued per collection. They only grow.
type Sequences struct {
	Category      int `json:"category"`
	User          int `json:"user"`
	Product       int `json:"product"`
	Specification int `json:"specification"`
	Reservation   int `json:"reservation"`
	Rating        int `json:"rating"`
}

// Snapshot is the whole aggregate as persisted under one key.
type Snapshot struct {
	Categories     []domain.Category      `json:"categories"`
	Users          []domain.User          `json:"users"`
	Products       []domain.Product       `json:"products"`
	Specifications []domain.Specification `json:"specifications"`
	Reservations   []domain.Reservation   `json:"reservations"`
	Ratings        []domain.Rating        `json:"ratings"`
	Favorites      []domain.Favorite      `json:"favorites"`
	Seq            Sequences              `json:"seq"`
}

func EmptySnapshot() *Snapshot {
	s := &Snapshot{}
	s.normalize()
	return s
}

func (s *Snapshot) clone() *Snapshot {
	out := &Snapshot{
		Categories:     append([]domain.Category{}, s.Categories...),
		Users:          append([]domain.User{}, s.Users...),
		Products:       make([]domain.Product, len(s.Products)),
		Specifications: append([]domain.Specification{}, s.Specifications...),
		Reservations:   append([]domain.Reservation{}, s.Reservations...),
		Ratings:        append([]domain.Rating{}, s.Ratings...),
		Favorites:      append([]domain.Favorite{}, s.Favorites...),
		Seq:            s.Seq,
	}
	for i, p := range s.Products {
		out.Products[i] = p.Clone()
	}
	return out
}

// normalize replaces nil slices and lifts counters above any id already present,
// so blobs written before counters existed still issue fresh ids.
func (s *Snapshot) normalize() {
	if s.Categories == nil {
		s.Categories = []domain.Category{}
	}
	if s.Users == nil {
		s.Users = []domain.User{}
	}
	if s.Products == nil {
		s.Products = []domain.Product{}
	}
	if s.Specifications == nil {
		s.Specifications = []domain.Specification{}
	}
	if s.Reservations == nil {
		s.Reservations = []domain.Reservation{}
	}
	if s.Ratings == nil {
		s.Ratings = []domain.Rating{}
	}
	if s.Favorites == nil {
		s.Favorites = []domain.Favorite{}
	}
	for _, c := range s.Categories {
		s.Seq.Category = max(s.Seq.Category, c.ID)
	}
	for _, u := range s.Users {
		s.Seq.User = max(s.Seq.User, u.ID)
	}
	for _, p := range s.Products {
		s.Seq.Product = max(s.Seq.Product, p.ID)
	}
	for _, sp := range s.Specifications {
		s.Seq.Specification = max(s.Seq.Specification, sp.ID)
	}
	for _, r := range s.Reservations {
		s.Seq.Reservation = max(s.Seq.Reservation, r.ID)
	}
	for _, r := range s.Ratings {
		s.Seq.Rating = max(s.Seq.Rating, r.ID)
	}
}

func Encode(s *Snapshot) ([]byte, error) { return json.Marshal(s) }

// Decode parses a persisted aggregate. Any failure is reported as corruption of key.
func Decode(key string, blob []byte) (*Snapshot, error) {
	if len(bytes.TrimSpace(blob)) == 0 {
		return nil, &domain.StorageCorruptionError{Key: key, Err: errors.New("empty blob")}
	}
	var s Snapshot
	if err := json.Unmarshal(blob, &s); err != nil {
		return nil, &domain.StorageCorruptionError{Key: key, Err: err}
	}
	s.normalize()
	return &s, nil
}

type Options struct {
	Key        string
	BcryptCost int
	Now        func() time.Time
	// Seed is written when the key is absent. Nil means DefaultSeed.
	Seed func(now time.Time, cost int) (*Snapshot, error)
}

// Store owns the aggregate. Reads see a consistent snapshot; every write
// applies to a copy that replaces the live one only after it is persisted.
type Store struct {
	mu      sync.RWMutex
	data    *Snapshot
	storage Storage
	key     string
	cost    int
	now     func() time.Time
	log     zerolog.Logger
}

// OpenStore loads the aggregate under opts.Key, seeding it when absent.
func OpenStore(ctx context.Context, storage Storage, opts Options) (*Store, error) {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Seed == nil {
		opts.Seed = DefaultSeed
	}
	s := &Store{
		storage: storage,
		key:     opts.Key,
		cost:    opts.BcryptCost,
		now:     opts.Now,
		log:     applog.Component("store"),
	}

	err := s.Reload(ctx)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		s.log.Error().Err(err).Str("key", s.key).Msg("store.load.fail")
		return nil, err
	}

	seed, err := opts.Seed(s.now().UTC(), s.cost)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	seed.normalize()
	if err := s.persist(ctx, seed); err != nil {
		return nil, err
	}
	s.data = seed
	s.log.Info().Str("key", s.key).
		Int("categories", len(seed.Categories)).
		Int("products", len(seed.Products)).
		Int("users", len(seed.Users)).
		Msg("store.seed")
	return s, nil
}

// Reload replaces the in-memory aggregate with the persisted one.
func (s *Store) Reload(ctx context.Context) error {
	blob, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return err
	}
	snap, err := Decode(s.key, blob)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = snap
	s.mu.Unlock()
	s.log.Debug().Str("key", s.key).Int("bytes", len(blob)).Msg("store.load")
	return nil
}

// Save writes the current aggregate as is.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persist(ctx, s.data)
}

// Snapshot returns a deep copy of the current aggregate.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.clone()
}

func (s *Store) Now() time.Time { return s.now().UTC() }

func (s *Store) Today() domain.Date { return domain.DateOf(s.now()) }

func (s *Store) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (s *Store) persist(ctx context.Context, snap *Snapshot) error {
	blob, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := s.storage.Set(ctx, s.key, blob); err != nil {
		return fmt.Errorf("persist %s: %w", s.key, err)
	}
	return nil
}

func (s *Store) read(fn func(*Snapshot)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(ctx context.Context, op string, fn func(*Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.data.clone()
	if err := fn(next); err != nil {
		if errors.Is(err, errNoChange) {
			return err
		}
		metrics.StoreWrites.WithLabelValues(op, "rejected").Inc()
		return err
	}
	if err := s.persist(ctx, next); err != nil {
		metrics.StoreWrites.WithLabelValues(op, "error").Inc()
		s.log.Error().Err(err).Str("op", op).Msg("store.persist.fail")
		return err
	}
	s.data = next
	metrics.StoreWrites.WithLabelValues(op, "ok").Inc()
	return nil
}
