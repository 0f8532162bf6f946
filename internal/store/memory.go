package store

import (
	"context"
	"sync"
	"time"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

type NoopStore struct{}

func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (s *NoopStore) SaveFlights(ctx context.Context, key string, flights []models.Flight) error {
	return nil
}

func (s *NoopStore) GetFlights(ctx context.Context, key string) ([]models.Flight, bool, error) {
	return nil, false, nil
}

func (s *NoopStore) GetProfile(ctx context.Context, id string) (*models.UserProfile, error) {
	return nil, ErrNotFound
}

func (s *NoopStore) UpsertProfile(ctx context.Context, profile *models.UserProfile) error {
	return nil
}

func (s *NoopStore) DeleteProfile(ctx context.Context, id string) error {
	return nil
}

func (s *NoopStore) Close() error {
	return nil
}

// MemoryStore keeps everything in process. Flights expire after ttl.
type MemoryStore struct {
	mu       sync.RWMutex
	flights  map[string]memoryFlights
	profiles map[string]models.UserProfile
	ttl      time.Duration
}

type memoryFlights struct {
	flights   []models.Flight
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		flights:  make(map[string]memoryFlights),
		profiles: make(map[string]models.UserProfile),
		ttl:      ttl,
	}
}

func (s *MemoryStore) SaveFlights(ctx context.Context, key string, flights []models.Flight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flights[key] = memoryFlights{
		flights:   append([]models.Flight(nil), flights...),
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) GetFlights(ctx context.Context, key string) ([]models.Flight, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.flights[key]
	if !ok || !time.Now().Before(entry.expiresAt) {
		return nil, false, nil
	}
	return append([]models.Flight(nil), entry.flights...), true, nil
}

func (s *MemoryStore) GetProfile(ctx context.Context, id string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) UpsertProfile(ctx context.Context, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile.UpdatedAt = time.Now().UTC()
	s.profiles[profile.ID] = *profile
	return nil
}

func (s *MemoryStore) DeleteProfile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return ErrNotFound
	}
	delete(s.profiles, id)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
