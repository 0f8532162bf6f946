package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

type RedisConfig struct {
	Host     string        `yaml:"host"`
	Port     string        `yaml:"port"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     "localhost",
		Port:     "6379",
		Password: "",
		DB:       0,
		TTL:      time.Hour,
	}
}

// RedisStore keeps flights under a TTL and profiles without one.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisStore{
		client: client,
		ttl:    cfg.TTL,
	}, nil
}

func (s *RedisStore) SaveFlights(ctx context.Context, key string, flights []models.Flight) error {
	data, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

func (s *RedisStore) GetFlights(ctx context.Context, key string) ([]models.Flight, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var flights []models.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, false, err
	}
	return flights, true, nil
}

func profileKey(id string) string {
	return "profile:" + id
}

func (s *RedisStore) GetProfile(ctx context.Context, id string) (*models.UserProfile, error) {
	data, err := s.client.Get(ctx, profileKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var p models.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *RedisStore) UpsertProfile(ctx context.Context, profile *models.UserProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, profileKey(profile.ID), data, 0).Err()
}

func (s *RedisStore) DeleteProfile(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, profileKey(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
