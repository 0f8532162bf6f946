package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

type MongoConfig struct {
	URI      string        `yaml:"uri"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Database string        `yaml:"database"`
	TTL      time.Duration `yaml:"ttl"`
}

type MongoStore struct {
	client   *mongo.Client
	flights  *mongo.Collection
	profiles *mongo.Collection
	ttl      time.Duration
}

type flightsDocument struct {
	Key       string          `bson:"_id"`
	Flights   []models.Flight `bson:"flights"`
	StoredAt  time.Time       `bson:"storedAt"`
	ExpiresAt time.Time       `bson:"expiresAt"`
}

func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)

	if cfg.Username != "" && cfg.Password != "" {
		clientOptions.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	db := client.Database(cfg.Database)
	s := &MongoStore{
		client:   client,
		flights:  db.Collection("flight_searches"),
		profiles: db.Collection("user_profiles"),
		ttl:      cfg.TTL,
	}

	// Mongo removes documents once expiresAt has passed.
	_, err = s.flights.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys:    bson.M{"expiresAt": 1},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	return s, nil
}

func (s *MongoStore) SaveFlights(ctx context.Context, key string, flights []models.Flight) error {
	now := time.Now().UTC()
	_, err := s.flights.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{
			"flights":   flights,
			"storedAt":  now,
			"expiresAt": now.Add(s.ttl),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) GetFlights(ctx context.Context, key string) ([]models.Flight, bool, error) {
	var doc flightsDocument
	err := s.flights.FindOne(ctx, bson.M{"_id": key, "expiresAt": bson.M{"$gt": time.Now().UTC()}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return doc.Flights, true, nil
}

func (s *MongoStore) GetProfile(ctx context.Context, id string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := s.profiles.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) UpsertProfile(ctx context.Context, profile *models.UserProfile) error {
	profile.UpdatedAt = time.Now().UTC()

	updateDoc := bson.M{
		"preferences":   profile.Preferences,
		"travelHistory": profile.TravelHistory,
		"updatedAt":     profile.UpdatedAt,
	}

	_, err := s.profiles.UpdateOne(ctx,
		bson.M{"_id": profile.ID},
		bson.M{"$set": updateDoc},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) DeleteProfile(ctx context.Context, id string) error {
	res, err := s.profiles.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
