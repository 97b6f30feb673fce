package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go.pilab.hu/idp/domain"
)

// PublicKeyRegistryRepositoryMongo implements
// domain.PublicKeyRegistryRepository using MongoDB.
//
// Two unique indexes back the registry invariants: psu_token (one binding
// per individual) and public_key_hash (one individual per device key). The
// read-side duplicate check in the service is advisory; racing writers are
// resolved here, at commit time, via index conflicts.
type PublicKeyRegistryRepositoryMongo struct {
	collection *mongo.Collection
}

// NewPublicKeyRegistryRepositoryMongo creates the repository and ensures
// the indexes exist.
func NewPublicKeyRegistryRepositoryMongo(db *mongo.Database) (*PublicKeyRegistryRepositoryMongo, error) {
	repo := &PublicKeyRegistryRepositoryMongo{
		collection: db.Collection(PublicKeyRegistryCollection),
	}

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "psu_token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "public_key_hash", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := repo.collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		log.Error().Err(err).Msg("Failed to create indexes for public_key_registry collection")
		return nil, err
	}
	log.Info().Msg("Indexes for public_key_registry collection ensured.")
	return repo, nil
}

// FindByPublicKeyHashExcludingPSUToken returns a row that already holds the
// given key hash under a different PSU token, or nil when the hash is free.
func (r *PublicKeyRegistryRepositoryMongo) FindByPublicKeyHashExcludingPSUToken(ctx context.Context, publicKeyHash, psuToken string) (*domain.PublicKeyRegistryEntry, error) {
	filter := bson.M{
		"public_key_hash": publicKeyHash,
		"psu_token":       bson.M{"$ne": psuToken},
	}

	var entry domain.PublicKeyRegistryEntry
	err := r.collection.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		log.Error().Err(err).Msg("Error querying public key registry by key hash")
		return nil, err
	}
	return &entry, nil
}

// FindByPSUToken returns the existing binding for the PSU token, or nil.
func (r *PublicKeyRegistryRepositoryMongo) FindByPSUToken(ctx context.Context, psuToken string) (*domain.PublicKeyRegistryEntry, error) {
	var entry domain.PublicKeyRegistryEntry
	err := r.collection.FindOne(ctx, bson.M{"psu_token": psuToken}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		log.Error().Err(err).Msg("Error querying public key registry by PSU token")
		return nil, err
	}
	return &entry, nil
}

// UpdateByPSUToken replaces the key material and expiry of an existing
// binding. The wallet binding id and id hash stay untouched: rebinding
// rotates the key, not the identity handle.
func (r *PublicKeyRegistryRepositoryMongo) UpdateByPSUToken(ctx context.Context, psuToken, publicKey, publicKeyHash string, expiresAt time.Time) error {
	filter := bson.M{"psu_token": psuToken}
	update := bson.M{"$set": bson.M{
		"public_key":      publicKey,
		"public_key_hash": publicKeyHash,
		"expires_at":      expiresAt,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEntry
		}
		log.Error().Err(err).Msg("Error updating public key registry entry")
		return err
	}
	if result.MatchedCount == 0 {
		return errors.New("public key registry entry not found for update")
	}
	return nil
}

// Insert stores a new binding row. A concurrent insert for the same key
// hash or PSU token loses the race and surfaces as domain.ErrDuplicateEntry.
func (r *PublicKeyRegistryRepositoryMongo) Insert(ctx context.Context, entry *domain.PublicKeyRegistryEntry) error {
	if entry.PSUToken == "" {
		return errors.New("public key registry entry PSU token cannot be empty")
	}

	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEntry
		}
		log.Error().Err(err).Msg("Error inserting public key registry entry")
		return err
	}
	return nil
}

// Ensure PublicKeyRegistryRepositoryMongo implements domain.PublicKeyRegistryRepository
var _ domain.PublicKeyRegistryRepository = (*PublicKeyRegistryRepositoryMongo)(nil)
