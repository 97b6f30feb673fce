package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"go.pilab.hu/idp/domain"
)

// ErrClientNotFound is returned when no relying party is registered under
// the requested client id.
var ErrClientNotFound = errors.New("client not found")

// ClientRepositoryMongo implements domain.ClientRepository using MongoDB.
type ClientRepositoryMongo struct {
	collection *mongo.Collection
}

func NewClientRepositoryMongo(db *mongo.Database) *ClientRepositoryMongo {
	return &ClientRepositoryMongo{
		collection: db.Collection(ClientsCollection),
	}
}

// GetClient retrieves a registered relying party by id.
func (r *ClientRepositoryMongo) GetClient(ctx context.Context, clientID string) (*domain.Client, error) {
	var cli domain.Client
	err := r.collection.FindOne(ctx, bson.M{"_id": clientID}).Decode(&cli)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrClientNotFound
		}
		log.Error().Err(err).Str("clientID", clientID).Msg("Error retrieving client")
		return nil, fmt.Errorf("failed to retrieve client: %w", err)
	}
	return &cli, nil
}

// RegisterClient stores a relying party. Used by provisioning tooling, not
// by the authorization flow itself.
func (r *ClientRepositoryMongo) RegisterClient(ctx context.Context, cli *domain.Client) error {
	if cli.ID == "" {
		return errors.New("client id cannot be empty")
	}
	if cli.CreatedAt.IsZero() {
		cli.CreatedAt = time.Now().UTC()
	}
	if cli.Status == "" {
		cli.Status = domain.ClientStatusActive
	}

	if _, err := r.collection.InsertOne(ctx, cli); err != nil {
		log.Error().Err(err).Str("clientID", cli.ID).Msg("Error registering client")
		return fmt.Errorf("failed to register client: %w", err)
	}
	return nil
}

var _ domain.ClientRepository = (*ClientRepositoryMongo)(nil)
