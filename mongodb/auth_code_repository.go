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

// AuthCodeRepository stores issued authorization codes for the token
// endpoint to exchange later.
type AuthCodeRepository struct {
	authCodes *mongo.Collection
}

func NewAuthCodeRepository(db *mongo.Database) *AuthCodeRepository {
	return &AuthCodeRepository{
		authCodes: db.Collection(CodesCollection),
	}
}

func (r *AuthCodeRepository) SaveAuthCode(ctx context.Context, authCode *domain.AuthCode) error {
	if authCode.Code == "" {
		return errors.New("auth code value cannot be empty")
	}

	if authCode.CreatedAt.IsZero() {
		authCode.CreatedAt = time.Now().UTC()
	}
	_, err := r.authCodes.InsertOne(ctx, authCode)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("authorization code already exists: %w", err)
		}
		log.Error().Err(err).Msg("Error saving authorization code")
		return fmt.Errorf("failed to save authorization code: %w", err)
	}

	log.Debug().Str("transactionID", authCode.TransactionID).Msg("Authorization code saved")
	return nil
}

func (r *AuthCodeRepository) GetAuthCode(ctx context.Context, codeValue string) (*domain.AuthCode, error) {
	var authCode domain.AuthCode
	err := r.authCodes.FindOne(ctx, bson.M{"_id": codeValue}).Decode(&authCode)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.New("authorization code not found")
		}
		log.Error().Err(err).Msg("Error retrieving authorization code")
		return nil, fmt.Errorf("failed to retrieve authorization code: %w", err)
	}
	return &authCode, nil
}

func (r *AuthCodeRepository) MarkAuthCodeAsUsed(ctx context.Context, codeValue string) error {
	filter := bson.M{"_id": codeValue}
	update := bson.M{"$set": bson.M{"used": true}}
	result, err := r.authCodes.UpdateOne(ctx, filter, update)
	if err != nil {
		log.Error().Err(err).Msg("Error marking authorization code as used")
		return fmt.Errorf("failed to mark authorization code as used: %w", err)
	}
	if result.MatchedCount == 0 {
		return errors.New("authorization code not found")
	}
	return nil
}

var _ domain.AuthCodeRepository = (*AuthCodeRepository)(nil)
