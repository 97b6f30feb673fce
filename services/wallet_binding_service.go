package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/rs/zerolog/log"

	"go.pilab.hu/idp/cache"
	"go.pilab.hu/idp/domain"
	"go.pilab.hu/idp/dto"
	"go.pilab.hu/idp/errors"
	"go.pilab.hu/idp/internal/audit"
	idcrypto "go.pilab.hu/idp/internal/crypto"
	"go.pilab.hu/idp/internal/metrics"
)

// BindingConfig carries the partner credential and the binding lifetimes.
type BindingConfig struct {
	AuthPartnerID  string
	AuthLicenseKey string
	KeyExpireDays  int
	SaltLength     int
}

// WalletBindingService binds a device-held public key to a previously
// authenticated individual: it validates the binding transaction, drives
// the step-up authentication, upserts the key registry and returns the
// encrypted wallet binding id.
type WalletBindingService struct {
	txnStore   cache.BindingTransactionStore
	gateway    AuthenticationGateway
	registry   domain.PublicKeyRegistryRepository
	encryption EncryptionService
	cfg        BindingConfig
}

func NewWalletBindingService(
	txnStore cache.BindingTransactionStore,
	gateway AuthenticationGateway,
	registry domain.PublicKeyRegistryRepository,
	encryption EncryptionService,
	cfg BindingConfig,
) *WalletBindingService {
	return &WalletBindingService{
		txnStore:   txnStore,
		gateway:    gateway,
		registry:   registry,
		encryption: encryption,
		cfg:        cfg,
	}
}

// BindWallet validates the binding request, re-authenticates the individual
// through the gateway and upserts the public-key registry. All request
// validation happens before any external call, so a rejected request has no
// side effects.
func (s *WalletBindingService) BindWallet(ctx context.Context, req *dto.WalletBindingRequest) (*dto.WalletBindingResponse, error) {
	txn, err := s.txnStore.GetBindingTransaction(ctx, req.TransactionID)
	if err != nil {
		return nil, errors.NewInvalidTransaction()
	}

	if txn.IndividualID != req.IndividualID {
		return nil, errors.New(errors.InvalidIndividualID)
	}

	// Single-factor binding: only the first challenge is checked.
	if len(req.ChallengeList) == 0 || req.ChallengeList[0].AuthFactorType != txn.AuthChallengeType {
		return nil, errors.New(errors.InvalidAuthChallenge)
	}

	log.Info().Str("transactionID", txn.ID).Msg("Wallet binding request validated, starting authentication")

	result, err := s.authenticateIndividual(ctx, txn, req)
	if err != nil {
		audit.Log("binding", "bind_wallet", txn.ID, false, err)
		return nil, err
	}

	entry, err := s.storeData(ctx, req, result.PSUToken)
	if err != nil {
		audit.Log("binding", "bind_wallet", txn.ID, false, err)
		return nil, err
	}
	metrics.WalletBindingsTotal.Inc()
	audit.Log("binding", "bind_wallet", txn.ID, true, nil)

	encrypted, err := s.encryption.Encrypt([]byte(entry.WalletBindingID), req.PublicKey)
	if err != nil {
		// The registry row is already committed at this point; the caller
		// can fetch the binding id again without re-binding the key.
		return nil, err
	}

	return &dto.WalletBindingResponse{
		TransactionID:            req.TransactionID,
		ExpireDateTime:           idcrypto.FormatUTC(entry.ExpiresAt),
		EncryptedWalletBindingID: encrypted,
	}, nil
}

// SendBindingOtp starts an OTP-driven binding flow.
// Not implemented yet; reserved extension point.
func (s *WalletBindingService) SendBindingOtp(ctx context.Context) error {
	return errors.NewInvalidRequest("send binding otp is not supported")
}

// ValidateBinding checks an existing binding without re-binding.
// Not implemented yet; reserved extension point.
func (s *WalletBindingService) ValidateBinding(ctx context.Context) error {
	return errors.NewInvalidRequest("validate binding is not supported")
}

func (s *WalletBindingService) authenticateIndividual(ctx context.Context, txn *domain.BindingTransaction, req *dto.WalletBindingRequest) (*domain.KycAuthResult, error) {
	result, err := s.gateway.Authenticate(ctx, s.cfg.AuthPartnerID, s.cfg.AuthLicenseKey, &domain.KycAuthRequest{
		TransactionID: txn.AuthTransactionID,
		IndividualID:  req.IndividualID,
		Challenges:    req.ChallengeList,
	})
	if err != nil {
		var kycErr *errors.KycAuthError
		if stderrors.As(err, &kycErr) {
			log.Warn().Str("authTransactionID", txn.AuthTransactionID).Str("code", kycErr.Code).Msg("KYC auth rejected by provider")
			return nil, &errors.IdPError{Code: kycErr.Code}
		}
		log.Error().Err(err).Str("authTransactionID", txn.AuthTransactionID).Msg("KYC auth failed")
		return nil, errors.NewAuthFailed()
	}
	if result == nil || result.KycToken == "" || result.PSUToken == "" {
		log.Error().Str("authTransactionID", txn.AuthTransactionID).Msg("Authentication gateway returned empty tokens")
		return nil, errors.NewAuthFailed()
	}
	return result, nil
}

// storeData runs the registry upsert: duplicate-key pre-check, then update
// in place for a known PSU token or insert a fresh row with a newly salted
// wallet binding id. The store's unique indexes make the check-then-act
// race-safe; a losing concurrent writer gets duplicate_public_key.
func (s *WalletBindingService) storeData(ctx context.Context, req *dto.WalletBindingRequest, psuToken string) (*domain.PublicKeyRegistryEntry, error) {
	publicKey := string(req.PublicKey)
	publicKeyHash := idcrypto.GenerateB64Hash([]byte(publicKey))
	expiresAt := time.Now().UTC().AddDate(0, 0, s.cfg.KeyExpireDays)

	duplicate, err := s.registry.FindByPublicKeyHashExcludingPSUToken(ctx, publicKeyHash, psuToken)
	if err != nil {
		log.Error().Err(err).Msg("Public key registry lookup failed")
		return nil, errors.New(errors.ServerError)
	}
	if duplicate != nil {
		return nil, errors.New(errors.DuplicatePublicKey)
	}

	existing, err := s.registry.FindByPSUToken(ctx, psuToken)
	if err != nil {
		log.Error().Err(err).Msg("Public key registry lookup failed")
		return nil, errors.New(errors.ServerError)
	}

	if existing != nil {
		existing.PublicKey = publicKey
		existing.PublicKeyHash = publicKeyHash
		existing.ExpiresAt = expiresAt
		if err := s.registry.UpdateByPSUToken(ctx, psuToken, publicKey, publicKeyHash, expiresAt); err != nil {
			if stderrors.Is(err, domain.ErrDuplicateEntry) {
				return nil, errors.New(errors.DuplicatePublicKey)
			}
			log.Error().Err(err).Msg("Public key registry update failed")
			return nil, errors.New(errors.ServerError)
		}
		log.Info().Msg("Existing wallet binding updated")
		return existing, nil
	}

	salt, err := idcrypto.GenerateSalt(s.cfg.SaltLength)
	if err != nil {
		log.Error().Err(err).Msg("Salt generation failed")
		return nil, errors.New(errors.ServerError)
	}

	entry := &domain.PublicKeyRegistryEntry{
		IDHash:          idcrypto.GenerateB64Hash([]byte(req.IndividualID)),
		PSUToken:        psuToken,
		PublicKey:       publicKey,
		PublicKeyHash:   publicKeyHash,
		WalletBindingID: idcrypto.DigestWithSalt([]byte(psuToken), salt),
		CreatedAt:       time.Now().UTC(),
		ExpiresAt:       expiresAt,
	}
	if err := s.registry.Insert(ctx, entry); err != nil {
		if stderrors.Is(err, domain.ErrDuplicateEntry) {
			return nil, errors.New(errors.DuplicatePublicKey)
		}
		log.Error().Err(err).Msg("Public key registry insert failed")
		return nil, errors.New(errors.ServerError)
	}
	log.Info().Msg("New wallet binding stored")
	return entry, nil
}
