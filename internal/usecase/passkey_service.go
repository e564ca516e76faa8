package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arjunn06/the-trade-zero-sub001/internal/domain"
)

type PasskeyService struct {
	passkeyRepo domain.PasskeyRepository
}

func NewPasskeyService(passkeyRepo domain.PasskeyRepository) (*PasskeyService, error) {
	if passkeyRepo == nil {
		return nil, errors.New("passkey repository required")
	}
	return &PasskeyService{
		passkeyRepo: passkeyRepo,
	}, nil
}

func (s *PasskeyService) AddPasskey(ctx context.Context, passkeyID, userID string) error {
	if passkeyID == "" {
		return errors.New("passkey id required")
	}
	if userID == "" {
		return errors.New("user id required")
	}

	exists, err := s.passkeyRepo.PasskeyExists(ctx, passkeyID)
	if err != nil {
		return fmt.Errorf("failed to check passkey existence: %w", err)
	}
	if exists {
		return errors.New("passkey already exists")
	}

	return s.passkeyRepo.AddPasskey(ctx, domain.Passkey{
		PasskeyID: passkeyID,
		UserID:    userID,
		Enabled:   true,
	})
}

func (s *PasskeyService) UpdatePasskeyStatus(ctx context.Context, passkeyID string, enabled bool) error {
	if passkeyID == "" {
		return errors.New("passkey id required")
	}

	return s.passkeyRepo.UpdatePasskeyStatus(ctx, passkeyID, enabled)
}

func (s *PasskeyService) PasskeyExists(ctx context.Context, passkeyID string) (bool, error) {
	if passkeyID == "" {
		return false, errors.New("passkey id required")
	}

	return s.passkeyRepo.PasskeyExists(ctx, passkeyID)
}

// Authenticate resolves a caller key to its user id. Unknown and disabled keys
// are both reported as ErrUnauthorized.
func (s *PasskeyService) Authenticate(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", domain.ErrUnauthorized
	}

	passkey, err := s.passkeyRepo.GetPasskey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrUnauthorized
		}
		return "", fmt.Errorf("load passkey: %w", err)
	}
	if !passkey.Enabled || passkey.UserID == "" {
		return "", domain.ErrUnauthorized
	}

	return passkey.UserID, nil
}
