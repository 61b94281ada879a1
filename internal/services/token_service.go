package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"gorm.io/gorm"
)

// TokenChars is the alphabet access tokens are drawn from
const TokenChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890-._~+/"

// DefaultTokenLength is the number of characters in a generated access token
const DefaultTokenLength = 40

// ErrCodeConsumed is returned when the code was deleted by a concurrent exchange
var ErrCodeConsumed = errors.New("authorization code already consumed")

// TokenService persists access tokens
type TokenService interface {
	GetTokenByValue(ctx context.Context, value string) (*models.AuthToken, error)
	// ExchangeCode stores token with a fresh unique value and deletes code in the
	// same transaction. Only one exchange of a given code can commit.
	ExchangeCode(ctx context.Context, code *models.AuthCode, token *models.AuthToken) error
}

type tokenService struct {
	db     *gorm.DB
	length int
}

func NewTokenService(db *gorm.DB, length int) TokenService {
	if length <= 0 {
		length = DefaultTokenLength
	}
	return &tokenService{db: db, length: length}
}

func (s *tokenService) GetTokenByValue(ctx context.Context, value string) (*models.AuthToken, error) {
	var token models.AuthToken
	if err := s.db.WithContext(ctx).Preload("Scopes").Preload("Member").Preload("Client").Where("code = ?", value).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (s *tokenService) ExchangeCode(ctx context.Context, code *models.AuthCode, token *models.AuthToken) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		value, err := s.uniqueValue(tx)
		if err != nil {
			return err
		}
		token.Code = value
		if err := tx.Omit("Client", "Member").Create(token).Error; err != nil {
			return fmt.Errorf("creating access token: %w", err)
		}

		// The delete is the compare step: a racing exchange that already removed
		// the row leaves nothing to delete and this transaction rolls back.
		if err := tx.Model(&models.AuthCode{ID: code.ID}).Association("Scopes").Clear(); err != nil {
			return fmt.Errorf("deleting authorization code scopes: %w", err)
		}
		result := tx.Where("id = ? AND code = ?", code.ID, code.Code).Delete(&models.AuthCode{})
		if result.Error != nil {
			return fmt.Errorf("deleting authorization code: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrCodeConsumed
		}
		return nil
	})
}

func (s *tokenService) uniqueValue(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		value, err := randomToken(s.length)
		if err != nil {
			return "", fmt.Errorf("generating access token: %w", err)
		}
		var count int64
		if err := tx.Model(&models.AuthToken{}).Where("code = ?", value).Count(&count).Error; err != nil {
			return "", fmt.Errorf("checking access token: %w", err)
		}
		if count == 0 {
			return value, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique access token after %d attempts", maxGenerateAttempts)
}

func randomToken(length int) (string, error) {
	max := big.NewInt(int64(len(TokenChars)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = TokenChars[n.Int64()]
	}
	return string(buf), nil
}
