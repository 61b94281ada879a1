package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/go-oauth2/oauth2/v4/generates"
	oauthmodels "github.com/go-oauth2/oauth2/v4/models"
	"gorm.io/gorm"
)

// maxGenerateAttempts bounds every generate-and-recheck loop in this package.
// The unique indexes are the real guarantee; the loop only avoids obvious collisions.
const maxGenerateAttempts = 5

// CodeService persists authorization codes
type CodeService interface {
	// CreateCode assigns a fresh unique code value and stores the code with its scopes
	CreateCode(ctx context.Context, code *models.AuthCode) error
	GetCodeByValue(ctx context.Context, value string) (*models.AuthCode, error)
}

type codeService struct {
	db        *gorm.DB
	generator oauth2.AuthorizeGenerate
}

func NewCodeService(db *gorm.DB) CodeService {
	return &codeService{db: db, generator: generates.NewAuthorizeGenerate()}
}

func (s *codeService) CreateCode(ctx context.Context, code *models.AuthCode) error {
	basic := &oauth2.GenerateBasic{
		Client:   &oauthmodels.Client{ID: strconv.FormatUint(uint64(code.ClientID), 10)},
		UserID:   strconv.FormatUint(uint64(code.MemberID), 10),
		CreateAt: time.Now(),
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		value, err := s.generator.Token(ctx, basic)
		if err != nil {
			return fmt.Errorf("generating authorization code: %w", err)
		}
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.AuthCode{}).Where("code = ?", value).Count(&count).Error; err != nil {
			return fmt.Errorf("checking authorization code: %w", err)
		}
		if count == 0 {
			code.Code = value
			return s.db.WithContext(ctx).Omit("Client", "Member").Create(code).Error
		}
	}
	return fmt.Errorf("could not generate a unique authorization code after %d attempts", maxGenerateAttempts)
}

func (s *codeService) GetCodeByValue(ctx context.Context, value string) (*models.AuthCode, error) {
	var code models.AuthCode
	if err := s.db.WithContext(ctx).Preload("Client").Preload("Scopes").Where("code = ?", value).First(&code).Error; err != nil {
		return nil, err
	}
	return &code, nil
}
