package services

import (
	"context"

	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"gorm.io/gorm"
)

// ScopeService is the scope catalog
type ScopeService interface {
	CreateScope(ctx context.Context, scope *models.Scope) error
	GetScopesByNames(ctx context.Context, names []string) ([]models.Scope, error)
	GetDefaultScopes(ctx context.Context) ([]models.Scope, error)
}

type scopeService struct {
	db *gorm.DB
}

func NewScopeService(db *gorm.DB) ScopeService {
	return &scopeService{db: db}
}

func (s *scopeService) CreateScope(ctx context.Context, scope *models.Scope) error {
	return s.db.WithContext(ctx).Create(scope).Error
}

func (s *scopeService) GetScopesByNames(ctx context.Context, names []string) ([]models.Scope, error) {
	var scopes []models.Scope
	if len(names) == 0 {
		return scopes, nil
	}
	if err := s.db.WithContext(ctx).Where("name IN ?", names).Order("id").Find(&scopes).Error; err != nil {
		return nil, err
	}
	return scopes, nil
}

func (s *scopeService) GetDefaultScopes(ctx context.Context) ([]models.Scope, error) {
	var scopes []models.Scope
	if err := s.db.WithContext(ctx).Where("is_default = ?", true).Order("id").Find(&scopes).Error; err != nil {
		return nil, err
	}
	return scopes, nil
}
