package services

import (
	"context"

	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"gorm.io/gorm"
)

// ClientService is the client registry
type ClientService interface {
	CreateClient(ctx context.Context, client *models.Client) error
	GetClientByIdentifier(ctx context.Context, identifier string) (*models.Client, error)
	GetClientByID(ctx context.Context, id uint) (*models.Client, error)
	AddRedirectionURL(ctx context.Context, clientID uint, endpoint string) error
}

type clientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) ClientService {
	return &clientService{db: db}
}

func (s *clientService) CreateClient(ctx context.Context, client *models.Client) error {
	return s.db.WithContext(ctx).Create(client).Error
}

func (s *clientService) GetClientByIdentifier(ctx context.Context, identifier string) (*models.Client, error) {
	var client models.Client
	if err := s.db.WithContext(ctx).Preload("RedirectionURLs").Where("identifier = ?", identifier).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *clientService) GetClientByID(ctx context.Context, id uint) (*models.Client, error) {
	var client models.Client
	if err := s.db.WithContext(ctx).Preload("RedirectionURLs").First(&client, id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *clientService) AddRedirectionURL(ctx context.Context, clientID uint, endpoint string) error {
	return s.db.WithContext(ctx).Create(&models.RedirectionURL{ClientID: clientID, Endpoint: endpoint}).Error
}
