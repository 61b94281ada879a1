package services

import (
	"context"
	"errors"

	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"gorm.io/gorm"
)

// ErrMemberExists is returned when registering an email that is already taken
var ErrMemberExists = errors.New("member_already_exists")

type MemberService interface {
	CreateMember(ctx context.Context, member *models.Member) error
	GetMemberByEmail(ctx context.Context, email string) (*models.Member, error)
	GetMemberByID(ctx context.Context, id uint) (*models.Member, error)
}

type memberService struct {
	db *gorm.DB
}

func NewMemberService(db *gorm.DB) MemberService {
	return &memberService{db: db}
}

func (s *memberService) CreateMember(ctx context.Context, member *models.Member) error {
	var existing models.Member
	if err := s.db.WithContext(ctx).Where("email = ?", member.Email).First(&existing).Error; err == nil {
		return ErrMemberExists
	}
	return s.db.WithContext(ctx).Create(member).Error
}

func (s *memberService) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	var member models.Member
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *memberService) GetMemberByID(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	if err := s.db.WithContext(ctx).First(&member, id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}
