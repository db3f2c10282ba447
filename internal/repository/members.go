package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/models"
)

// MemberStore looks up club members for authentication.
type MemberStore struct {
	db *gorm.DB
}

func NewMemberStore(db *gorm.DB) *MemberStore {
	return &MemberStore{db: db}
}

// FindByClerkID returns the member linked to a Clerk user, or matches.ErrNotFound.
func (s *MemberStore) FindByClerkID(ctx context.Context, clerkID string) (*models.Member, error) {
	var m models.Member
	if err := s.db.WithContext(ctx).Where("clerk_id = ?", clerkID).First(&m).Error; err != nil {
		return nil, notFound(err, "member")
	}
	return &m, nil
}
