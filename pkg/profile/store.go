package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// User mirrors the columns of the shared users table that resolution needs.
type User struct {
	ID     uint   `gorm:"primaryKey;column:id"`
	Email  string `gorm:"column:email;uniqueIndex"`
	Gender string `gorm:"column:gender"`
}

// TableName overrides gorm naming.
func (User) TableName() string {
	return "users"
}

// Store reads gender from the relational users table.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Gender(ctx context.Context, identifier string) (string, error) {
	var user User
	err := s.db.WithContext(ctx).
		Select("gender").
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(identifier))).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrProfileNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query users: %w", err)
	}
	return user.Gender, nil
}
