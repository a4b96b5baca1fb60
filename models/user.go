package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// User identifies who recorded a document. Authentication lives outside this
// service; the id arrives on the request context.
type User struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Username    string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	DisplayName string    `gorm:"size:200" json:"display_name"`
	Active      *bool     `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetUser(ctx context.Context, db *gorm.DB, id int) (*User, error) {
	var user User
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "user", Id: id}
		}
		return nil, err
	}
	return &user, nil
}
