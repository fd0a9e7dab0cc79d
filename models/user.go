package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tailorbook-backend/utils"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	Email    string    `gorm:"uniqueIndex;not null"`
	Password string    `gorm:"not null"`
	Name     string    `gorm:"not null"`
	Phone    string

	// IsApproved gates access to the /api group. New accounts wait for
	// manual approval by the operator.
	IsApproved bool `gorm:"default:false"`
	// AutoBackup opts this user into the nightly cloud backup job.
	AutoBackup bool `gorm:"default:false"`

	LastLogin *time.Time
	IsActive  bool `gorm:"default:true"`

	gorm.Model
}

// Initialize UUID and hash the password before creating
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	u.ID = uuid.New()
	hashed, err := utils.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed
	return
}
