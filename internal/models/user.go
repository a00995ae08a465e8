package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID              uuid.UUID          `json:"id" gorm:"type:uuid;primary_key"`
	Username        string             `json:"username" gorm:"size:50;uniqueIndex;not null"`
	Email           string             `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash    string             `json:"-" gorm:"not null"`
	Bio             string             `json:"bio" gorm:"size:500"`
	ProfileImageURL string             `json:"profile_image_url"`
	CoverImageURL   string             `json:"cover_image_url"`
	Signature       SignatureFragrance `json:"signature_fragrance" gorm:"embedded;embeddedPrefix:signature_"`
	LastActiveAt    *time.Time         `json:"last_active_at"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// SignatureFragrance is optional; an empty Name means the user has none.
type SignatureFragrance struct {
	Name  string `json:"name,omitempty" gorm:"size:100"`
	Brand string `json:"brand,omitempty" gorm:"size:100"`
}

func (s SignatureFragrance) IsSet() bool {
	return s.Name != ""
}

type Follow struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	FollowerID  uuid.UUID `json:"follower_id" gorm:"type:uuid;not null;uniqueIndex:idx_follows_pair;check:chk_follows_not_self,follower_id <> following_id"`
	FollowingID uuid.UUID `json:"following_id" gorm:"type:uuid;not null;uniqueIndex:idx_follows_pair;index"`
	CreatedAt   time.Time `json:"created_at"`

	Follower  *User `json:"-" gorm:"foreignKey:FollowerID;constraint:OnDelete:RESTRICT"`
	Following *User `json:"-" gorm:"foreignKey:FollowingID;constraint:OnDelete:RESTRICT"`
}

type RefreshToken struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Token     string    `json:"-" gorm:"size:128;uniqueIndex;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Revoked   bool      `json:"revoked" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Usable reports whether the token can still be exchanged at now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// UserProfile is the read model returned for a profile page.
type UserProfile struct {
	User
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
	PostsCount     int64 `json:"posts_count"`
	IsFollowing    bool  `json:"is_following"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (User) TableName() string {
	return "users"
}

func (Follow) TableName() string {
	return "follows"
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
