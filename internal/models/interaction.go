package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubjectKind names what a like targets.
type SubjectKind string

const (
	SubjectPost    SubjectKind = "post"
	SubjectComment SubjectKind = "comment"
)

func (k SubjectKind) Valid() bool {
	return k == SubjectPost || k == SubjectComment
}

type PostLike struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	PostID    uuid.UUID `json:"post_id" gorm:"type:uuid;not null;uniqueIndex:idx_post_likes_pair"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_post_likes_pair;index"`
	CreatedAt time.Time `json:"created_at"`

	Post *Post `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
}

type CommentLike struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	CommentID uuid.UUID `json:"comment_id" gorm:"type:uuid;not null;uniqueIndex:idx_comment_likes_pair"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_comment_likes_pair;index"`
	CreatedAt time.Time `json:"created_at"`

	Comment *Comment `json:"-" gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE"`
	User    *User    `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
}

type SavedPost struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	PostID    uuid.UUID `json:"post_id" gorm:"type:uuid;not null;uniqueIndex:idx_saved_posts_pair"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_saved_posts_pair;index"`
	CreatedAt time.Time `json:"created_at"`

	Post *Post `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
}

func (l *PostLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func (l *CommentLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func (s *SavedPost) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (PostLike) TableName() string {
	return "post_likes"
}

func (CommentLike) TableName() string {
	return "comment_likes"
}

func (SavedPost) TableName() string {
	return "saved_posts"
}
