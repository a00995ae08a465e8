package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MaxCommentLength = 1000

// Comment forms a tree through ParentID; root comments have a nil parent.
type Comment struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	PostID    uuid.UUID  `json:"post_id" gorm:"type:uuid;not null;index:idx_comments_post_parent"`
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	ParentID  *uuid.UUID `json:"parent_id" gorm:"type:uuid;index:idx_comments_post_parent;index"`
	Text      string     `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Author *User    `json:"author,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	Post   *Post    `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	Parent *Comment `json:"-" gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`

	LikesCount   int64 `json:"likes_count" gorm:"-"`
	RepliesCount int64 `json:"replies_count" gorm:"-"`
	IsLiked      bool  `json:"is_liked" gorm:"-"`
	CanEdit      bool  `json:"can_edit" gorm:"-"`
	CanDelete    bool  `json:"can_delete" gorm:"-"`
}

func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (Comment) TableName() string {
	return "comments"
}
