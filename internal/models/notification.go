package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationFollow  NotificationType = "follow"
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationMention NotificationType = "mention"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationFollow, NotificationLike, NotificationComment, NotificationMention:
		return true
	}
	return false
}

// NotificationContent is the tagged payload stored in Notification.Content.
// Type is the discriminator; the optional fields depend on it.
type NotificationContent struct {
	Type           NotificationType `json:"type"`
	Action         string           `json:"action"`
	PostTitle      string           `json:"post_title,omitempty"`
	CommentExcerpt string           `json:"comment_excerpt,omitempty"`
}

// Notification moves from unread to read and never back.
type Notification struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primary_key"`
	RecipientID uuid.UUID        `json:"recipient_id" gorm:"type:uuid;not null;index:idx_notifications_recipient"`
	ActorID     uuid.UUID        `json:"actor_id" gorm:"type:uuid;not null;index"`
	Type        NotificationType `json:"type" gorm:"size:20;not null"`
	PostID      *uuid.UUID       `json:"post_id,omitempty" gorm:"type:uuid;index"`
	CommentID   *uuid.UUID       `json:"comment_id,omitempty" gorm:"type:uuid;index"`
	Content     datatypes.JSON   `json:"-"`
	Read        bool             `json:"read" gorm:"not null;default:false;index:idx_notifications_recipient"`
	CreatedAt   time.Time        `json:"created_at"`

	Payload NotificationContent `json:"content" gorm:"-"`

	Recipient *User    `json:"-" gorm:"foreignKey:RecipientID;constraint:OnDelete:RESTRICT"`
	Actor     *User    `json:"actor,omitempty" gorm:"foreignKey:ActorID;constraint:OnDelete:RESTRICT"`
	Post      *Post    `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:SET NULL"`
	Comment   *Comment `json:"-" gorm:"foreignKey:CommentID;constraint:OnDelete:SET NULL"`
}

var ErrEmptyContent = errors.New("notification content is empty")

func EncodeContent(c NotificationContent) (datatypes.JSON, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// DecodeContent returns the stored payload. Callers should treat an error as
// an empty payload.
func (n *Notification) DecodeContent() (NotificationContent, error) {
	if len(n.Content) == 0 {
		return NotificationContent{}, ErrEmptyContent
	}
	var c NotificationContent
	if err := json.Unmarshal(n.Content, &c); err != nil {
		return NotificationContent{}, err
	}
	return c, nil
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

func (Notification) TableName() string {
	return "notifications"
}
