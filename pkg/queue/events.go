package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventPostCreated    EventType = "post_created"
	EventPostDeleted    EventType = "post_deleted"
	EventFollowCreated  EventType = "follow_created"
	EventFollowDeleted  EventType = "follow_deleted"
	EventLikeCreated    EventType = "like_created"
	EventLikeDeleted    EventType = "like_deleted"
	EventCommentCreated EventType = "comment_created"
	EventCommentDeleted EventType = "comment_deleted"
)

// Event is the envelope written to the events topic.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// RawEvent is the consumer-side view of Event with Data left undecoded.
type RawEvent struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func NewEvent(t EventType, data interface{}) Event {
	return Event{Type: t, Timestamp: time.Now().UTC(), Data: data}
}

func DecodeEvent(value []byte) (RawEvent, error) {
	var ev RawEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return RawEvent{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if ev.Type == "" {
		return RawEvent{}, fmt.Errorf("failed to decode event: missing type")
	}
	return ev, nil
}

// DecodeData unmarshals the event payload into dest.
func (e RawEvent) DecodeData(dest interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no data", e.Type)
	}
	return json.Unmarshal(e.Data, dest)
}

type PostEventData struct {
	PostID    string `json:"post_id"`
	UserID    string `json:"user_id"`
	Fragrance string `json:"fragrance"`
	Brand     string `json:"brand"`
	CreatedAt string `json:"created_at,omitempty"`
}

type FollowEventData struct {
	FollowerID  string `json:"follower_id"`
	FollowingID string `json:"following_id"`
}

// LikeEventData covers post and comment likes; exactly one of PostID and
// CommentID identifies the subject, PostID is always set for post likes.
type LikeEventData struct {
	UserID    string `json:"user_id"`
	PostID    string `json:"post_id,omitempty"`
	CommentID string `json:"comment_id,omitempty"`
}

type CommentEventData struct {
	CommentID string `json:"comment_id"`
	UserID    string `json:"user_id"`
	PostID    string `json:"post_id"`
	ParentID  string `json:"parent_id,omitempty"`
}
