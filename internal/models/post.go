package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NoteCategory string

const (
	NoteTop         NoteCategory = "top"
	NoteMiddle      NoteCategory = "middle"
	NoteBase        NoteCategory = "base"
	NoteUnspecified NoteCategory = "unspecified"
)

func (c NoteCategory) Valid() bool {
	switch c {
	case NoteTop, NoteMiddle, NoteBase, NoteUnspecified:
		return true
	}
	return false
}

const (
	DefaultRating   = 5
	DefaultSeason   = 3
	DefaultDayNight = 50
)

// Post wraps exactly one Fragrance. Counts and viewer flags are filled at
// read time and never stored.
type Post struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	Author    *User     `json:"author,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	Fragrance Fragrance `json:"fragrance" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`

	LikesCount    int64 `json:"likes_count" gorm:"-"`
	CommentsCount int64 `json:"comments_count" gorm:"-"`
	IsLiked       bool  `json:"is_liked" gorm:"-"`
	IsSaved       bool  `json:"is_saved" gorm:"-"`
}

type Fragrance struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	PostID      uuid.UUID `json:"post_id" gorm:"type:uuid;not null;uniqueIndex"`
	Name        string    `json:"name" gorm:"size:100;not null;index"`
	Brand       string    `json:"brand" gorm:"size:100;not null;index"`
	Category    string    `json:"category" gorm:"size:50"`
	Description string    `json:"description" gorm:"type:text"`
	Occasion    string    `json:"occasion" gorm:"size:100"`
	PhotoURL    string    `json:"photo_url"`
	DayNight    int       `json:"day_night" gorm:"not null"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`

	Notes   []FragranceNote   `json:"notes" gorm:"foreignKey:FragranceID;constraint:OnDelete:CASCADE"`
	Tags    []FragranceTag    `json:"tags" gorm:"foreignKey:FragranceID;constraint:OnDelete:CASCADE"`
	Accords []FragranceAccord `json:"accords" gorm:"foreignKey:FragranceID;constraint:OnDelete:CASCADE"`
	Ratings Ratings           `json:"ratings" gorm:"foreignKey:FragranceID;constraint:OnDelete:CASCADE"`
	Seasons Seasons           `json:"seasons" gorm:"foreignKey:FragranceID;constraint:OnDelete:CASCADE"`
}

type FragranceNote struct {
	ID          uuid.UUID    `json:"-" gorm:"type:uuid;primary_key"`
	FragranceID uuid.UUID    `json:"-" gorm:"type:uuid;not null;index"`
	Name        string       `json:"name" gorm:"size:100;not null"`
	Category    NoteCategory `json:"category" gorm:"size:20;not null"`
	Position    int          `json:"position" gorm:"not null"`
}

type FragranceTag struct {
	ID          uuid.UUID `json:"-" gorm:"type:uuid;primary_key"`
	FragranceID uuid.UUID `json:"-" gorm:"type:uuid;not null;uniqueIndex:idx_fragrance_tags_pair"`
	Name        string    `json:"name" gorm:"size:50;not null;uniqueIndex:idx_fragrance_tags_pair"`
}

type FragranceAccord struct {
	ID          uuid.UUID `json:"-" gorm:"type:uuid;primary_key"`
	FragranceID uuid.UUID `json:"-" gorm:"type:uuid;not null;uniqueIndex:idx_fragrance_accords_pair"`
	Name        string    `json:"name" gorm:"size:50;not null;uniqueIndex:idx_fragrance_accords_pair"`
}

// Ratings scores are 0-10.
type Ratings struct {
	ID          uuid.UUID `json:"-" gorm:"type:uuid;primary_key"`
	FragranceID uuid.UUID `json:"-" gorm:"type:uuid;not null;uniqueIndex"`
	Overall     int       `json:"overall" gorm:"not null"`
	Longevity   int       `json:"longevity" gorm:"not null"`
	Sillage     int       `json:"sillage" gorm:"not null"`
	Versatility int       `json:"versatility" gorm:"not null"`
	Value       int       `json:"value" gorm:"not null"`
}

// Seasons scores are 0-5.
type Seasons struct {
	ID          uuid.UUID `json:"-" gorm:"type:uuid;primary_key"`
	FragranceID uuid.UUID `json:"-" gorm:"type:uuid;not null;uniqueIndex"`
	Spring      int       `json:"spring" gorm:"not null"`
	Summer      int       `json:"summer" gorm:"not null"`
	Fall        int       `json:"fall" gorm:"not null"`
	Winter      int       `json:"winter" gorm:"not null"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (f *Fragrance) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (n *FragranceNote) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

func (t *FragranceTag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (a *FragranceAccord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (r *Ratings) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (s *Seasons) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (Post) TableName() string {
	return "posts"
}

func (Fragrance) TableName() string {
	return "fragrances"
}

func (FragranceNote) TableName() string {
	return "fragrance_notes"
}

func (FragranceTag) TableName() string {
	return "fragrance_tags"
}

func (FragranceAccord) TableName() string {
	return "fragrance_accords"
}

func (Ratings) TableName() string {
	return "fragrance_ratings"
}

func (Seasons) TableName() string {
	return "fragrance_seasons"
}
