package poll

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Nomination represents a candidate item submitted by a member during the
// Nomination phase. The partial unique index keeps non-privileged users at
// one active nomination per poll; the constraint lives in the store so two
// concurrent submissions cannot both succeed.
type Nomination struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	PollID      uuid.UUID `json:"poll_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_nominations_poll_nominator,where:privileged = false"`
	Title       string    `json:"title" gorm:"not null"`
	Author      string    `json:"author,omitempty"`
	Link        string    `json:"link,omitempty"`
	NominatorID string    `json:"nominator_id" gorm:"not null;uniqueIndex:idx_nominations_poll_nominator"`
	Username    string    `json:"username" gorm:"not null"`
	Privileged  bool      `json:"privileged" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName overrides the table name used by GORM
func (Nomination) TableName() string {
	return "nominations"
}

// BeforeCreate sets a UUID before creating the record
func (n *Nomination) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// NewNomination creates a new nomination for the given poll
func NewNomination(pollID uuid.UUID, title, author, link, nominatorID, username string, privileged bool) *Nomination {
	return &Nomination{
		ID:          uuid.New(),
		PollID:      pollID,
		Title:       title,
		Author:      author,
		Link:        link,
		NominatorID: nominatorID,
		Username:    username,
		Privileged:  privileged,
		CreatedAt:   time.Now(),
	}
}

// Validate checks if the nomination data is valid
func (n *Nomination) Validate() error {
	if n.PollID == uuid.Nil {
		return fmt.Errorf("poll_id is required")
	}
	if n.Title == "" {
		return fmt.Errorf("title is required")
	}
	if n.NominatorID == "" {
		return fmt.Errorf("nominator_id is required")
	}
	return nil
}

// IsNominator checks if the given user ID submitted this nomination
func (n *Nomination) IsNominator(userID string) bool {
	return n.NominatorID == userID
}

// NominationEdit carries the fields of an edit request. Nil pointers mean
// "leave unchanged".
type NominationEdit struct {
	Title  *string `json:"title,omitempty"`
	Author *string `json:"author,omitempty"`
	Link   *string `json:"link,omitempty"`
}

// Empty reports whether the edit carries no fields at all
func (e NominationEdit) Empty() bool {
	return e.Title == nil && e.Author == nil && e.Link == nil
}

// Apply applies the edit to the nomination and reports whether any field
// actually changed value.
func (n *Nomination) Apply(edit NominationEdit) bool {
	changed := false
	if edit.Title != nil && *edit.Title != n.Title {
		n.Title = *edit.Title
		changed = true
	}
	if edit.Author != nil && *edit.Author != n.Author {
		n.Author = *edit.Author
		changed = true
	}
	if edit.Link != nil && *edit.Link != n.Link {
		n.Link = *edit.Link
		changed = true
	}
	return changed
}
