package poll

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Poll represents a timed group poll for selecting an item from
// member-submitted nominations. Guild and channel references are opaque
// identifiers handed to us by the messaging gateway.
type Poll struct {
	ID                 uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	GuildID            string       `json:"guild_id" gorm:"not null;index"`
	ChannelID          string       `json:"channel_id" gorm:"not null"`
	Title              string       `json:"title" gorm:"not null"`
	CreatorID          string       `json:"creator_id" gorm:"not null"`
	Phase              Phase        `json:"phase" gorm:"type:varchar(16);not null;default:'nomination'"`
	Method             Method       `json:"method" gorm:"type:varchar(16);not null"`
	NominationDeadline time.Time    `json:"nomination_deadline" gorm:"not null"`
	VotingDeadline     time.Time    `json:"voting_deadline" gorm:"not null"`
	Results            *TallyResult `json:"results,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt          time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (Poll) TableName() string {
	return "polls"
}

// BeforeCreate sets a UUID before creating the record
func (p *Poll) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// NewPoll creates a new poll in the Nomination phase
func NewPoll(guildID, channelID, title, creatorID string, method Method, nominationDeadline, votingDeadline time.Time) *Poll {
	return &Poll{
		ID:                 uuid.New(),
		GuildID:            guildID,
		ChannelID:          channelID,
		Title:              title,
		CreatorID:          creatorID,
		Phase:              PhaseNomination,
		Method:             method,
		NominationDeadline: nominationDeadline,
		VotingDeadline:     votingDeadline,
		CreatedAt:          time.Now(),
	}
}

// Validate checks if the poll data is valid
func (p *Poll) Validate() error {
	if p.GuildID == "" {
		return fmt.Errorf("guild_id is required")
	}
	if p.ChannelID == "" {
		return fmt.Errorf("channel_id is required")
	}
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if p.CreatorID == "" {
		return fmt.Errorf("creator_id is required")
	}
	return nil
}

// ValidateSchedule checks the deadline ordering against the given instant.
// The nomination deadline must be strictly in the future and the voting
// deadline strictly after it.
func (p *Poll) ValidateSchedule(now time.Time) error {
	if !p.NominationDeadline.After(now) {
		return fmt.Errorf("%w: nomination deadline must be in the future", ErrInvalidSchedule)
	}
	if !p.VotingDeadline.After(p.NominationDeadline) {
		return fmt.Errorf("%w: voting deadline must be after the nomination deadline", ErrInvalidSchedule)
	}
	return nil
}

// IsCreator checks if the given user ID created this poll
func (p *Poll) IsCreator(userID string) bool {
	return p.CreatorID == userID
}

// Active reports whether the poll still accepts nominations or votes
func (p *Poll) Active() bool {
	return p.Phase != PhaseCompleted
}

// NominationOverdue reports whether the nomination deadline has passed
func (p *Poll) NominationOverdue(now time.Time) bool {
	return p.Phase == PhaseNomination && now.After(p.NominationDeadline)
}

// VotingOverdue reports whether the voting deadline has passed
func (p *Poll) VotingOverdue(now time.Time) bool {
	return p.Phase == PhaseVoting && now.After(p.VotingDeadline)
}

// CanTransitionTo checks if the poll can transition to a new phase.
// Phases only ever advance forward.
func (p *Poll) CanTransitionTo(newPhase Phase) bool {
	transitions := map[Phase][]Phase{
		PhaseNomination: {PhaseVoting},
		PhaseVoting:     {PhaseCompleted},
		PhaseCompleted:  {}, // NOTE: Completed is terminal
	}

	allowed, exists := transitions[p.Phase]
	if !exists {
		return false
	}

	return slices.Contains(allowed, newPhase)
}

// Phase represents the current phase of a poll
type Phase byte

const (
	PhaseNomination Phase = iota
	PhaseVoting
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseNomination:
		return "nomination"
	case PhaseVoting:
		return "voting"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaler interface
func (p Phase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (p *Phase) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}

	phase, valid := PhaseFromString(str)
	if !valid {
		return fmt.Errorf("invalid phase: %s", str)
	}
	*p = phase
	return nil
}

// PhaseFromString converts a string to a Phase
func PhaseFromString(s string) (Phase, bool) {
	switch s {
	case "nomination":
		return PhaseNomination, true
	case "voting":
		return PhaseVoting, true
	case "completed":
		return PhaseCompleted, true
	default:
		return PhaseNomination, false
	}
}

// Scan implements the sql.Scanner interface for database deserialization
func (p *Phase) Scan(value interface{}) error {
	if value == nil {
		*p = PhaseNomination
		return nil
	}

	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("cannot scan %T into Phase", value)
	}

	phase, valid := PhaseFromString(str)
	if !valid {
		return fmt.Errorf("invalid phase value: %s", str)
	}
	*p = phase
	return nil
}

// Value implements the driver.Valuer interface for database serialization
func (p Phase) Value() (driver.Value, error) {
	return p.String(), nil
}

// Method represents the preference-aggregation method of a poll
type Method byte

const (
	// MethodRankedChoice is instant-runoff voting over a full preference order
	MethodRankedChoice Method = iota
	// MethodWeightedTop3 scores the top three picks with 3/2/1 points
	MethodWeightedTop3
)

func (m Method) String() string {
	switch m {
	case MethodRankedChoice:
		return "ranked_choice"
	case MethodWeightedTop3:
		return "weighted_top3"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaler interface
func (m Method) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (m *Method) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}

	method, valid := MethodFromString(str)
	if !valid {
		return fmt.Errorf("invalid tally method: %s", str)
	}
	*m = method
	return nil
}

// MethodFromString converts a string to a Method
func MethodFromString(s string) (Method, bool) {
	switch s {
	case "ranked_choice":
		return MethodRankedChoice, true
	case "weighted_top3":
		return MethodWeightedTop3, true
	default:
		return MethodRankedChoice, false
	}
}

// Scan implements the sql.Scanner interface for database deserialization
func (m *Method) Scan(value interface{}) error {
	if value == nil {
		*m = MethodRankedChoice
		return nil
	}

	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("cannot scan %T into Method", value)
	}

	method, valid := MethodFromString(str)
	if !valid {
		return fmt.Errorf("invalid tally method value: %s", str)
	}
	*m = method
	return nil
}

// Value implements the driver.Valuer interface for database serialization
func (m Method) Value() (driver.Value, error) {
	return m.String(), nil
}
