package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Trip status values. Upcoming/Ongoing/Finished are derived from dates and
// never stored; Settled is the only persisted status bit.
const (
	TripStatusUpcoming = "upcoming"
	TripStatusOngoing  = "ongoing"
	TripStatusFinished = "finished"
	TripStatusSettled  = "settled"
)

const (
	ParticipantPending  = "pending"
	ParticipantAccepted = "accepted"
	ParticipantDeclined = "declined"
)

type Trip struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string            `gorm:"not null;size:200" json:"name"`
	BaseCurrency string            `gorm:"not null;size:3" json:"base_currency"`
	StartDate    time.Time         `gorm:"type:date;not null;index" json:"start_date"`
	EndDate      time.Time         `gorm:"type:date;not null;index" json:"end_date"`
	Settled      bool              `gorm:"not null;default:false" json:"settled"`
	SettledAt    *time.Time        `json:"settled_at,omitempty"`
	CreatedBy    uuid.UUID         `gorm:"type:uuid" json:"created_by"`
	Creator      User              `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Participants []TripParticipant `gorm:"foreignKey:TripID" json:"participants,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Status derives the trip state from the settled flag and the trip dates.
// Once settled the status is pinned regardless of the clock. The date
// comparison uses now's calendar date, so the status flips at the caller's
// midnight rather than at a UTC day boundary.
func (t *Trip) Status(now time.Time) string {
	if t.Settled {
		return TripStatusSettled
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if today.Before(t.StartDate) {
		return TripStatusUpcoming
	}
	if today.After(t.EndDate) {
		return TripStatusFinished
	}
	return TripStatusOngoing
}

type TripParticipant struct {
	TripID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"trip_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	IsCreator bool      `gorm:"not null;default:false" json:"is_creator"`
	Status    string    `gorm:"not null;default:pending;size:20" json:"status"` // pending, accepted, declined
	InvitedBy uuid.UUID `gorm:"type:uuid" json:"invited_by,omitempty"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// Request structs
type CreateTripRequest struct {
	Name         string `json:"name" binding:"required"`
	BaseCurrency string `json:"base_currency"`
	StartDate    string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate      string `json:"end_date" binding:"required"`   // YYYY-MM-DD
}

type InviteParticipantRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Response structs
type TripResponse struct {
	ID           uuid.UUID             `json:"id"`
	Name         string                `json:"name"`
	BaseCurrency string                `json:"base_currency"`
	StartDate    string                `json:"start_date"`
	EndDate      string                `json:"end_date"`
	Status       string                `json:"status"`
	SettledAt    *time.Time            `json:"settled_at,omitempty"`
	CreatedBy    uuid.UUID             `json:"created_by"`
	Participants []ParticipantResponse `json:"participants,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

type ParticipantResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsCreator bool      `json:"is_creator"`
	Status    string    `json:"status"`
	JoinedAt  time.Time `json:"joined_at"`
}
