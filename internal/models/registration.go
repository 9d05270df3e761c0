package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Registration represents a confirmed or pending guest registration
type Registration struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID     string             `bson:"event_id" json:"event_id"`
	GuestName   string             `bson:"guest_name" json:"guest_name"`
	Email       string             `bson:"email" json:"email"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	TicketCode  string             `bson:"ticket_code,omitempty" json:"ticket_code,omitempty"`
	QRCodeURL   string             `bson:"qr_code_url,omitempty" json:"qr_code_url,omitempty"`
	Source      string             `bson:"source,omitempty" json:"source,omitempty"`
	CheckedIn   bool               `bson:"checked_in" json:"checked_in"`
	CheckedInAt *time.Time         `bson:"checked_in_at,omitempty" json:"checked_in_at,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// RegistrationRequest is the request body for creating a registration
type RegistrationRequest struct {
	GuestName string `json:"guest_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone,omitempty"`
}

// RegistrationResponse is the caller-facing envelope for the write path.
// Success is true even when the write was deferred; degraded service shows
// up only as FallbackUsed/EmergencyTicket/EstimatedTime.
type RegistrationResponse struct {
	Success         bool          `json:"success"`
	Data            *Registration `json:"data,omitempty"`
	Message         string        `json:"message"`
	Processing      bool          `json:"processing,omitempty"`
	FallbackUsed    bool          `json:"fallback_used,omitempty"`
	EmergencyTicket string        `json:"emergency_ticket,omitempty"`
	EstimatedTime   string        `json:"estimated_time,omitempty"`
	RetryAfter      int           `json:"retry_after,omitempty"`
}

// Registration source values
const (
	RegistrationSourcePrimary   = "primary"
	RegistrationSourceDirect    = "direct"
	RegistrationSourceEmergency = "emergency"
)

// RegistrationKey builds the logical write identity for deduplication:
// one guest (by email) registers at most once per event.
func RegistrationKey(eventID, email string) string {
	return fmt.Sprintf("%s:%s", eventID, strings.ToLower(strings.TrimSpace(email)))
}
