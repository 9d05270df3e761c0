package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is a persisted record of a guest-facing message
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID   string             `bson:"event_id" json:"event_id"`
	Email     string             `bson:"email" json:"email"`
	Channel   string             `bson:"channel" json:"channel"`
	Subject   string             `bson:"subject" json:"subject"`
	Body      string             `bson:"body,omitempty" json:"body,omitempty"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	SentAt    *time.Time         `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
}

// Notification channels
const (
	NotificationChannelEmail    = "email"
	NotificationChannelWhatsApp = "whatsapp"
)

// Notification status values
const (
	NotificationStatusQueued = "queued"
	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"
)

// NotifyJob is a queued notification dispatch, drained by the worker binary
type NotifyJob struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	Email      string    `json:"email"`
	Channel    string    `json:"channel"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	RetryCount int       `json:"retry_count"`
	MaxRetries int       `json:"max_retries"`
}
