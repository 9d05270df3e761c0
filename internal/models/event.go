package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event represents a single event with a managed guest list
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug        string             `bson:"slug" json:"slug"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Venue       string             `bson:"venue,omitempty" json:"venue,omitempty"`
	City        string             `bson:"city,omitempty" json:"city,omitempty"`
	Capacity    int                `bson:"capacity" json:"capacity"`
	StartsAt    time.Time          `bson:"starts_at" json:"starts_at"`
	EndsAt      time.Time          `bson:"ends_at,omitempty" json:"ends_at,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// EventStats summarizes registration volume for an event
type EventStats struct {
	EventID           string `json:"event_id"`
	RegistrationCount int64  `json:"registration_count"`
	Capacity          int    `json:"capacity"`
	SpotsRemaining    int64  `json:"spots_remaining"`
}
