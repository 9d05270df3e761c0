package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/eventos-rio/app-guestlist/internal/config"
	"github.com/eventos-rio/app-guestlist/internal/models"
)

// SeedEvents contains demo events for local development
var SeedEvents = []models.Event{
	{
		Slug:        "reveillon-copacabana",
		Name:        "Réveillon Copacabana",
		Description: "Festa de virada do ano na praia de Copacabana com shows e queima de fogos",
		Venue:       "Praia de Copacabana",
		City:        "Rio de Janeiro",
		Capacity:    0,
		StartsAt:    time.Date(2026, 12, 31, 20, 0, 0, 0, time.UTC),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	},
	{
		Slug:        "tech-summit-rio",
		Name:        "Tech Summit Rio",
		Description: "Conferência de tecnologia com palestras, workshops e networking",
		Venue:       "Centro de Convenções SulAmérica",
		City:        "Rio de Janeiro",
		Capacity:    2000,
		StartsAt:    time.Now().Add(30 * 24 * time.Hour),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	},
	{
		Slug:        "lancamento-beta",
		Name:        "Lançamento Beta",
		Description: "Evento fechado de lançamento para convidados",
		Venue:       "Marina da Glória",
		City:        "Rio de Janeiro",
		Capacity:    150,
		StartsAt:    time.Now().Add(7 * 24 * time.Hour),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	},
}

func main() {
	fmt.Println("Seeding demo events...")

	if err := config.LoadConfig(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	config.InitMongoDB()
	if config.MongoDB == nil {
		log.Fatal("Failed to initialize MongoDB")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	collection := config.MongoDB.Collection(config.AppConfig.EventCollection)

	count, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		log.Fatalf("Failed to count existing events: %v", err)
	}

	if count > 0 {
		fmt.Printf("Found %d existing events. Replace them? (y/N): ", count)
		var response string
		if _, err := fmt.Scanln(&response); err != nil {
			fmt.Println("Error reading input")
			return
		}
		if response != "y" && response != "Y" {
			fmt.Println("Seeding cancelled")
			return
		}

		result, err := collection.DeleteMany(ctx, bson.M{})
		if err != nil {
			log.Fatalf("Failed to delete existing events: %v", err)
		}
		fmt.Printf("Deleted %d existing events\n", result.DeletedCount)
	}

	docs := make([]interface{}, len(SeedEvents))
	for i, event := range SeedEvents {
		docs[i] = event
	}

	result, err := collection.InsertMany(ctx, docs)
	if err != nil {
		log.Fatalf("Failed to insert events: %v", err)
	}

	fmt.Printf("Seeded %d events:\n", len(result.InsertedIDs))
	for _, event := range SeedEvents {
		capacity := "unlimited"
		if event.Capacity > 0 {
			capacity = fmt.Sprintf("%d guests", event.Capacity)
		}
		fmt.Printf("  [%s] %s @ %s (%s)\n", event.Slug, event.Name, event.Venue, capacity)
	}
}
