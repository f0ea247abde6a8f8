package store

import (
	"time"

	"civicplus-be/models"
)

// Demo fixtures installed when a store opens empty with seeding enabled.
// The resolved streetlight carries a fractional rating on purpose: stored
// ratings may be fractional even though the rate operation only accepts
// whole stars.

func seedUsers() ([]models.User, error) {
	users := []models.User{
		{
			Email:          "citizen@example.com",
			Name:           "John Citizen",
			Role:           models.RoleCitizen,
			Ward:           "ward1",
			Password:       "password123",
			RegisteredDate: time.Now(),
		},
		{
			Email:          "admin@example.com",
			Name:           "Jane Admin",
			Role:           models.RoleAdmin,
			Ward:           "ward1",
			Password:       "admin123",
			RegisteredDate: time.Now(),
		},
	}
	for i := range users {
		if err := users[i].HashPassword(); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func seedIssues() []models.Issue {
	potholeLat, potholeLng := 40.7128, -74.0060
	lightLat, lightLng := 40.7589, -73.9851
	potholeImage := "https://via.placeholder.com/400x300?text=Pothole+Issue"
	lightImage := "https://via.placeholder.com/400x300?text=Broken+Streetlight"
	lightRating := 4.2

	return []models.Issue{
		{
			Title:       "Large Pothole on Main Street",
			Description: "A large pothole causing traffic congestion and vehicle damage",
			IssueType:   models.Pothole,
			Location: models.Location{
				Address: "Main Street, Downtown",
				Lat:     &potholeLat,
				Lng:     &potholeLng,
			},
			Priority:      models.PriorityHigh,
			Status:        models.StatusPending,
			ReportedDate:  seedDate("2024-01-15"),
			ReporterName:  "John Citizen",
			ReporterEmail: "john@example.com",
			ReportedBy:    "citizen@example.com",
			Ward:          "ward1",
			ImageURL:      &potholeImage,
		},
		{
			Title:       "Broken Streetlight",
			Description: "Streetlight not working for over 2 weeks, making area unsafe at night",
			IssueType:   models.Streetlight,
			Location: models.Location{
				Address: "Oak Avenue, Residential Area",
				Lat:     &lightLat,
				Lng:     &lightLng,
			},
			Priority:      models.PriorityMedium,
			Status:        models.StatusResolved,
			ReportedDate:  seedDate("2024-01-10"),
			ReporterName:  "Jane Smith",
			ReporterEmail: "jane@example.com",
			ReportedBy:    "jane@example.com",
			Ward:          "ward2",
			ImageURL:      &lightImage,
			AdminNotes:    "Fixed by replacing the faulty bulb and checking electrical connections",
			Rating:        &lightRating,
		},
	}
}

func seedDate(s string) models.DateOnly {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return models.Date(t)
}
