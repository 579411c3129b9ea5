// Package domain contains the entities shared by the marketplace services.
// No transport or storage logic should be added here.
package domain

import (
	"sharecircle/domain/geo"
	"time"
)

// Item is a listing offered by a user at a given location.
type Item struct {
	ID             string
	Name           string
	Description    string
	Category       string
	Location       geo.Point
	Owner          string
	Images         []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	AvailableUntil *time.Time
}

// NewItem is the input of an item creation, before ids and timestamps are assigned.
type NewItem struct {
	Name           string `validate:"required"`
	Description    string
	Category       string
	Location       *geo.Point `validate:"required"`
	Owner          string
	Images         []string
	AvailableUntil *time.Time
}
