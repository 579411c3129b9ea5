package api

import (
	"sharecircle/domain"
	"sharecircle/domain/geo"
	"time"

	"github.com/samber/lo"
)

// Location is a GeoJSON point, coordinates are [longitude, latitude].
type Location struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

func (l Location) Point() geo.Point {
	return geo.NewPoint(l.Coordinates[0], l.Coordinates[1])
}

type ItemResponse struct {
	ID             string     `json:"_id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	AvailableUntil *time.Time `json:"availableUntil,omitempty"`
	Owner          string     `json:"owner"`
	Location       Location   `json:"location"`
	Images         []string   `json:"images"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  loggedInUser `json:"user"`
}

type loggedInUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func toItemResponse(item domain.Item) ItemResponse {
	images := item.Images
	if images == nil {
		images = []string{}
	}
	return ItemResponse{
		ID:             item.ID,
		Name:           item.Name,
		Description:    item.Description,
		Category:       item.Category,
		AvailableUntil: item.AvailableUntil,
		Owner:          item.Owner,
		Location: Location{
			Type:        "Point",
			Coordinates: [2]float64{item.Location.Longitude, item.Location.Latitude},
		},
		Images:    images,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func toItemResponses(items []domain.Item) []ItemResponse {
	return lo.Map(items, func(item domain.Item, _ int) ItemResponse {
		return toItemResponse(item)
	})
}

func toUserResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
