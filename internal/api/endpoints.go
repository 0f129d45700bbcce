package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// AuthResult carries the JWT pair and identity returned by telegram_auth.
type AuthResult struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Terminal describes a container terminal as reported by the backend.
type Terminal struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"`
	Address     string  `json:"address"`
	Location    string  `json:"location"`
	Capacity    string  `json:"capacity"`
	WorkingDays string  `json:"working_days"`
	Phone       string  `json:"phone_numbers"`
	Email       string  `json:"email"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// UserProfile is the registered driver's account data.
type UserProfile struct {
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	PhoneNumber       string `json:"phone_number"`
	TruckNumber       string `json:"truck_number"`
	PreferredLanguage string `json:"preferred_language"`
}

// LocationRecord is the latest reported driver position owned by the backend.
type LocationRecord struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp string  `json:"timestamp"`
	IsLive    bool    `json:"is_live_period"`
}

// RouteRequest is the finalize payload of the route wizard.
type RouteRequest struct {
	TelegramID    int64  `json:"telegram_id"`
	TruckNumber   string `json:"truck_number"`
	StartLocation string `json:"start_location"`
	TerminalID    int64  `json:"terminal_id"`
	ContainerName string `json:"container_name"`
	ContainerSize string `json:"container_size"`
	ContainerType string `json:"container_type"`
	ETA           string `json:"eta"`
}

// SupportTicket is a support question relayed to the backend.
type SupportTicket struct {
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	Question     string `json:"question"`
	LanguageCode string `json:"language_code"`
}

// LocationUpdate is one live-location sample relayed to the backend.
type LocationUpdate struct {
	TelegramID         int64    `json:"telegram_id"`
	Latitude           float64  `json:"latitude"`
	Longitude          float64  `json:"longitude"`
	HorizontalAccuracy *float64 `json:"horizontal_accuracy,omitempty"`
}

func bearer(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// TelegramAuth registers or authenticates a user by Telegram ID and phone number.
func (c *Client) TelegramAuth(ctx context.Context, telegramID int64, phone, firstName, lastName, role string) (*AuthResult, error) {
	if role == "" {
		role = "driver"
	}
	body := map[string]any{
		"telegram_id":  telegramID,
		"phone_number": phone,
		"first_name":   firstName,
		"last_name":    lastName,
		"role":         role,
	}
	resp, err := c.Request(ctx, http.MethodPost, "/api/users/telegram_auth/", body, nil)
	if err != nil {
		return nil, err
	}
	var out AuthResult
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("api: decode auth result: %w", err)
	}
	return &out, nil
}

// GetUserProfile fetches the driver's profile by Telegram ID.
func (c *Client) GetUserProfile(ctx context.Context, telegramID int64, accessToken string) (*UserProfile, error) {
	resp, err := c.Request(ctx, http.MethodGet, fmt.Sprintf("/api/users/profile/%d/", telegramID), nil, bearer(accessToken))
	if err != nil {
		return nil, err
	}
	var out UserProfile
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("api: decode profile: %w", err)
	}
	return &out, nil
}

// CreateRoute submits a fully populated route draft.
func (c *Client) CreateRoute(ctx context.Context, req RouteRequest, accessToken string) error {
	_, err := c.Request(ctx, http.MethodPost, "/api/routes/telegram_create/", req, bearer(accessToken))
	return err
}

// Terminals lists terminals available for route creation.
func (c *Client) Terminals(ctx context.Context, accessToken string) ([]Terminal, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/api/terminals/", nil, bearer(accessToken))
	if err != nil {
		return nil, err
	}
	var out []Terminal
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("api: decode terminals: %w", err)
	}
	return out, nil
}

// Terminal fetches one terminal's details.
func (c *Client) Terminal(ctx context.Context, id int64, accessToken string) (*Terminal, error) {
	resp, err := c.Request(ctx, http.MethodGet, fmt.Sprintf("/api/terminals/%d/", id), nil, bearer(accessToken))
	if err != nil {
		return nil, err
	}
	var out Terminal
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("api: decode terminal: %w", err)
	}
	return &out, nil
}

// LatestLocation fetches the driver's most recent reported position. A 404
// from the backend means no location was ever reported; callers receive a nil
// record rather than an error in that case.
func (c *Client) LatestLocation(ctx context.Context, telegramID int64) (*LocationRecord, error) {
	resp, err := c.Request(ctx, http.MethodGet, fmt.Sprintf("/api/locations/latest/%d/", telegramID), nil, nil)
	if err != nil {
		if StatusOf(err) == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	var out LocationRecord
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("api: decode location: %w", err)
	}
	return &out, nil
}

// PostLocation relays one live-location sample.
func (c *Client) PostLocation(ctx context.Context, upd LocationUpdate) error {
	_, err := c.Request(ctx, http.MethodPost, "/api/locations/", upd, nil)
	return err
}

// CreateSupportTicket stores a support question.
func (c *Client) CreateSupportTicket(ctx context.Context, ticket SupportTicket) error {
	_, err := c.Request(ctx, http.MethodPost, "/api/support/", ticket, nil)
	return err
}

// SupportTickets lists open support questions for admins.
func (c *Client) SupportTickets(ctx context.Context) ([]SupportTicket, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/api/support/", nil, nil)
	if err != nil {
		return nil, err
	}
	var out []SupportTicket
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("api: decode tickets: %w", err)
	}
	return out, nil
}
