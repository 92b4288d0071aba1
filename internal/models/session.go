package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the persisted record backing one access/refresh token pair.
// Its existence is the source of truth for revocation: deleting the row
// invalidates both tokens regardless of their embedded expiry.
type Session struct {
	ID         uuid.UUID `json:"sessionId"`
	UserID     uuid.UUID `json:"userId"`
	UserIP     string    `json:"userIp"`
	UserAgent  string    `json:"userAgent"`
	Country    string    `json:"country"`
	City       string    `json:"city"`
	LastActive time.Time `json:"lastActive"`
}

// DeviceInfo is the client metadata attached to a session at issue time.
type DeviceInfo struct {
	IP      string `json:"ip"`
	OS      string `json:"os"`
	Country string `json:"country"`
	City    string `json:"city"`
}
