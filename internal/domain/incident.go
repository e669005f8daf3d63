package domain

import (
	"time"

	"github.com/totegamma/guardiansos"
)

type LocationPoint struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

// Incident is one open-to-closed alert episode of a user.
type Incident struct {
	ID              string                `json:"id"`
	Owner           string                `json:"owner"`
	Level           AlertLevel            `json:"level"`
	StartLocation   *guardiansos.Location `json:"startLocation,omitempty"`
	LocationHistory []LocationPoint       `json:"locationHistory"`
	StartTime       time.Time             `json:"startTime"`
	EndTime         *time.Time            `json:"endTime,omitempty"`
	IsActive        bool                  `json:"isActive"`
}

// OpenIncident describes the incident to create when the owner has none active.
type OpenIncident struct {
	Owner         string
	Level         AlertLevel
	StartLocation *guardiansos.Location
	StartTime     time.Time
}
