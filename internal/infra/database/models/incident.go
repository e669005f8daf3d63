package models

import (
	"time"
)

// Incident is unique per owner while active; see MigratePostgres for the
// partial index enforcing it.
type Incident struct {
	ID           string             `json:"id" gorm:"primaryKey;type:text"`
	Owner        string             `json:"owner" gorm:"type:text;not null;index"`
	Level        string             `json:"level" gorm:"type:text;not null"`
	StartLat     *float64           `json:"startLat" gorm:"type:double precision"`
	StartLng     *float64           `json:"startLng" gorm:"type:double precision"`
	StartAddress string             `json:"startAddress" gorm:"type:text"`
	IsActive     bool               `json:"isActive" gorm:"type:boolean;not null;default:true;index"`
	StartTime    time.Time          `json:"startTime" gorm:"type:timestamp with time zone;not null"`
	EndTime      *time.Time         `json:"endTime" gorm:"type:timestamp with time zone"`
	Locations    []IncidentLocation `json:"locations" gorm:"foreignKey:IncidentID;references:ID;constraint:OnDelete:CASCADE;"`
}

// IncidentLocation is one point of an incident's location history. ID order
// is insertion order.
type IncidentLocation struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	IncidentID string    `json:"incidentID" gorm:"type:text;not null;index"`
	Lat        float64   `json:"lat" gorm:"type:double precision;not null"`
	Lng        float64   `json:"lng" gorm:"type:double precision;not null"`
	Timestamp  time.Time `json:"timestamp" gorm:"type:timestamp with time zone;not null"`
}
