package models

import (
	"time"
)

type Evidence struct {
	ID         string    `json:"id" gorm:"primaryKey;type:text"`
	Owner      string    `json:"owner" gorm:"type:text;not null;index"`
	MediaKind  string    `json:"type" gorm:"type:text;not null"`
	FilePath   string    `json:"filePath" gorm:"type:text;not null"`
	FileName   string    `json:"fileName" gorm:"type:text;not null;uniqueIndex"`
	DeviceID   string    `json:"deviceId" gorm:"type:text"`
	BatchID    string    `json:"batchId" gorm:"type:text;index"`
	Lat        *float64  `json:"lat" gorm:"type:double precision"`
	Lng        *float64  `json:"lng" gorm:"type:double precision"`
	Address    string    `json:"address" gorm:"type:text"`
	CapturedAt time.Time `json:"timestamp" gorm:"type:timestamp with time zone;not null"`
	CDate      time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
