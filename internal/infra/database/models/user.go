package models

import (
	"time"
)

type User struct {
	ID          string    `json:"id" gorm:"primaryKey;type:text"`
	Name        string    `json:"name" gorm:"type:text"`
	Email       string    `json:"email" gorm:"type:text"`
	Phone       string    `json:"phone" gorm:"type:text"`
	Status      string    `json:"status" gorm:"type:text;not null;default:'SAFE'"`
	LastLat     *float64  `json:"lastLat" gorm:"type:double precision"`
	LastLng     *float64  `json:"lastLng" gorm:"type:double precision"`
	LastAddress string    `json:"lastAddress" gorm:"type:text"`
	MDate       time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

// Connection is a tracking relationship: GuardianID watches UserID.
type Connection struct {
	GuardianID string    `json:"guardianID" gorm:"primaryKey;type:text"`
	Guardian   User      `json:"-" gorm:"foreignKey:GuardianID;references:ID;constraint:OnDelete:CASCADE;"`
	UserID     string    `json:"userID" gorm:"primaryKey;type:text;index"`
	Status     string    `json:"status" gorm:"type:text;not null;default:'pending'"`
	StartedAt  time.Time `json:"startedAt" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type EmergencyContact struct {
	ID           int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID       string `json:"userID" gorm:"type:text;not null;index"`
	Name         string `json:"name" gorm:"type:text"`
	Phone        string `json:"phone" gorm:"type:text"`
	Email        string `json:"email" gorm:"type:text"`
	Relationship string `json:"relationship" gorm:"type:text"`
	IsPrimary    bool   `json:"isPrimary" gorm:"type:boolean;not null;default:false"`
}
