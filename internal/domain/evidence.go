package domain

import (
	"time"

	"github.com/totegamma/guardiansos"
)

// Evidence is a durable, immutable media artifact.
type Evidence struct {
	ID          string                `json:"id"`
	Owner       string                `json:"owner"`
	MediaKind   MediaKind             `json:"type"`
	StoragePath string                `json:"filePath"`
	FileName    string                `json:"fileName"`
	CapturedAt  time.Time             `json:"timestamp"`
	Location    *guardiansos.Location `json:"location,omitempty"`
	DeviceID    string                `json:"deviceId,omitempty"`
	BatchID     string                `json:"batchId,omitempty"`
}

// StreamSession describes one capture while its bytes are being received.
type StreamSession struct {
	BatchID   string
	DeviceID  string
	MediaKind MediaKind
	UserID    string
	FileName  string
	StartedAt time.Time
}
