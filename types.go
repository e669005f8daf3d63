package guardiansos

import (
	"time"
)

// Socket event types sent by devices.
const (
	EventStartCapture   string = "start-capture"
	EventCaptureChunk   string = "capture-chunk"
	EventEndCapture     string = "end-capture"
	EventLocationSample string = "location-sample"
	EventPresenceOnline string = "presence-online"
	EventDeviceStats    string = "device-stats"
	EventHeartbeat      string = "h"
)

// Socket event types sent by the server.
const (
	EventCaptureComplete string = "capture-complete"
	EventCaptureError    string = "capture-error"
	EventError           string = "error"
)

// Realtime (guardian) event types.
const (
	EventListen          string = "listen"
	EventIncidentOpened  string = "incident-opened"
	EventIncidentUpdated string = "incident-updated"
	EventIncidentClosed  string = "incident-closed"
	EventLocation        string = "location"
)

type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// SocketRequest is a frame received on the device socket. Only the fields
// relevant to Type are populated.
type SocketRequest struct {
	Type string `json:"type"`

	BatchID   string `json:"batchId,omitempty"`
	DeviceID  string `json:"deviceId,omitempty"`
	MediaKind string `json:"mediaKind,omitempty"`
	Data      []byte `json:"data,omitempty"`

	Location *Location `json:"location,omitempty"`
	Lat      *float64  `json:"lat,omitempty"`
	Lng      *float64  `json:"lng,omitempty"`

	Battery *int    `json:"battery,omitempty"`
	Signal  *string `json:"signal,omitempty"`
	Wifi    *string `json:"wifi,omitempty"`

	Token string `json:"token,omitempty"`
}

// SocketResponse is a frame sent back on the device socket.
type SocketResponse struct {
	Type     string `json:"type"`
	BatchID  string `json:"batchId,omitempty"`
	DeviceID string `json:"deviceId,omitempty"`
	Status   string `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`
}

// RealtimeRequest is a frame received on the guardian realtime socket.
type RealtimeRequest struct {
	Type   string   `json:"type"`
	Token  string   `json:"token"`
	Owners []string `json:"owners"`
}

// Event is published on the signal bus and relayed to watching guardians.
type Event struct {
	Type      string    `json:"type"`
	Owner     string    `json:"owner"`
	Incident  string    `json:"incident,omitempty"`
	Level     string    `json:"level,omitempty"`
	Location  *Location `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TriggerRequest is the body of POST /api/sos/trigger.
type TriggerRequest struct {
	Location *Location `json:"location,omitempty"`
	Level    string    `json:"level,omitempty"`
	Battery  *int      `json:"battery,omitempty"`
	Network  string    `json:"network,omitempty"`
}
