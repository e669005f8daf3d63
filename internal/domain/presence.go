package domain

import "time"

type Presence struct {
	UserID        string    `json:"userId"`
	IsOnline      bool      `json:"isOnline"`
	Battery       *int      `json:"battery,omitempty"`
	NetworkSignal string    `json:"networkSignal,omitempty"`
	WifiState     string    `json:"wifiState,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Telemetry is a partial device stats report; nil fields are left unchanged.
type Telemetry struct {
	Battery *int
	Signal  *string
	Wifi    *string
}

// Apply merges t into p.
func (t Telemetry) Apply(p *Presence) {
	if t.Battery != nil {
		b := *t.Battery
		p.Battery = &b
	}
	if t.Signal != nil {
		p.NetworkSignal = *t.Signal
	}
	if t.Wifi != nil {
		p.WifiState = *t.Wifi
	}
}
