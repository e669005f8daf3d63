package domain

import "testing"

func TestParseAlertLevel(t *testing.T) {
	cases := map[string]AlertLevel{
		"":        LevelSOS,
		"SOS":     LevelSOS,
		"warning": LevelWarning,
		"WARNING": LevelWarning,
	}
	for in, want := range cases {
		got, ok := ParseAlertLevel(in)
		if !ok || got != want {
			t.Errorf("ParseAlertLevel(%q) = %v %v, want %v", in, got, ok, want)
		}
	}
	if _, ok := ParseAlertLevel("panic"); ok {
		t.Fatalf("expected unknown level to be rejected")
	}
}

func TestAlertLevelMax(t *testing.T) {
	if LevelWarning.Max(LevelSOS) != LevelSOS {
		t.Fatalf("warning should escalate to sos")
	}
	if LevelSOS.Max(LevelWarning) != LevelSOS {
		t.Fatalf("sos should never downgrade")
	}
	if LevelSOS.Status() != StatusSOS || LevelWarning.Status() != StatusWarning {
		t.Fatalf("unexpected status mapping")
	}
}

func TestTelemetryApply(t *testing.T) {
	battery := 40
	signal := "4G"
	p := Presence{WifiState: "Connected"}
	Telemetry{Battery: &battery, Signal: &signal}.Apply(&p)

	if p.Battery == nil || *p.Battery != 40 || p.NetworkSignal != "4G" {
		t.Fatalf("unexpected presence %+v", p)
	}
	if p.WifiState != "Connected" {
		t.Fatalf("absent field must be left unchanged")
	}
}
