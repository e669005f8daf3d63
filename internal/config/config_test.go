package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sample = `
server:
  postgresDsn: host=db user=postgres
  redisAddr: redis:6379
  dashboardURL: https://dash.example
auth:
  jwtSecret: from-file
notification:
  smsProvider: smslocal
  parallelism: 4
  sendTimeout: 5s
  smsLocal:
    apiKey: file-key
    sender: GSOS
  sendGrid:
    from: alerts@example.com
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	conf, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if conf.Server.RedisAddr != "redis:6379" || conf.Auth.JWTSecret != "from-file" {
		t.Errorf("unexpected config %+v", conf)
	}
	if conf.Notification.SMSProvider != "smslocal" || conf.Notification.Parallelism != 4 {
		t.Errorf("unexpected notification config %+v", conf.Notification)
	}
	if conf.Notification.SendTimeout != 5*time.Second {
		t.Errorf("expected 5s send timeout, got %v", conf.Notification.SendTimeout)
	}
	if conf.Server.Listen != ":8000" || conf.Server.UploadDir != "uploads" {
		t.Errorf("defaults not applied: %+v", conf.Server)
	}

	d := conf.Domain()
	if d.JWTSecret != "from-file" || d.DashboardURL != "https://dash.example" || d.UploadURLPrefix != "/uploads" {
		t.Errorf("unexpected domain config %+v", d)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SMS_LOCAL_API_KEY", "env-key")
	t.Setenv("SENDGRID_API_KEY", "sg-env")
	t.Setenv("TWILIO_AUTH_TOKEN", "")

	conf, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if conf.Auth.JWTSecret != "from-env" {
		t.Errorf("env must win over file, got %q", conf.Auth.JWTSecret)
	}
	if conf.Notification.SMSLocal.APIKey != "env-key" || conf.Notification.SendGrid.APIKey != "sg-env" {
		t.Errorf("unexpected keys %+v", conf.Notification)
	}
	if conf.Notification.Twilio.AuthToken != "" {
		t.Errorf("empty env must not override")
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load(writeConfig(t, "server:\n  postgresDsn: x\n"))
	if err == nil {
		t.Fatal("expected error without jwt secret")
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
