package config

import (
	"os"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/totegamma/guardiansos/internal/domain"
)

type Config struct {
	Server       Server       `yaml:"server"`
	Auth         Auth         `yaml:"auth"`
	Notification Notification `yaml:"notification"`
}

type Server struct {
	Listen          string `yaml:"listen"`
	PostgresDsn     string `yaml:"postgresDsn"`
	RedisAddr       string `yaml:"redisAddr"`
	RedisPassword   string `yaml:"redisPassword"`
	RedisDB         int    `yaml:"redisDB"`
	MemcachedAddr   string `yaml:"memcachedAddr"`
	EnableTrace     bool   `yaml:"enableTrace"`
	TraceEndpoint   string `yaml:"traceEndpoint"`
	UploadDir       string `yaml:"uploadDir"`
	UploadURLPrefix string `yaml:"uploadURLPrefix"`
	DashboardURL    string `yaml:"dashboardURL"`
}

type Auth struct {
	JWTSecret string `yaml:"jwtSecret"`
	JWTIssuer string `yaml:"jwtIssuer"`
}

type Notification struct {
	SMSProvider string        `yaml:"smsProvider"` // twilio, smslocal
	Parallelism int           `yaml:"parallelism"`
	SendTimeout time.Duration `yaml:"sendTimeout"`

	Twilio   Twilio   `yaml:"twilio"`
	SMSLocal SMSLocal `yaml:"smsLocal"`
	SendGrid SendGrid `yaml:"sendGrid"`
}

type Twilio struct {
	AccountSID          string `yaml:"accountSid"`
	AuthToken           string `yaml:"authToken"`
	MessagingServiceSID string `yaml:"messagingServiceSid"`
	From                string `yaml:"from"`
	BaseURL             string `yaml:"baseURL"`
}

type SMSLocal struct {
	APIKey  string `yaml:"apiKey"`
	Sender  string `yaml:"sender"`
	BaseURL string `yaml:"baseURL"`
}

type SendGrid struct {
	APIKey   string `yaml:"apiKey"`
	From     string `yaml:"from"`
	FromName string `yaml:"fromName"`
	BaseURL  string `yaml:"baseURL"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}

	config.applyEnv(os.LookupEnv)
	config.applyDefaults()

	if config.Server.PostgresDsn == "" {
		return Config{}, errors.New("server.postgresDsn is required")
	}
	if config.Auth.JWTSecret == "" {
		return Config{}, errors.New("auth.jwtSecret is required")
	}

	return config, nil
}

// applyEnv lets secrets come from the environment instead of the file.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("JWT_SECRET"); ok && v != "" {
		c.Auth.JWTSecret = v
	}
	if v, ok := lookup("TWILIO_AUTH_TOKEN"); ok && v != "" {
		c.Notification.Twilio.AuthToken = v
	}
	if v, ok := lookup("SENDGRID_API_KEY"); ok && v != "" {
		c.Notification.SendGrid.APIKey = v
	}
	if v, ok := lookup("SMS_LOCAL_API_KEY"); ok && v != "" {
		c.Notification.SMSLocal.APIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8000"
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = "uploads"
	}
	if c.Server.UploadURLPrefix == "" {
		c.Server.UploadURLPrefix = "/uploads"
	}
	if c.Notification.SMSProvider == "" {
		c.Notification.SMSProvider = "twilio"
	}
}

// Domain returns the subset handed to handlers and usecases.
func (c Config) Domain() domain.Config {
	return domain.Config{
		JWTSecret:       c.Auth.JWTSecret,
		JWTIssuer:       c.Auth.JWTIssuer,
		DashboardURL:    c.Server.DashboardURL,
		UploadDir:       c.Server.UploadDir,
		UploadURLPrefix: c.Server.UploadURLPrefix,
	}
}
