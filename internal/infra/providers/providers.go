package providers

import (
	"context"
	"log/slog"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"gorm.io/gorm"

	"github.com/totegamma/guardiansos/client"
	"github.com/totegamma/guardiansos/internal/config"
	"github.com/totegamma/guardiansos/internal/infra/database"
	"github.com/totegamma/guardiansos/internal/infra/gateway"
	"github.com/totegamma/guardiansos/internal/infra/repository"
	"github.com/totegamma/guardiansos/internal/usecase"
)

const (
	serviceName = "guardiansos"
	userAgent   = "GuardianSOS/1.0"
)

// NewDatabase opens a Postgres connection using the configured DSN and migrates it.
func NewDatabase(conf config.Server) (*gorm.DB, error) {
	db, err := database.NewPostgres(conf.PostgresDsn)
	if err != nil {
		return nil, err
	}
	err = database.MigratePostgres(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// NewMemcache creates a memcache client.
func NewMemcache(addr string) *memcache.Client {
	return database.NewMemcached(addr)
}

// NewRedis returns nil when redis is not configured or not reachable.
func NewRedis(ctx context.Context, conf config.Server) *redis.Client {
	if conf.RedisAddr == "" {
		return nil
	}
	rdb := database.NewRedis(conf.RedisAddr, conf.RedisPassword, conf.RedisDB)
	if err := database.PingRedis(ctx, rdb); err != nil {
		slog.Warn(
			"redis unavailable, realtime and shared presence disabled",
			slog.String("addr", conf.RedisAddr),
			slog.String("error", err.Error()),
			slog.String("module", "main"),
		)
		rdb.Close()
		return nil
	}
	return rdb
}

// NewPresenceStore prefers redis so presence is shared across instances.
func NewPresenceStore(rdb *redis.Client) usecase.PresenceStore {
	if rdb == nil {
		return repository.NewMemoryPresenceStore()
	}
	return repository.NewRedisPresenceStore(rdb)
}

// NewClient constructs the HTTP client used to talk to the notification providers.
func NewClient(timeout time.Duration) *client.Client {
	return client.New(userAgent, timeout)
}

// NewSMSGateway picks the configured SMS provider.
func NewSMSGateway(cl *client.Client, conf config.Notification) usecase.SMSGateway {
	switch conf.SMSProvider {
	case "smslocal":
		return gateway.NewSMSLocalGateway(cl, gateway.SMSLocalConfig{
			APIKey:  conf.SMSLocal.APIKey,
			Sender:  conf.SMSLocal.Sender,
			BaseURL: conf.SMSLocal.BaseURL,
		})
	default:
		if conf.SMSProvider != "twilio" {
			slog.Warn(
				"unknown sms provider, using twilio",
				slog.String("provider", conf.SMSProvider),
				slog.String("module", "main"),
			)
		}
		return gateway.NewTwilioGateway(cl, gateway.TwilioConfig{
			AccountSID:          conf.Twilio.AccountSID,
			AuthToken:           conf.Twilio.AuthToken,
			MessagingServiceSID: conf.Twilio.MessagingServiceSID,
			From:                conf.Twilio.From,
			BaseURL:             conf.Twilio.BaseURL,
		})
	}
}

// NewEmailGateway constructs the SendGrid gateway.
func NewEmailGateway(cl *client.Client, conf config.Notification) usecase.EmailGateway {
	return gateway.NewSendGridGateway(cl, gateway.SendGridConfig{
		APIKey:   conf.SendGrid.APIKey,
		From:     conf.SendGrid.From,
		FromName: conf.SendGrid.FromName,
		BaseURL:  conf.SendGrid.BaseURL,
	})
}

// NewTracerProvider installs an OTLP/HTTP exporting provider as the global
// one. The returned func flushes and stops it.
func NewTracerProvider(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	opts := []otlptracehttp.Option{}
	if endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(
		ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
