package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel/trace"

	"github.com/totegamma/guardiansos/internal/config"
	"github.com/totegamma/guardiansos/internal/infra/providers"
	"github.com/totegamma/guardiansos/internal/infra/repository"
	"github.com/totegamma/guardiansos/internal/infra/storage"
	"github.com/totegamma/guardiansos/internal/present/rest"
	restmw "github.com/totegamma/guardiansos/internal/present/rest/middleware"
	"github.com/totegamma/guardiansos/internal/service"
	"github.com/totegamma/guardiansos/internal/usecase"
)

func main() {
	configPath := flag.String("config", "/etc/guardiansos/config.yaml", "path to config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()), slog.String("module", "main"))
		os.Exit(1)
	}

	ctx := context.Background()

	if conf.Server.EnableTrace {
		shutdown, err := providers.NewTracerProvider(ctx, conf.Server.TraceEndpoint)
		if err != nil {
			panic(err)
		}
		defer shutdown(context.Background())
	}

	db, err := providers.NewDatabase(conf.Server)
	if err != nil {
		panic("failed to connect database")
	}

	mc := providers.NewMemcache(conf.Server.MemcachedAddr)
	rdb := providers.NewRedis(ctx, conf.Server)

	domainConf := conf.Domain()
	auth := service.NewAuthService(&domainConf)

	var signalService *service.SignalService
	var publisher usecase.SignalPublisher
	if rdb != nil {
		signalService = service.NewSignalService(rdb)
		publisher = signalService
	}

	evidenceRepo := repository.NewEvidenceRepository(db)
	incidentRepo := repository.NewIncidentRepository(db)
	userRepo := repository.NewUserRepository(db, mc)
	recipientRepo := repository.NewRecipientRepository(db)
	presenceStore := providers.NewPresenceStore(rdb)

	sendTimeout := conf.Notification.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	cl := providers.NewClient(sendTimeout)
	dispatcher := usecase.NewDispatcher(
		providers.NewSMSGateway(cl, conf.Notification),
		providers.NewEmailGateway(cl, conf.Notification),
		usecase.DispatcherConfig{
			Parallelism: conf.Notification.Parallelism,
			SendTimeout: sendTimeout,
		},
	)

	if err := os.MkdirAll(conf.Server.UploadDir, 0o755); err != nil {
		panic(err)
	}

	capture := usecase.NewCaptureUsecase(auth, storage.NewDiskStorage(conf.Server.UploadDir), evidenceRepo, conf.Server.UploadURLPrefix)
	alert := usecase.NewAlertUsecase(incidentRepo, userRepo, recipientRepo, dispatcher, publisher, conf.Server.DashboardURL)
	presence := usecase.NewPresenceUsecase(auth, presenceStore)
	location := usecase.NewLocationUsecase(auth, userRepo, incidentRepo, presence, publisher)
	watch := usecase.NewWatchUsecase(auth, recipientRepo)

	handler := rest.NewHandler(domainConf, capture, alert, location, presence, watch, signalService)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("64M"))

	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("guardiansos"))
		e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				span := trace.SpanFromContext(c.Request().Context())
				c.Response().Header().Set("trace-id", span.SpanContext().TraceID().String())
				return next(c)
			}
		})
	}

	e.Static(conf.Server.UploadURLPrefix, conf.Server.UploadDir)
	handler.RegisterRoutes(e, restmw.NewAuthMiddleware(auth))

	go func() {
		err := e.Start(conf.Server.Listen)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", slog.String("error", err.Error()), slog.String("module", "main"))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", slog.String("error", err.Error()), slog.String("module", "main"))
	}
	if rdb != nil {
		rdb.Close()
	}
}
