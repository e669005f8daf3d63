package rest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/guardiansos"
	"github.com/totegamma/guardiansos/internal/domain"
	"github.com/totegamma/guardiansos/internal/present/rest/presenter"
)

// handleRealtime streams incident events to a guardian dashboard.
func (h *Handler) handleRealtime(c echo.Context) error {
	if h.signal == nil {
		return presenter.Unavailable(c, "realtime is not configured")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "realtime"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	input := make(chan []string)
	output := make(chan guardiansos.Event, outboundBuffer)
	notices := make(chan guardiansos.SocketResponse, 4)

	go h.signal.Realtime(ctx, input, output)

	quit := make(chan struct{})

	go func() {
		defer close(quit)
		for {
			var req guardiansos.RealtimeRequest
			err := ws.ReadJSON(&req)
			if err != nil {
				logReadError(ctx, err)
				return
			}

			switch req.Type {
			case guardiansos.EventListen:
				guardian, owners, err := h.watch.Authorize(ctx, req.Token, req.Owners)
				if err != nil {
					message := "Server Error"
					if errors.Is(err, domain.ErrUnauthenticated) {
						message = "Authentication failed"
					}
					select {
					case notices <- guardiansos.SocketResponse{Type: guardiansos.EventError, Message: message}:
					case <-ctx.Done():
						return
					}
					continue
				}
				select {
				case input <- owners:
				case <-ctx.Done():
					return
				}
				slog.DebugContext(
					ctx, "realtime subscribe",
					slog.String("guardian", guardian),
					slog.Any("owners", owners),
					slog.String("module", "realtime"),
				)
			case guardiansos.EventHeartbeat:
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "realtime"),
				)
			}
		}
	}()

	for {
		var payload any
		select {
		case <-quit:
			return nil
		case event := <-output:
			payload = event
		case notice := <-notices:
			payload = notice
		}

		err := ws.WriteJSON(payload)
		if err != nil {
			slog.ErrorContext(
				ctx, "Error writing message",
				slog.String("error", err.Error()),
				slog.String("module", "realtime"),
			)
			return nil
		}
	}
}
