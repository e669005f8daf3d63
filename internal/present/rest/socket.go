package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/totegamma/guardiansos"
	"github.com/totegamma/guardiansos/internal/domain"
	"github.com/totegamma/guardiansos/internal/usecase"
)

const outboundBuffer = 64

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// deviceConn is one device socket. Frames are handled in order by the
// reader; all writes go through out and the writer goroutine.
type deviceConn struct {
	h        *Handler
	ws       *websocket.Conn
	registry *usecase.SessionRegistry
	out      chan guardiansos.SocketResponse
	done     chan struct{}

	mu     sync.Mutex
	userID string
}

func (h *Handler) handleSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	conn := &deviceConn{
		h:        h,
		ws:       ws,
		registry: h.capture.NewRegistry(),
		out:      make(chan guardiansos.SocketResponse, outboundBuffer),
		done:     make(chan struct{}),
	}
	conn.run(c.Request().Context())
	return nil
}

func (d *deviceConn) run(ctx context.Context) {
	go d.writeLoop(ctx)

	for {
		messageType, data, err := d.ws.ReadMessage()
		if err != nil {
			logReadError(ctx, err)
			break
		}

		req, err := decodeFrame(messageType, data)
		if err != nil {
			slog.InfoContext(
				ctx, "malformed frame",
				slog.String("error", err.Error()),
				slog.String("module", "socket"),
			)
			d.send(guardiansos.SocketResponse{Type: guardiansos.EventError, Message: "Malformed message"})
			continue
		}

		d.handle(ctx, req)
	}

	d.disconnect(ctx)
}

// disconnect closes every open capture and downgrades presence. Work started
// before the disconnect keeps running on its own context.
func (d *deviceConn) disconnect(ctx context.Context) {
	closed := d.registry.CloseAll()
	if closed > 0 {
		slog.InfoContext(
			ctx, "closed captures on disconnect",
			slog.Int("count", closed),
			slog.String("module", "socket"),
		)
	}
	d.h.presence.Offline(context.WithoutCancel(ctx), d.user())
	close(d.done)
}

func (d *deviceConn) writeLoop(ctx context.Context) {
	for {
		select {
		case <-d.done:
			return
		case resp := <-d.out:
			err := d.ws.WriteJSON(resp)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				// unblocks the reader, which then runs disconnect
				d.ws.Close()
				return
			}
		}
	}
}

// send queues resp unless the connection is already gone.
func (d *deviceConn) send(resp guardiansos.SocketResponse) {
	select {
	case d.out <- resp:
	case <-d.done:
	}
}

func (d *deviceConn) setUser(userID string) {
	d.mu.Lock()
	d.userID = userID
	d.mu.Unlock()
}

func (d *deviceConn) user() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.userID
}

func logReadError(ctx context.Context, err error) {
	var wsErr *websocket.CloseError
	if errors.As(err, &wsErr) {
		if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
			slog.DebugContext(
				ctx, "WebSocket closed",
				slog.String("error", wsErr.Error()),
				slog.String("module", "socket"),
			)
		}
		return
	}
	slog.ErrorContext(
		ctx, "Error reading message",
		slog.String("error", err.Error()),
		slog.String("module", "socket"),
	)
}

// decodeFrame accepts JSON text frames, and binary chunk frames made of a
// JSON header line followed by the raw bytes.
func decodeFrame(messageType int, data []byte) (guardiansos.SocketRequest, error) {
	var req guardiansos.SocketRequest
	switch messageType {
	case websocket.TextMessage:
		err := json.Unmarshal(data, &req)
		return req, err
	case websocket.BinaryMessage:
		header, payload, found := bytes.Cut(data, []byte("\n"))
		if !found {
			return req, errors.New("binary frame without header")
		}
		if err := json.Unmarshal(header, &req); err != nil {
			return req, err
		}
		if req.Type == "" {
			req.Type = guardiansos.EventCaptureChunk
		}
		req.Data = payload
		return req, nil
	default:
		return req, errors.New("unsupported frame type")
	}
}

func (d *deviceConn) handle(ctx context.Context, req guardiansos.SocketRequest) {
	switch req.Type {
	case guardiansos.EventStartCapture:
		d.startCapture(ctx, req)
	case guardiansos.EventCaptureChunk:
		d.appendChunk(ctx, req)
	case guardiansos.EventEndCapture:
		d.endCapture(ctx, req)
	case guardiansos.EventLocationSample:
		d.locationSample(ctx, req)
	case guardiansos.EventPresenceOnline:
		userID, err := d.h.presence.Online(ctx, req.Token)
		d.afterAuth(ctx, req.Type, userID, err)
	case guardiansos.EventDeviceStats:
		userID, err := d.h.presence.ReportStats(ctx, req.Token, domain.Telemetry{
			Battery: req.Battery,
			Signal:  req.Signal,
			Wifi:    req.Wifi,
		})
		d.afterAuth(ctx, req.Type, userID, err)
	case guardiansos.EventHeartbeat:
		// do nothing
	default:
		slog.InfoContext(
			ctx, "Unknown request type",
			slog.String("type", req.Type),
			slog.String("module", "socket"),
		)
	}
}

// afterAuth records the user of a successful event or reports a scoped error.
func (d *deviceConn) afterAuth(ctx context.Context, eventType, userID string, err error) {
	if userID != "" {
		d.setUser(userID)
	}
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrUnauthenticated) {
		d.send(guardiansos.SocketResponse{Type: guardiansos.EventError, Message: "Authentication failed"})
		return
	}
	slog.ErrorContext(
		ctx, "event failed",
		slog.String("type", eventType),
		slog.String("error", err.Error()),
		slog.String("module", "socket"),
	)
	d.send(guardiansos.SocketResponse{Type: guardiansos.EventError, Message: "Server Error"})
}

func (d *deviceConn) captureError(req guardiansos.SocketRequest, message string) {
	d.send(guardiansos.SocketResponse{
		Type:     guardiansos.EventCaptureError,
		BatchID:  req.BatchID,
		DeviceID: req.DeviceID,
		Message:  message,
	})
}

func (d *deviceConn) startCapture(ctx context.Context, req guardiansos.SocketRequest) {
	session, err := d.registry.Start(ctx, usecase.StartCaptureInput{
		BatchID:   req.BatchID,
		DeviceID:  req.DeviceID,
		MediaKind: req.MediaKind,
		Token:     req.Token,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthenticated):
			d.captureError(req, "Authentication failed")
		case errors.Is(err, domain.ErrInvalidInput):
			d.captureError(req, err.Error())
		default:
			slog.ErrorContext(
				ctx, "failed to start capture",
				slog.String("batchId", req.BatchID),
				slog.String("deviceId", req.DeviceID),
				slog.String("error", err.Error()),
				slog.String("module", "socket"),
			)
			d.captureError(req, "Failed to start capture")
		}
		return
	}

	d.setUser(session.UserID)
	d.h.presence.Seen(ctx, session.UserID)
	slog.DebugContext(
		ctx, "capture started",
		slog.String("file", session.FileName),
		slog.String("module", "socket"),
	)
}

func (d *deviceConn) appendChunk(ctx context.Context, req guardiansos.SocketRequest) {
	err := d.registry.Append(usecase.SessionKey{BatchID: req.BatchID, DeviceID: req.DeviceID}, req.Data)
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrUnknownSession) {
		return
	}
	slog.ErrorContext(
		ctx, "failed to write chunk",
		slog.String("batchId", req.BatchID),
		slog.String("deviceId", req.DeviceID),
		slog.String("error", err.Error()),
		slog.String("module", "socket"),
	)
	d.captureError(req, "Failed to write chunk")
}

func (d *deviceConn) endCapture(ctx context.Context, req guardiansos.SocketRequest) {
	session, err := d.registry.End(usecase.SessionKey{BatchID: req.BatchID, DeviceID: req.DeviceID})
	if errors.Is(err, domain.ErrUnknownSession) {
		return
	}
	if err != nil {
		slog.ErrorContext(
			ctx, "failed to close capture",
			slog.String("batchId", req.BatchID),
			slog.String("deviceId", req.DeviceID),
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		d.captureError(req, "Failed to save evidence")
		return
	}

	var location *guardiansos.Location
	if loc, ok := req.SampleLocation(); ok {
		location = &loc
	}

	persistCtx := context.WithoutCancel(ctx)
	go func() {
		evidence, err := d.h.capture.Persist(persistCtx, session, location)
		if err != nil {
			slog.ErrorContext(
				persistCtx, "failed to persist evidence",
				slog.String("file", session.FileName),
				slog.String("error", err.Error()),
				slog.String("module", "socket"),
			)
			d.captureError(req, "Failed to save evidence")
			return
		}
		d.send(guardiansos.SocketResponse{
			Type:     guardiansos.EventCaptureComplete,
			BatchID:  evidence.BatchID,
			DeviceID: evidence.DeviceID,
			Status:   "saved",
		})
	}()
}

func (d *deviceConn) locationSample(ctx context.Context, req guardiansos.SocketRequest) {
	location, ok := req.SampleLocation()
	if !ok {
		d.send(guardiansos.SocketResponse{Type: guardiansos.EventError, Message: "lat and lng are required"})
		return
	}
	userID, _, err := d.h.location.Relay(ctx, req.Token, location)
	d.afterAuth(ctx, req.Type, userID, err)
}
