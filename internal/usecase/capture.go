package usecase

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/guardiansos"
	"github.com/totegamma/guardiansos/internal/domain"
)

var tracer = otel.Tracer("usecase")

type StartCaptureInput struct {
	BatchID   string
	DeviceID  string
	MediaKind string
	Token     string
}

// SessionKey identifies a capture within one connection.
type SessionKey struct {
	BatchID  string
	DeviceID string
}

type CaptureUsecase struct {
	auth      Authenticator
	sinks     SinkAllocator
	evidence  EvidenceRepository
	urlPrefix string
	now       func() time.Time
}

func NewCaptureUsecase(auth Authenticator, sinks SinkAllocator, evidence EvidenceRepository, urlPrefix string) *CaptureUsecase {
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}
	return &CaptureUsecase{
		auth:      auth,
		sinks:     sinks,
		evidence:  evidence,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
		now:       time.Now,
	}
}

// NewRegistry returns an empty registry for one connection.
func (uc *CaptureUsecase) NewRegistry() *SessionRegistry {
	return &SessionRegistry{
		uc:       uc,
		sessions: make(map[SessionKey]*captureSession),
	}
}

// Persist records a closed capture as evidence.
func (uc *CaptureUsecase) Persist(ctx context.Context, session domain.StreamSession, location *guardiansos.Location) (domain.Evidence, error) {
	ctx, span := tracer.Start(ctx, "Capture.Usecase.Persist")
	defer span.End()

	evidence := domain.Evidence{
		ID:          uuid.NewString(),
		Owner:       session.UserID,
		MediaKind:   session.MediaKind,
		StoragePath: uc.urlPrefix + "/" + session.FileName,
		FileName:    session.FileName,
		CapturedAt:  uc.now(),
		Location:    location,
		DeviceID:    session.DeviceID,
		BatchID:     session.BatchID,
	}

	created, err := uc.evidence.Create(ctx, evidence)
	if err != nil {
		span.RecordError(err)
		return domain.Evidence{}, &domain.PersistenceError{Op: "save evidence", Err: err}
	}
	return created, nil
}

// UploadInput is a whole artifact received outside the socket.
type UploadInput struct {
	UserID    string
	MediaKind string
	BatchID   string
	DeviceID  string
	Location  *guardiansos.Location
	Body      io.Reader
}

// Upload stores a complete artifact in one call and records it as evidence.
func (uc *CaptureUsecase) Upload(ctx context.Context, input UploadInput) (domain.Evidence, error) {
	ctx, span := tracer.Start(ctx, "Capture.Usecase.Upload")
	defer span.End()

	kind, ok := domain.ParseMediaKind(input.MediaKind)
	if !ok {
		return domain.Evidence{}, errors.Wrapf(domain.ErrInvalidInput, "unknown media kind %q", input.MediaKind)
	}

	sink, err := uc.sinks.Allocate(kind, input.BatchID, input.DeviceID)
	if err != nil {
		span.RecordError(err)
		return domain.Evidence{}, &domain.PersistenceError{Op: "allocate sink", Err: err}
	}

	_, copyErr := io.Copy(sink, input.Body)
	closeErr := sink.Close()
	if copyErr != nil {
		return domain.Evidence{}, &domain.PersistenceError{Op: "write upload", Err: copyErr}
	}
	if closeErr != nil {
		return domain.Evidence{}, &domain.PersistenceError{Op: "close sink", Err: closeErr}
	}

	return uc.Persist(ctx, domain.StreamSession{
		BatchID:   input.BatchID,
		DeviceID:  input.DeviceID,
		MediaKind: kind,
		UserID:    input.UserID,
		FileName:  sink.Name(),
		StartedAt: uc.now(),
	}, input.Location)
}

func (uc *CaptureUsecase) List(ctx context.Context, owner string) ([]domain.Evidence, error) {
	return uc.evidence.ListByOwner(ctx, owner)
}

type captureSession struct {
	info domain.StreamSession

	mu       sync.Mutex
	sink     Sink
	closed   bool
	closeErr error
}

func (s *captureSession) write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrUnknownSession
	}
	_, err := s.sink.Write(p)
	return err
}

// close is safe to call more than once; the sink is closed on the first call only.
func (s *captureSession) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.closeErr
	}
	s.closed = true
	s.closeErr = s.sink.Close()
	return s.closeErr
}

// SessionRegistry holds the open captures of a single connection. The
// registry lock guards only the map; sink I/O happens under the session lock.
type SessionRegistry struct {
	uc *CaptureUsecase

	mu       sync.Mutex
	sessions map[SessionKey]*captureSession
	closed   bool
}

// Start authenticates the request and opens a new capture.
func (r *SessionRegistry) Start(ctx context.Context, input StartCaptureInput) (domain.StreamSession, error) {
	ctx, span := tracer.Start(ctx, "Capture.Usecase.Start")
	defer span.End()

	userID, err := r.uc.auth.Authenticate(ctx, input.Token)
	if err != nil {
		span.RecordError(err)
		return domain.StreamSession{}, err
	}
	span.SetAttributes(attribute.String("UserId", userID))

	if input.BatchID == "" || input.DeviceID == "" {
		return domain.StreamSession{}, errors.Wrap(domain.ErrInvalidInput, "batchId and deviceId are required")
	}
	kind, ok := domain.ParseMediaKind(input.MediaKind)
	if !ok {
		return domain.StreamSession{}, errors.Wrapf(domain.ErrInvalidInput, "unknown media kind %q", input.MediaKind)
	}

	sink, err := r.uc.sinks.Allocate(kind, input.BatchID, input.DeviceID)
	if err != nil {
		span.RecordError(err)
		return domain.StreamSession{}, &domain.PersistenceError{Op: "allocate sink", Err: err}
	}

	session := &captureSession{
		info: domain.StreamSession{
			BatchID:   input.BatchID,
			DeviceID:  input.DeviceID,
			MediaKind: kind,
			UserID:    userID,
			FileName:  sink.Name(),
			StartedAt: r.uc.now(),
		},
		sink: sink,
	}
	key := SessionKey{BatchID: input.BatchID, DeviceID: input.DeviceID}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = session.close()
		return domain.StreamSession{}, errors.Wrap(domain.ErrUnknownSession, "connection already closed")
	}
	previous := r.sessions[key]
	r.sessions[key] = session
	r.mu.Unlock()

	if previous != nil {
		// restarted capture; the earlier artifact stays on disk as is
		if err := previous.close(); err != nil {
			slog.WarnContext(
				ctx, "failed to close replaced capture",
				slog.String("file", previous.info.FileName),
				slog.String("error", err.Error()),
				slog.String("module", "capture"),
			)
		}
	}

	return session.info, nil
}

// Append writes data to the open capture identified by key.
// ErrUnknownSession is returned when no such capture is open.
func (r *SessionRegistry) Append(key SessionKey, data []byte) error {
	r.mu.Lock()
	session := r.sessions[key]
	r.mu.Unlock()

	if session == nil {
		return domain.ErrUnknownSession
	}
	return session.write(data)
}

// End detaches the capture and closes its sink. A second End for the same
// key returns ErrUnknownSession.
func (r *SessionRegistry) End(key SessionKey) (domain.StreamSession, error) {
	r.mu.Lock()
	session := r.sessions[key]
	delete(r.sessions, key)
	r.mu.Unlock()

	if session == nil {
		return domain.StreamSession{}, domain.ErrUnknownSession
	}
	if err := session.close(); err != nil {
		return session.info, &domain.PersistenceError{Op: "close sink", Err: err}
	}
	return session.info, nil
}

// CloseAll closes every open capture and rejects further starts. Partial
// artifacts are kept. It returns the number of captures closed.
func (r *SessionRegistry) CloseAll() int {
	r.mu.Lock()
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[SessionKey]*captureSession)
	r.mu.Unlock()

	for _, session := range sessions {
		if err := session.close(); err != nil {
			slog.Warn(
				"failed to close capture on disconnect",
				slog.String("file", session.info.FileName),
				slog.String("error", err.Error()),
				slog.String("module", "capture"),
			)
		}
	}
	return len(sessions)
}

// Len returns the number of open captures.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
