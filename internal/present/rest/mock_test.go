package rest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/totegamma/guardiansos"
	"github.com/totegamma/guardiansos/internal/domain"
	"github.com/totegamma/guardiansos/internal/infra/repository"
	"github.com/totegamma/guardiansos/internal/infra/storage"
	"github.com/totegamma/guardiansos/internal/present/rest/middleware"
	"github.com/totegamma/guardiansos/internal/service"
	"github.com/totegamma/guardiansos/internal/usecase"
	"github.com/totegamma/guardiansos/jwt"
)

const testSecret = "test-secret"

// --- mocks ---

type mockEvidenceRepo struct {
	mu      sync.Mutex
	created []domain.Evidence
}

func (m *mockEvidenceRepo) Create(ctx context.Context, evidence domain.Evidence) (domain.Evidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, evidence)
	return evidence, nil
}

func (m *mockEvidenceRepo) ListByOwner(ctx context.Context, owner string) ([]domain.Evidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Evidence
	for _, e := range m.created {
		if e.Owner == owner {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEvidenceRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

type mockIncidentRepo struct {
	mu     sync.Mutex
	active map[string]*domain.Incident
	seq    int
}

func (m *mockIncidentRepo) OpenOrGet(ctx context.Context, input domain.OpenIncident) (domain.Incident, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inc, ok := m.active[input.Owner]; ok {
		return *inc, false, nil
	}
	m.seq++
	inc := &domain.Incident{
		ID:              fmt.Sprintf("incident-%d", m.seq),
		Owner:           input.Owner,
		Level:           input.Level,
		StartLocation:   input.StartLocation,
		LocationHistory: []domain.LocationPoint{},
		StartTime:       input.StartTime,
		IsActive:        true,
	}
	m.active[input.Owner] = inc
	return *inc, true, nil
}

func (m *mockIncidentRepo) Escalate(ctx context.Context, id string, level domain.AlertLevel) (domain.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inc := range m.active {
		if inc.ID == id {
			inc.Level = level
			return *inc, nil
		}
	}
	return domain.Incident{}, domain.NotFoundError{Resource: "incident"}
}

func (m *mockIncidentRepo) CloseActive(ctx context.Context, owner string, at time.Time) (*domain.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.active[owner]
	if !ok {
		return nil, nil
	}
	delete(m.active, owner)
	inc.IsActive = false
	inc.EndTime = &at
	return inc, nil
}

func (m *mockIncidentRepo) AppendLocationIfActive(ctx context.Context, owner string, point domain.LocationPoint) (*domain.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.active[owner]
	if !ok {
		return nil, nil
	}
	inc.LocationHistory = append(inc.LocationHistory, point)
	out := *inc
	return &out, nil
}

func (m *mockIncidentRepo) GetActive(ctx context.Context, owner string) (domain.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.active[owner]
	if !ok {
		return domain.Incident{}, domain.NotFoundError{Resource: "active incident"}
	}
	out := *inc
	out.LocationHistory = append([]domain.LocationPoint(nil), inc.LocationHistory...)
	return out, nil
}

type mockUserRepo struct {
	mu       sync.Mutex
	statuses map[string]domain.Status
}

func (m *mockUserRepo) SetStatus(ctx context.Context, userID string, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[userID] = status
	return nil
}

func (m *mockUserRepo) SetLastLocation(ctx context.Context, userID string, location guardiansos.Location) error {
	return nil
}

func (m *mockUserRepo) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	return domain.Profile{ID: userID, Name: "Alice"}, nil
}

func (m *mockUserRepo) status(userID string) domain.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statuses[userID]
}

type mockDirectory struct {
	set domain.RecipientSet
}

func (m *mockDirectory) Recipients(ctx context.Context, owner string) (domain.RecipientSet, error) {
	return m.set, nil
}

func (m *mockDirectory) IsGuardian(ctx context.Context, guardian, owner string) (bool, error) {
	for _, g := range m.set.Guardians {
		if g.UserID == guardian {
			return true, nil
		}
	}
	return false, nil
}

type mockGateway struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (m *mockGateway) record(to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	if m.fail {
		return fmt.Errorf("gateway down")
	}
	return nil
}

func (m *mockGateway) SendSMS(ctx context.Context, to string, msg domain.Message) error {
	return m.record(to)
}

func (m *mockGateway) SendEmail(ctx context.Context, to string, msg domain.Message) error {
	return m.record(to)
}

func (m *mockGateway) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// --- fixture ---

type testServer struct {
	e         *echo.Echo
	dir       string
	evidence  *mockEvidenceRepo
	incidents *mockIncidentRepo
	users     *mockUserRepo
	presence  *repository.MemoryPresenceStore
	sms       *mockGateway
	email     *mockGateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s := &testServer{
		e:         echo.New(),
		dir:       t.TempDir(),
		evidence:  &mockEvidenceRepo{},
		incidents: &mockIncidentRepo{active: map[string]*domain.Incident{}},
		users:     &mockUserRepo{statuses: map[string]domain.Status{}},
		presence:  repository.NewMemoryPresenceStore(),
		sms:       &mockGateway{fail: true},
		email:     &mockGateway{},
	}

	config := domain.Config{JWTSecret: testSecret, DashboardURL: "https://dash.example"}
	auth := service.NewAuthService(&config)
	directory := &mockDirectory{set: domain.RecipientSet{
		Guardians: []domain.Guardian{{UserID: "g1", Name: "Grace", Phone: "+100", Email: "grace@example.com"}},
		Contacts:  []domain.EmergencyContact{{Name: "Mom", Phone: "+200"}},
	}}

	capture := usecase.NewCaptureUsecase(auth, storage.NewDiskStorage(s.dir), s.evidence, "/uploads")
	dispatcher := usecase.NewDispatcher(s.sms, s.email, usecase.DispatcherConfig{})
	alert := usecase.NewAlertUsecase(s.incidents, s.users, directory, dispatcher, nil, config.DashboardURL)
	presence := usecase.NewPresenceUsecase(auth, s.presence)
	location := usecase.NewLocationUsecase(auth, s.users, s.incidents, presence, nil)
	watch := usecase.NewWatchUsecase(auth, directory)

	h := NewHandler(config, capture, alert, location, presence, watch, nil)
	h.RegisterRoutes(s.e, middleware.NewAuthMiddleware(auth))
	return s
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := jwt.Create(jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour))},
		User:             jwt.User{ID: userID},
	}, testSecret)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok
}
