package usecase

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/totegamma/guardiansos"
	"github.com/totegamma/guardiansos/internal/domain"
)

// --- auth ---

type mockAuth struct{}

// Authenticate accepts tokens of the form "valid:<userID>".
func (m *mockAuth) Authenticate(ctx context.Context, token string) (string, error) {
	userID, ok := strings.CutPrefix(token, "valid:")
	if !ok || userID == "" {
		return "", fmt.Errorf("bad token: %w", domain.ErrUnauthenticated)
	}
	return userID, nil
}

// --- sinks ---

type mockSink struct {
	name   string
	buf    bytes.Buffer
	mu     sync.Mutex
	closes int
}

func (s *mockSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *mockSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *mockSink) Name() string { return s.name }

func (s *mockSink) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

type mockSinks struct {
	mu    sync.Mutex
	sinks []*mockSink
	err   error
}

func (m *mockSinks) Allocate(kind domain.MediaKind, batchID, deviceID string) (Sink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	s := &mockSink{name: fmt.Sprintf("%s-%s-%s-%d%s", kind, batchID, deviceID, len(m.sinks), kind.Extension())}
	m.sinks = append(m.sinks, s)
	return s, nil
}

func (m *mockSinks) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sinks)
}

// --- evidence ---

type mockEvidenceRepo struct {
	mu      sync.Mutex
	created []domain.Evidence
	err     error
}

func (m *mockEvidenceRepo) Create(ctx context.Context, evidence domain.Evidence) (domain.Evidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Evidence{}, m.err
	}
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

// --- incidents ---

// mockIncidentRepo enforces the one-active-incident rule under a single lock,
// the in-memory equivalent of the partial unique index.
type mockIncidentRepo struct {
	mu        sync.Mutex
	incidents []*domain.Incident
	seq       int
	err       error
}

func (m *mockIncidentRepo) active(owner string) *domain.Incident {
	var found *domain.Incident
	for _, inc := range m.incidents {
		if inc.Owner == owner && inc.IsActive {
			if found == nil || inc.StartTime.After(found.StartTime) {
				found = inc
			}
		}
	}
	return found
}

func (m *mockIncidentRepo) OpenOrGet(ctx context.Context, input domain.OpenIncident) (domain.Incident, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Incident{}, false, m.err
	}
	if inc := m.active(input.Owner); inc != nil {
		return copyIncident(inc), false, nil
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
	if input.StartLocation != nil {
		inc.LocationHistory = append(inc.LocationHistory, domain.LocationPoint{
			Lat: input.StartLocation.Lat, Lng: input.StartLocation.Lng, Timestamp: input.StartTime,
		})
	}
	m.incidents = append(m.incidents, inc)
	return copyIncident(inc), true, nil
}

func (m *mockIncidentRepo) Escalate(ctx context.Context, id string, level domain.AlertLevel) (domain.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inc := range m.incidents {
		if inc.ID == id {
			inc.Level = level
			return copyIncident(inc), nil
		}
	}
	return domain.Incident{}, domain.NotFoundError{Resource: "incident"}
}

func (m *mockIncidentRepo) CloseActive(ctx context.Context, owner string, at time.Time) (*domain.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc := m.active(owner)
	if inc == nil {
		return nil, nil
	}
	inc.IsActive = false
	inc.EndTime = &at
	out := copyIncident(inc)
	return &out, nil
}

func (m *mockIncidentRepo) AppendLocationIfActive(ctx context.Context, owner string, point domain.LocationPoint) (*domain.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc := m.active(owner)
	if inc == nil {
		return nil, nil
	}
	inc.LocationHistory = append(inc.LocationHistory, point)
	out := copyIncident(inc)
	return &out, nil
}

func (m *mockIncidentRepo) GetActive(ctx context.Context, owner string) (domain.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc := m.active(owner)
	if inc == nil {
		return domain.Incident{}, domain.NotFoundError{Resource: "active incident"}
	}
	return copyIncident(inc), nil
}

func (m *mockIncidentRepo) activeCount(owner string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, inc := range m.incidents {
		if inc.Owner == owner && inc.IsActive {
			n++
		}
	}
	return n
}

func copyIncident(inc *domain.Incident) domain.Incident {
	out := *inc
	out.LocationHistory = append([]domain.LocationPoint(nil), inc.LocationHistory...)
	return out
}

// --- users ---

type mockUserRepo struct {
	mu        sync.Mutex
	statuses  map[string]domain.Status
	locations map[string]guardiansos.Location
	names     map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		statuses:  map[string]domain.Status{},
		locations: map[string]guardiansos.Location{},
		names:     map[string]string{},
	}
}

func (m *mockUserRepo) SetStatus(ctx context.Context, userID string, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[userID] = status
	return nil
}

func (m *mockUserRepo) SetLastLocation(ctx context.Context, userID string, location guardiansos.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[userID] = location
	return nil
}

func (m *mockUserRepo) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.names[userID]
	if !ok {
		return domain.Profile{}, domain.NotFoundError{Resource: "user"}
	}
	return domain.Profile{ID: userID, Name: name}, nil
}

func (m *mockUserRepo) status(userID string) domain.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statuses[userID]
}

// --- recipients ---

type mockDirectory struct {
	sets  map[string]domain.RecipientSet
	err   error
	calls int
	mu    sync.Mutex
}

func (m *mockDirectory) Recipients(ctx context.Context, owner string) (domain.RecipientSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return domain.RecipientSet{}, m.err
	}
	return m.sets[owner], nil
}

func (m *mockDirectory) IsGuardian(ctx context.Context, guardian, owner string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.sets[owner].Guardians {
		if g.UserID == guardian {
			return true, nil
		}
	}
	return false, nil
}

// --- gateways ---

type sentMessage struct {
	To  string
	Msg domain.Message
}

type mockGateway struct {
	mu       sync.Mutex
	sent     []sentMessage
	attempts map[string]int
	failAll  bool
	failOnce map[string]bool
}

func newMockGateway() *mockGateway {
	return &mockGateway{attempts: map[string]int{}, failOnce: map[string]bool{}}
}

func (m *mockGateway) send(to string, msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[to]++
	if m.failAll {
		return fmt.Errorf("gateway unreachable")
	}
	if m.failOnce[to] && m.attempts[to] == 1 {
		return fmt.Errorf("temporary failure")
	}
	m.sent = append(m.sent, sentMessage{To: to, Msg: msg})
	return nil
}

func (m *mockGateway) SendSMS(ctx context.Context, to string, msg domain.Message) error {
	return m.send(to, msg)
}

func (m *mockGateway) SendEmail(ctx context.Context, to string, msg domain.Message) error {
	return m.send(to, msg)
}

func (m *mockGateway) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for to := range m.attempts {
		out = append(out, to)
	}
	sort.Strings(out)
	return out
}

func (m *mockGateway) attemptsTo(to string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[to]
}

func (m *mockGateway) delivered() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

// --- signal ---

type mockSignal struct {
	mu     sync.Mutex
	events []guardiansos.Event
}

func (m *mockSignal) Publish(ctx context.Context, channel string, event guardiansos.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockSignal) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

// --- presence ---

type mockPresenceStore struct {
	mu      sync.Mutex
	entries map[string]domain.Presence
}

func newMockPresenceStore() *mockPresenceStore {
	return &mockPresenceStore{entries: map[string]domain.Presence{}}
}

func (m *mockPresenceStore) SetOnline(ctx context.Context, userID string, online bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.entries[userID]
	p.UserID = userID
	p.IsOnline = online
	m.entries[userID] = p
	return nil
}

func (m *mockPresenceStore) UpdateTelemetry(ctx context.Context, userID string, telemetry domain.Telemetry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.entries[userID]
	p.UserID = userID
	telemetry.Apply(&p)
	m.entries[userID] = p
	return nil
}

func (m *mockPresenceStore) Get(ctx context.Context, userID string) (domain.Presence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.entries[userID]
	if !ok {
		return domain.Presence{}, domain.NotFoundError{Resource: "presence"}
	}
	return p, nil
}
