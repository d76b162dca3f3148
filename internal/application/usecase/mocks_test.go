package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/barkshad/fuliza/internal/domain/event"
	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/internal/domain/port"
	"github.com/barkshad/fuliza/internal/domain/valueobject"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- profiles ---

type mockProfileStore struct {
	mu       sync.Mutex
	profiles map[string]model.Profile
	saved    []model.Profile
	getFunc  func(ctx context.Context, uid string) (model.Profile, error)
	saveFunc func(ctx context.Context, p model.Profile) error
}

func newProfileStore(profiles ...model.Profile) *mockProfileStore {
	m := &mockProfileStore{profiles: map[string]model.Profile{}}
	for _, p := range profiles {
		m.profiles[p.UID()] = p
	}
	return m
}

func (m *mockProfileStore) Get(ctx context.Context, uid string) (model.Profile, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, uid)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[uid]
	if !ok {
		return model.Profile{}, model.ErrProfileNotFound
	}
	return p, nil
}

func (m *mockProfileStore) Save(ctx context.Context, p model.Profile) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UID()] = p.ClearEvents()
	m.saved = append(m.saved, p)
	return nil
}

func (m *mockProfileStore) List(_ context.Context) ([]model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	return out, nil
}

// --- applications ---

type mockApplicationRepository struct {
	mu         sync.Mutex
	apps       []model.Application
	appendFunc func(ctx context.Context, app model.Application) error
}

func (m *mockApplicationRepository) Append(ctx context.Context, app model.Application) error {
	if m.appendFunc != nil {
		return m.appendFunc(ctx, app)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.ID() == app.ID() || (app.CheckoutRequestID() != "" && a.CheckoutRequestID() == app.CheckoutRequestID()) {
			return nil
		}
	}
	m.apps = append([]model.Application{app}, m.apps...)
	return nil
}

func (m *mockApplicationRepository) ListByUser(_ context.Context, uid string) ([]model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Application
	for _, a := range m.apps {
		if a.UserID() == uid {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockApplicationRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.apps)
}

// --- checkouts ---

type mockCheckoutRepository struct {
	mu           sync.Mutex
	checkouts    map[string]model.Checkout
	saved        []model.Checkout
	applications *mockApplicationRepository
	// loaded runs after FindByCheckoutRequestID read a checkout.
	loaded func()
}

func newCheckoutRepository(apps *mockApplicationRepository, checkouts ...model.Checkout) *mockCheckoutRepository {
	m := &mockCheckoutRepository{checkouts: map[string]model.Checkout{}, applications: apps}
	for _, c := range checkouts {
		m.checkouts[c.ID()] = c
	}
	return m
}

func (m *mockCheckoutRepository) Save(_ context.Context, c model.Checkout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(c)
	return nil
}

func (m *mockCheckoutRepository) Transition(_ context.Context, c model.Checkout, from valueobject.CheckoutState) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.checkouts[c.ID()]; !ok || !cur.State().Equal(from) {
		return false, nil
	}
	m.store(c)
	return true, nil
}

func (m *mockCheckoutRepository) Settle(ctx context.Context, c model.Checkout, from valueobject.CheckoutState, app model.Application) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.checkouts[c.ID()]; !ok || !cur.State().Equal(from) {
		return false, nil
	}
	if err := m.applications.Append(ctx, app); err != nil {
		return false, err
	}
	m.store(c)
	return true, nil
}

func (m *mockCheckoutRepository) store(c model.Checkout) {
	m.checkouts[c.ID()] = c.ClearEvents()
	m.saved = append(m.saved, c)
}

func (m *mockCheckoutRepository) FindByID(_ context.Context, id string) (model.Checkout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.checkouts[id]
	if !ok {
		return model.Checkout{}, model.ErrCheckoutNotFound
	}
	return c, nil
}

func (m *mockCheckoutRepository) FindByCheckoutRequestID(_ context.Context, reqID string) (model.Checkout, error) {
	m.mu.Lock()
	var (
		found model.Checkout
		ok    bool
	)
	for _, c := range m.checkouts {
		if c.CheckoutRequestID() == reqID {
			found, ok = c, true
			break
		}
	}
	m.mu.Unlock()
	if !ok {
		return model.Checkout{}, model.ErrCheckoutNotFound
	}
	if m.loaded != nil {
		m.loaded()
	}
	return found, nil
}

func (m *mockCheckoutRepository) last() model.Checkout {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved[len(m.saved)-1]
}

// --- projections ---

type mockProjectionStore struct {
	held    map[string]model.LimitProjection
	deleted []string
	putFunc func(ctx context.Context, sessionID string, p model.LimitProjection) error
}

func newProjectionStore() *mockProjectionStore {
	return &mockProjectionStore{held: map[string]model.LimitProjection{}}
}

func (m *mockProjectionStore) Put(ctx context.Context, sessionID string, p model.LimitProjection) error {
	if m.putFunc != nil {
		return m.putFunc(ctx, sessionID, p)
	}
	m.held[sessionID] = p
	return nil
}

func (m *mockProjectionStore) Get(_ context.Context, sessionID string) (*model.LimitProjection, error) {
	p, ok := m.held[sessionID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockProjectionStore) Delete(_ context.Context, sessionID string) error {
	delete(m.held, sessionID)
	m.deleted = append(m.deleted, sessionID)
	return nil
}

// --- events ---

type mockEventPublisher struct {
	mu              sync.Mutex
	publishedEvents []event.DomainEvent
	publishFunc     func(ctx context.Context, events ...event.DomainEvent) error
}

func (m *mockEventPublisher) Publish(ctx context.Context, events ...event.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, events...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishedEvents = append(m.publishedEvents, events...)
	return nil
}

func (m *mockEventPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.publishedEvents))
	for _, e := range m.publishedEvents {
		out = append(out, e.EventType())
	}
	return out
}

// --- scoring ---

type mockScoringClient struct {
	scoreFunc func(ctx context.Context, prompt string) (model.ScoreReply, error)
}

func (m *mockScoringClient) Score(ctx context.Context, prompt string) (model.ScoreReply, error) {
	return m.scoreFunc(ctx, prompt)
}

// --- payments ---

type mockPushGateway struct {
	mu         sync.Mutex
	pushes     []port.PushRequest
	pushFunc   func(ctx context.Context, req port.PushRequest) (port.PushAck, error)
	statusFunc func(ctx context.Context, transactionID string) (port.PushStatus, error)
}

func (m *mockPushGateway) Push(ctx context.Context, req port.PushRequest) (port.PushAck, error) {
	m.mu.Lock()
	m.pushes = append(m.pushes, req)
	m.mu.Unlock()
	if m.pushFunc != nil {
		return m.pushFunc(ctx, req)
	}
	return port.PushAck{TransactionID: "tx-1", CheckoutRequestID: "ws_CO_1"}, nil
}

func (m *mockPushGateway) TransactionStatus(ctx context.Context, transactionID string) (port.PushStatus, error) {
	if m.statusFunc != nil {
		return m.statusFunc(ctx, transactionID)
	}
	return port.PushPending, nil
}

// --- documents ---

type mockDocumentHost struct {
	mu         sync.Mutex
	uploaded   []port.Document
	contents   map[string]string
	uploadFunc func(ctx context.Context, doc port.Document) (string, error)
}

func (m *mockDocumentHost) Upload(ctx context.Context, doc port.Document) (string, error) {
	if m.uploadFunc != nil {
		return m.uploadFunc(ctx, doc)
	}
	body, err := io.ReadAll(doc.Body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.contents == nil {
		m.contents = map[string]string{}
	}
	key := doc.Folder + "/" + doc.Name
	m.contents[key] = string(body)
	m.uploaded = append(m.uploaded, doc)
	return "https://docs.test/" + key, nil
}

// --- metrics ---

type recordingMetrics struct {
	mu       sync.Mutex
	resolved []string
	sources  []model.ScoreSource
	capped   []bool
}

func (m *recordingMetrics) LimitProjected(_ int, capped bool) {
	m.capped = append(m.capped, capped)
}

func (m *recordingMetrics) AssessmentScored(source model.ScoreSource, _ time.Duration) {
	m.sources = append(m.sources, source)
}

func (m *recordingMetrics) CheckoutResolved(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved = append(m.resolved, state)
}

// --- fixtures ---

func registeredProfile(uid string) model.Profile {
	now := time.Now().UTC()
	p, err := model.ReconstructProfile(model.ProfileSnapshot{
		UID:       uid,
		FullName:  "Wanjiru Kamau",
		Email:     "wanjiru@example.com",
		Phone:     "254712345678",
		Status:    "verified",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		panic(err)
	}
	return p
}
