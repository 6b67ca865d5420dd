package worker_test

import (
	"context"
	"sync"
	"time"

	"talentgraph.app/sourcer/internal/model"
	"talentgraph.app/sourcer/internal/queue"
	"talentgraph.app/sourcer/internal/store"
	"talentgraph.app/sourcer/internal/worker"
)

type mockSourcingRequestStore struct {
	claimQueuedFn        func(ctx context.Context, id int64) (bool, *model.SourcingRequest, error)
	markCompleteFn       func(ctx context.Context, id int64, result *model.RankingResult, diagnostics model.Diagnostics, queriesExecuted int, qualityGateTriggered bool) error
	markFailedFn         func(ctx context.Context, id int64, errMsg string, diagnostics model.Diagnostics) error
	markCallbackFailedFn func(ctx context.Context, id int64, callbackErr string) error
	listCompletedSinceFn func(ctx context.Context, tenantID string, since time.Time) ([]model.SourcingRequest, error)
}

func (m *mockSourcingRequestStore) Create(ctx context.Context, req *model.SourcingRequest) error {
	return nil
}

func (m *mockSourcingRequestStore) GetByID(ctx context.Context, id int64) (*model.SourcingRequest, error) {
	return nil, store.ErrNotFound
}

func (m *mockSourcingRequestStore) GetByJobContext(ctx context.Context, tenantID, externalJobID, jobContextHash string) (*model.SourcingRequest, error) {
	return nil, store.ErrNotFound
}

func (m *mockSourcingRequestStore) ClaimQueued(ctx context.Context, id int64) (bool, *model.SourcingRequest, error) {
	if m.claimQueuedFn != nil {
		return m.claimQueuedFn(ctx, id)
	}
	return false, nil, nil
}

func (m *mockSourcingRequestStore) MarkComplete(ctx context.Context, id int64, result *model.RankingResult, diagnostics model.Diagnostics, queriesExecuted int, qualityGateTriggered bool) error {
	if m.markCompleteFn != nil {
		return m.markCompleteFn(ctx, id, result, diagnostics, queriesExecuted, qualityGateTriggered)
	}
	return nil
}

func (m *mockSourcingRequestStore) MarkFailed(ctx context.Context, id int64, errMsg string, diagnostics model.Diagnostics) error {
	if m.markFailedFn != nil {
		return m.markFailedFn(ctx, id, errMsg, diagnostics)
	}
	return nil
}

func (m *mockSourcingRequestStore) MarkCallbackFailed(ctx context.Context, id int64, callbackErr string) error {
	if m.markCallbackFailedFn != nil {
		return m.markCallbackFailedFn(ctx, id, callbackErr)
	}
	return nil
}

func (m *mockSourcingRequestStore) ResetForRetry(ctx context.Context, id int64) error {
	return nil
}

func (m *mockSourcingRequestStore) SetQueueMessageID(ctx context.Context, id int64, messageID string) error {
	return nil
}

func (m *mockSourcingRequestStore) ListCompletedSince(ctx context.Context, tenantID string, since time.Time) ([]model.SourcingRequest, error) {
	if m.listCompletedSinceFn != nil {
		return m.listCompletedSinceFn(ctx, tenantID, since)
	}
	return nil, nil
}

type mockCandidateStore struct {
	listForTenantFn     func(ctx context.Context, tenantID string, limit int) ([]model.CandidateForRanking, error)
	countEnrichedFn     func(ctx context.Context, tenantID string) (int, error)
	upsertDiscoveredFn  func(ctx context.Context, tenantID string, candidates []model.CandidateForRanking) (int, error)
	writeRankingFields  func(ctx context.Context, tenantID string, requestID int64, scored []model.ScoredCandidate) error
	capturedRankingRows []model.ScoredCandidate
}

func (m *mockCandidateStore) ListForTenant(ctx context.Context, tenantID string, limit int) ([]model.CandidateForRanking, error) {
	if m.listForTenantFn != nil {
		return m.listForTenantFn(ctx, tenantID, limit)
	}
	return nil, nil
}

func (m *mockCandidateStore) CountEnriched(ctx context.Context, tenantID string) (int, error) {
	if m.countEnrichedFn != nil {
		return m.countEnrichedFn(ctx, tenantID)
	}
	return 0, nil
}

func (m *mockCandidateStore) UpsertDiscovered(ctx context.Context, tenantID string, candidates []model.CandidateForRanking) (int, error) {
	if m.upsertDiscoveredFn != nil {
		return m.upsertDiscoveredFn(ctx, tenantID, candidates)
	}
	return len(candidates), nil
}

func (m *mockCandidateStore) WriteRankingFields(ctx context.Context, tenantID string, requestID int64, scored []model.ScoredCandidate) error {
	m.capturedRankingRows = scored
	if m.writeRankingFields != nil {
		return m.writeRankingFields(ctx, tenantID, requestID, scored)
	}
	return nil
}

type mockSnapshotStore struct {
	listByCandidatesFn func(ctx context.Context, candidateIDs []string, track string) (map[string]*model.Snapshot, error)
}

func (m *mockSnapshotStore) ListByCandidates(ctx context.Context, candidateIDs []string, track string) (map[string]*model.Snapshot, error) {
	if m.listByCandidatesFn != nil {
		return m.listByCandidatesFn(ctx, candidateIDs, track)
	}
	return map[string]*model.Snapshot{}, nil
}

type mockTenantSettingsStore struct{}

func (m *mockTenantSettingsStore) Get(ctx context.Context, tenantID string) (*model.TenantSettings, error) {
	return nil, store.ErrNotFound
}

type mockStoreProvider struct {
	requests  *mockSourcingRequestStore
	cands     *mockCandidateStore
	snapshots *mockSnapshotStore
	settings  *mockTenantSettingsStore
}

func (m *mockStoreProvider) SourcingRequests() store.SourcingRequestStore { return m.requests }
func (m *mockStoreProvider) Candidates() store.CandidateStore             { return m.cands }
func (m *mockStoreProvider) Snapshots() store.SnapshotStore               { return m.snapshots }
func (m *mockStoreProvider) TenantSettings() store.TenantSettingsStore    { return m.settings }

type mockTxRunner struct {
	provider *mockStoreProvider
}

func (m *mockTxRunner) WithTx(ctx context.Context, fn func(stores worker.StoreProvider) error) error {
	return fn(m.provider)
}

type mockSettingsProvider struct {
	settings model.TenantSettings
	err      error
}

func (m *mockSettingsProvider) Get(ctx context.Context, tenantID string) (model.TenantSettings, error) {
	return m.settings, m.err
}

type mockDiscovery struct {
	discoverFn func(ctx context.Context, tenantID string, reqs model.JobRequirements, target int) ([]model.CandidateForRanking, error)
	calls      int
	lastTarget int
}

func (m *mockDiscovery) Discover(ctx context.Context, tenantID string, reqs model.JobRequirements, target int) ([]model.CandidateForRanking, error) {
	m.calls++
	m.lastTarget = target
	if m.discoverFn != nil {
		return m.discoverFn(ctx, tenantID, reqs, target)
	}
	return nil, nil
}

type mockDeliverer struct {
	deliverFn func(ctx context.Context, url string, payload model.CallbackPayload) error
	payloads  []model.CallbackPayload
	urls      []string
}

func (m *mockDeliverer) Deliver(ctx context.Context, url string, payload model.CallbackPayload) error {
	m.urls = append(m.urls, url)
	m.payloads = append(m.payloads, payload)
	if m.deliverFn != nil {
		return m.deliverFn(ctx, url, payload)
	}
	return nil
}

type mockConsumer struct {
	mu        sync.Mutex
	readFn    func(ctx context.Context) ([]queue.Message, error)
	acked     []string
	requeued  []string
	dlq       []string
	dlqErrors []string
}

func (m *mockConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	if m.readFn != nil {
		return m.readFn(ctx)
	}
	return nil, nil
}

func (m *mockConsumer) Ack(ctx context.Context, msg queue.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, msg.ID)
	return nil
}

func (m *mockConsumer) Requeue(ctx context.Context, msg queue.Message, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requeued = append(m.requeued, msg.ID)
	return nil
}

func (m *mockConsumer) SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dlq = append(m.dlq, msg.ID)
	m.dlqErrors = append(m.dlqErrors, errMsg)
	return nil
}

func (m *mockConsumer) ackedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...)
}

func (m *mockConsumer) requeuedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requeued...)
}

func (m *mockConsumer) dlqIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.dlq...)
}

func (m *mockConsumer) dlqErrs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.dlqErrors...)
}
