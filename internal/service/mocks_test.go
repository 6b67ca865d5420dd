package service_test

import (
	"context"
	"time"

	"talentgraph.app/sourcer/core/config"
	"talentgraph.app/sourcer/internal/model"
	"talentgraph.app/sourcer/internal/queue"
	"talentgraph.app/sourcer/internal/store"
)

func testSourcingDefaults() config.SourcingConfig {
	return config.SourcingConfig{
		DefaultTrack:        "tech",
		TargetCount:         100,
		MinGoodEnough:       20,
		JobMaxEnrich:        50,
		NoveltyWindowDays:   14,
		RankEpsilon:         0.02,
		QualityMinAvgFit:    0.35,
		QualityThreshold:    0.5,
		SettingsCacheTTLSec: 300,
	}
}

type mockSourcingRequestStore struct {
	createFn             func(ctx context.Context, req *model.SourcingRequest) error
	getByIDFn            func(ctx context.Context, id int64) (*model.SourcingRequest, error)
	getByJobContextFn    func(ctx context.Context, tenantID, externalJobID, jobContextHash string) (*model.SourcingRequest, error)
	resetForRetryFn      func(ctx context.Context, id int64) error
	setQueueMessageIDFn  func(ctx context.Context, id int64, messageID string) error
	markFailedFn         func(ctx context.Context, id int64, errMsg string, diagnostics model.Diagnostics) error
	listCompletedSinceFn func(ctx context.Context, tenantID string, since time.Time) ([]model.SourcingRequest, error)

	capturedRequest *model.SourcingRequest
}

func (m *mockSourcingRequestStore) Create(ctx context.Context, req *model.SourcingRequest) error {
	m.capturedRequest = req
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return nil
}

func (m *mockSourcingRequestStore) GetByID(ctx context.Context, id int64) (*model.SourcingRequest, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockSourcingRequestStore) GetByJobContext(ctx context.Context, tenantID, externalJobID, jobContextHash string) (*model.SourcingRequest, error) {
	if m.getByJobContextFn != nil {
		return m.getByJobContextFn(ctx, tenantID, externalJobID, jobContextHash)
	}
	return nil, store.ErrNotFound
}

func (m *mockSourcingRequestStore) ClaimQueued(ctx context.Context, id int64) (bool, *model.SourcingRequest, error) {
	return false, nil, nil
}

func (m *mockSourcingRequestStore) MarkComplete(ctx context.Context, id int64, result *model.RankingResult, diagnostics model.Diagnostics, queriesExecuted int, qualityGateTriggered bool) error {
	return nil
}

func (m *mockSourcingRequestStore) MarkFailed(ctx context.Context, id int64, errMsg string, diagnostics model.Diagnostics) error {
	if m.markFailedFn != nil {
		return m.markFailedFn(ctx, id, errMsg, diagnostics)
	}
	return nil
}

func (m *mockSourcingRequestStore) MarkCallbackFailed(ctx context.Context, id int64, callbackErr string) error {
	return nil
}

func (m *mockSourcingRequestStore) ResetForRetry(ctx context.Context, id int64) error {
	if m.resetForRetryFn != nil {
		return m.resetForRetryFn(ctx, id)
	}
	return nil
}

func (m *mockSourcingRequestStore) SetQueueMessageID(ctx context.Context, id int64, messageID string) error {
	if m.setQueueMessageIDFn != nil {
		return m.setQueueMessageIDFn(ctx, id, messageID)
	}
	return nil
}

func (m *mockSourcingRequestStore) ListCompletedSince(ctx context.Context, tenantID string, since time.Time) ([]model.SourcingRequest, error) {
	if m.listCompletedSinceFn != nil {
		return m.listCompletedSinceFn(ctx, tenantID, since)
	}
	return nil, nil
}

// Mock queue producer
type mockProducer struct {
	enqueueFn func(ctx context.Context, msg queue.SourcingMessage) (string, error)
	removeFn  func(ctx context.Context, messageID string) error

	enqueued []queue.SourcingMessage
	removed  []string
}

func (m *mockProducer) Enqueue(ctx context.Context, msg queue.SourcingMessage) (string, error) {
	m.enqueued = append(m.enqueued, msg)
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, msg)
	}
	return "stream-1-0", nil
}

func (m *mockProducer) Remove(ctx context.Context, messageID string) error {
	m.removed = append(m.removed, messageID)
	if m.removeFn != nil {
		return m.removeFn(ctx, messageID)
	}
	return nil
}

func (m *mockProducer) Close() error {
	return nil
}

type mockSettingsProvider struct {
	getFn func(ctx context.Context, tenantID string) (model.TenantSettings, error)
}

func (m *mockSettingsProvider) Get(ctx context.Context, tenantID string) (model.TenantSettings, error) {
	if m.getFn != nil {
		return m.getFn(ctx, tenantID)
	}
	return model.TenantSettings{
		TenantID:          tenantID,
		TargetCount:       100,
		MinGoodEnough:     20,
		JobMaxEnrich:      50,
		NoveltyWindowDays: 14,
		RankEpsilon:       0.02,
		QualityMinAvgFit:  0.35,
		QualityThreshold:  0.5,
		DefaultTrack:      model.TrackTech,
		RescueFitFloor:    0.75,
		DemotionFitFloor:  0.35,
	}, nil
}

type mockTenantSettingsStore struct {
	getFn func(ctx context.Context, tenantID string) (*model.TenantSettings, error)

	calls int
}

func (m *mockTenantSettingsStore) Get(ctx context.Context, tenantID string) (*model.TenantSettings, error) {
	m.calls++
	if m.getFn != nil {
		return m.getFn(ctx, tenantID)
	}
	return nil, store.ErrNotFound
}
