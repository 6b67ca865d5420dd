package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talentgraph.app/sourcer/common/cache"
	"talentgraph.app/sourcer/core/config"
	"talentgraph.app/sourcer/internal/model"
	"talentgraph.app/sourcer/internal/store"
)

// Floors for the broader-pool rescue/demotion pass. Not yet surfaced as
// process config; tenants override per row.
const (
	defaultRescueFitFloor   = 0.75
	defaultDemotionFitFloor = 0.35
)

// SettingsProvider resolves the effective sourcing settings for a tenant:
// stored overrides where present, configured defaults everywhere else.
type SettingsProvider interface {
	Get(ctx context.Context, tenantID string) (model.TenantSettings, error)
}

type settingsProvider struct {
	store    store.TenantSettingsStore
	cache    *cache.Store[string, model.TenantSettings]
	defaults config.SourcingConfig
}

// NewSettingsProvider fronts the tenant settings store with a TTL cache. The
// cache is owned by the caller so its sweeper lives for the process lifetime.
func NewSettingsProvider(ts store.TenantSettingsStore, c *cache.Store[string, model.TenantSettings], defaults config.SourcingConfig) SettingsProvider {
	if c == nil {
		c = cache.New[string, model.TenantSettings](5 * time.Minute)
	}
	return &settingsProvider{store: ts, cache: c, defaults: defaults}
}

func (p *settingsProvider) Get(ctx context.Context, tenantID string) (model.TenantSettings, error) {
	if settings, ok := p.cache.Get(tenantID); ok {
		return settings, nil
	}

	stored, err := p.store.Get(ctx, tenantID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return model.TenantSettings{}, fmt.Errorf("loading tenant settings: %w", err)
	}

	settings := p.withDefaults(tenantID, stored)
	p.cache.Set(tenantID, settings)
	return settings, nil
}

func (p *settingsProvider) withDefaults(tenantID string, stored *model.TenantSettings) model.TenantSettings {
	settings := model.TenantSettings{}
	if stored != nil {
		settings = *stored
	}
	settings.TenantID = tenantID

	if settings.TargetCount <= 0 {
		settings.TargetCount = p.defaults.TargetCount
	}
	if settings.MinGoodEnough <= 0 {
		settings.MinGoodEnough = p.defaults.MinGoodEnough
	}
	if settings.JobMaxEnrich <= 0 {
		settings.JobMaxEnrich = p.defaults.JobMaxEnrich
	}
	if settings.NoveltyWindowDays <= 0 {
		settings.NoveltyWindowDays = p.defaults.NoveltyWindowDays
	}
	if settings.RankEpsilon <= 0 {
		settings.RankEpsilon = p.defaults.RankEpsilon
	}
	if settings.QualityMinAvgFit <= 0 {
		settings.QualityMinAvgFit = p.defaults.QualityMinAvgFit
	}
	if settings.QualityThreshold <= 0 {
		settings.QualityThreshold = p.defaults.QualityThreshold
	}
	if settings.DefaultTrack == "" {
		settings.DefaultTrack = model.Track(p.defaults.DefaultTrack)
	}
	if settings.RescueFitFloor <= 0 {
		settings.RescueFitFloor = defaultRescueFitFloor
	}
	if settings.DemotionFitFloor <= 0 {
		settings.DemotionFitFloor = defaultDemotionFitFloor
	}
	return settings
}
