package service

import (
	"log/slog"

	"talentgraph.app/sourcer/common/cache"
	"talentgraph.app/sourcer/core/config"
	"talentgraph.app/sourcer/internal/model"
	"talentgraph.app/sourcer/internal/queue"
	"talentgraph.app/sourcer/internal/store"
	"talentgraph.app/sourcer/internal/track"
)

type Services struct {
	stores   *store.Stores
	producer queue.Producer
	settings SettingsProvider
	logger   *slog.Logger
}

// NewServices wires the service layer. settingsCache is owned by the caller
// so its expiry sweeper can be scoped to the process lifetime.
func NewServices(stores *store.Stores, producer queue.Producer, cfg config.SourcingConfig, settingsCache *cache.Store[string, model.TenantSettings], logger *slog.Logger) *Services {
	return &Services{
		stores:   stores,
		producer: producer,
		settings: NewSettingsProvider(stores.TenantSettings(), settingsCache, cfg),
		logger:   logger,
	}
}

func (s *Services) Sourcing() SourcingService {
	return NewSourcingService(s.stores.SourcingRequests(), s.producer, track.NewResolver(), s.settings, s.logger)
}

func (s *Services) Settings() SettingsProvider {
	return s.settings
}
