package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"talentgraph.app/sourcer/core/db"
	"talentgraph.app/sourcer/internal/model"
)

type tenantSettingsStore struct {
	q db.Querier
}

func newTenantSettingsStore(q db.Querier) TenantSettingsStore {
	return &tenantSettingsStore{q: q}
}

func (s *tenantSettingsStore) Get(ctx context.Context, tenantID string) (*model.TenantSettings, error) {
	var ts model.TenantSettings
	err := s.q.QueryRow(ctx, `
		SELECT tenant_id, target_count, min_good_enough, job_max_enrich,
		       quality_min_avg_fit, quality_threshold, novelty_window_days,
		       default_track, rank_epsilon, demotion_fit_floor, rescue_fit_floor
		FROM tenant_settings
		WHERE tenant_id = $1`, tenantID).Scan(
		&ts.TenantID, &ts.TargetCount, &ts.MinGoodEnough, &ts.JobMaxEnrich,
		&ts.QualityMinAvgFit, &ts.QualityThreshold, &ts.NoveltyWindowDays,
		&ts.DefaultTrack, &ts.RankEpsilon, &ts.DemotionFitFloor, &ts.RescueFitFloor,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ts, nil
}
