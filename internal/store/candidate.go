package store

import (
	"context"

	"talentgraph.app/sourcer/core/db"
	"talentgraph.app/sourcer/internal/model"
)

type candidateStore struct {
	q db.Querier
}

func newCandidateStore(q db.Querier) CandidateStore {
	return &candidateStore{q: q}
}

func (s *candidateStore) ListForTenant(ctx context.Context, tenantID string, limit int) ([]model.CandidateForRanking, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, headline, title, snippet, location, enrichment_status, last_enriched_at
		FROM candidates
		WHERE tenant_id = $1
		ORDER BY last_enriched_at DESC NULLS LAST, id
		LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CandidateForRanking
	for rows.Next() {
		var c model.CandidateForRanking
		if err := rows.Scan(&c.ID, &c.Headline, &c.Title, &c.Snippet, &c.Location, &c.EnrichmentStatus, &c.LastEnrichedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *candidateStore) CountEnriched(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := s.q.QueryRow(ctx, `
		SELECT count(*)
		FROM candidates
		WHERE tenant_id = $1 AND enrichment_status = 'completed'`, tenantID).Scan(&count)
	return count, err
}

func (s *candidateStore) UpsertDiscovered(ctx context.Context, tenantID string, candidates []model.CandidateForRanking) (int, error) {
	inserted := 0
	for _, c := range candidates {
		tag, err := s.q.Exec(ctx, `
			INSERT INTO candidates (id, tenant_id, headline, title, snippet, location, enrichment_status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE
			SET headline = EXCLUDED.headline,
			    title = EXCLUDED.title,
			    snippet = EXCLUDED.snippet,
			    location = EXCLUDED.location`,
			c.ID, tenantID, c.Headline, c.Title, c.Snippet, c.Location, model.EnrichmentStatusNone)
		if err != nil {
			return inserted, err
		}
		if tag.RowsAffected() > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func (s *candidateStore) WriteRankingFields(ctx context.Context, tenantID string, requestID int64, scored []model.ScoredCandidate) error {
	for _, c := range scored {
		_, err := s.q.Exec(ctx, `
			UPDATE candidates
			SET last_fit_score = $3,
			    last_ranked_request_id = $4,
			    last_ranked_at = now()
			WHERE id = $1 AND tenant_id = $2`,
			c.CandidateID, tenantID, c.FitScore, requestID)
		if err != nil {
			return err
		}
	}
	return nil
}
