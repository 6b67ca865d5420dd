package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"talentgraph.app/sourcer/core/db"
	"talentgraph.app/sourcer/internal/model"
)

type snapshotStore struct {
	q db.Querier
}

func newSnapshotStore(q db.Querier) SnapshotStore {
	return &snapshotStore{q: q}
}

const snapshotColumns = `
	candidate_id, track, skills_normalized, role_type, seniority_band,
	location, computed_at, stale_after`

func (s *snapshotStore) ListByCandidates(ctx context.Context, candidateIDs []string, track string) (map[string]*model.Snapshot, error) {
	if len(candidateIDs) == 0 {
		return map[string]*model.Snapshot{}, nil
	}

	rows, err := s.q.Query(ctx, `
		SELECT `+snapshotColumns+`
		FROM candidate_snapshots
		WHERE candidate_id = ANY($1) AND track = $2`, candidateIDs, track)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*model.Snapshot, len(candidateIDs))
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out[snap.CandidateID] = snap
	}
	return out, rows.Err()
}

func scanSnapshot(row pgx.Row) (*model.Snapshot, error) {
	var snap model.Snapshot
	err := row.Scan(
		&snap.CandidateID, &snap.Track, &snap.SkillsNormalized, &snap.RoleType,
		&snap.SeniorityBand, &snap.Location, &snap.ComputedAt, &snap.StaleAfter,
	)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
