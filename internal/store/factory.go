package store

import (
	"talentgraph.app/sourcer/core/db"
)

type Stores struct {
	q db.Querier
}

func NewStores(q db.Querier) *Stores {
	return &Stores{q: q}
}

func (s *Stores) SourcingRequests() SourcingRequestStore {
	return newSourcingRequestStore(s.q)
}

func (s *Stores) Candidates() CandidateStore {
	return newCandidateStore(s.q)
}

func (s *Stores) Snapshots() SnapshotStore {
	return newSnapshotStore(s.q)
}

func (s *Stores) TenantSettings() TenantSettingsStore {
	return newTenantSettingsStore(s.q)
}
