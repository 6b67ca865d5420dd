package worker

import (
	"context"

	"talentgraph.app/sourcer/internal/model"
	"talentgraph.app/sourcer/internal/queue"
	"talentgraph.app/sourcer/internal/store"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// RequestProcessor abstracts the pipeline processing for testability.
type RequestProcessor interface {
	Process(ctx context.Context, msg queue.Message) error
}

// StoreProvider exposes the stores a pipeline pass needs, bound to one
// transaction by TxRunner.
type StoreProvider interface {
	SourcingRequests() store.SourcingRequestStore
	Candidates() store.CandidateStore
	Snapshots() store.SnapshotStore
	TenantSettings() store.TenantSettingsStore
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

// SettingsProvider mirrors service.SettingsProvider.
type SettingsProvider interface {
	Get(ctx context.Context, tenantID string) (model.TenantSettings, error)
}

// DiscoveryProvider yields fresh candidates up to the budgeted target. The
// actual search transport lives outside this service; implementations adapt
// whatever discovery backend the deployment has.
type DiscoveryProvider interface {
	Discover(ctx context.Context, tenantID string, reqs model.JobRequirements, target int) ([]model.CandidateForRanking, error)
}

// CallbackDeliverer abstracts callback delivery for testability.
type CallbackDeliverer interface {
	Deliver(ctx context.Context, url string, payload model.CallbackPayload) error
}
