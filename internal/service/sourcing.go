package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"talentgraph.app/sourcer/common/id"
	"talentgraph.app/sourcer/internal/model"
	"talentgraph.app/sourcer/internal/queue"
	"talentgraph.app/sourcer/internal/requirements"
	"talentgraph.app/sourcer/internal/store"
	"talentgraph.app/sourcer/internal/track"
)

var validate = validator.New()

var (
	ErrRequestNotFound = errors.New("sourcing request not found")
	ErrWrongJob        = errors.New("request does not belong to this job")
	ErrInvalidParams   = errors.New("invalid sourcing params")
)

type SourceParams struct {
	TenantID      string
	ExternalJobID string
	JobContext    model.JobContext
	CallbackURL   string
	TraceID       *string
}

type SourceResult struct {
	Request       *model.SourcingRequest
	TrackDecision model.TrackDecision
	Idempotent    bool
	Retried       bool
}

// SourcingService is the idempotency controller: it decides whether a POST
// creates, replays, or retries a request, and owns the enqueue handshake.
type SourcingService interface {
	Source(ctx context.Context, params SourceParams) (*SourceResult, error)
	GetResults(ctx context.Context, tenantID, externalJobID string, requestID int64) (*model.SourcingRequest, error)
}

type sourcingService struct {
	requests store.SourcingRequestStore
	queue    queue.Producer
	resolver *track.Resolver
	settings SettingsProvider
	logger   *slog.Logger
}

func NewSourcingService(requests store.SourcingRequestStore, producer queue.Producer, resolver *track.Resolver, settings SettingsProvider, logger *slog.Logger) SourcingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &sourcingService{
		requests: requests,
		queue:    producer,
		resolver: resolver,
		settings: settings,
		logger:   logger,
	}
}

func (s *sourcingService) Source(ctx context.Context, params SourceParams) (*SourceResult, error) {
	if err := validateSourceParams(params); err != nil {
		return nil, err
	}

	hash, err := ComputeJobContextHash(params.JobContext)
	if err != nil {
		return nil, err
	}

	existing, err := s.requests.GetByJobContext(ctx, params.TenantID, params.ExternalJobID, hash)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("looking up request: %w", err)
	}

	if existing != nil {
		if existing.Status.Retryable() {
			return s.retry(ctx, existing)
		}
		return s.replay(ctx, existing)
	}

	return s.create(ctx, params, hash)
}

// replay returns the persisted request untouched. The track decision comes
// from diagnostics as recorded at first resolution, never recomputed, so a
// classifier upgrade cannot retroactively reclassify it.
func (s *sourcingService) replay(ctx context.Context, req *model.SourcingRequest) (*SourceResult, error) {
	s.logger.InfoContext(ctx, "idempotent replay", "request_id", req.ID, "status", req.Status)
	return &SourceResult{
		Request:       req,
		TrackDecision: persistedDecision(req),
		Idempotent:    true,
	}, nil
}

// retry resets a failed or callback_failed request back to queued and
// re-enqueues it under the same id. Any stale queue entry from the prior
// attempt is removed first so the request stays single-flight.
func (s *sourcingService) retry(ctx context.Context, req *model.SourcingRequest) (*SourceResult, error) {
	if req.QueueMessageID != nil {
		if err := s.queue.Remove(ctx, *req.QueueMessageID); err != nil {
			return nil, fmt.Errorf("removing stale queue entry: %w", err)
		}
	}

	if err := s.requests.ResetForRetry(ctx, req.ID); err != nil {
		return nil, fmt.Errorf("resetting request for retry: %w", err)
	}

	if err := s.enqueue(ctx, req.ID, req.TenantID, req.ExternalJobID, nil, req.Attempt+1); err != nil {
		return nil, err
	}

	updated, err := s.requests.GetByID(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("re-reading retried request: %w", err)
	}

	s.logger.InfoContext(ctx, "request reset and re-enqueued", "request_id", req.ID, "attempt", req.Attempt+1)
	return &SourceResult{
		Request:       updated,
		TrackDecision: persistedDecision(updated),
		Retried:       true,
	}, nil
}

func (s *sourcingService) create(ctx context.Context, params SourceParams, hash string) (*SourceResult, error) {
	settings, err := s.settings.Get(ctx, params.TenantID)
	if err != nil {
		return nil, err
	}

	reqs := requirements.FromJobContext(params.JobContext)
	decision := s.resolver.Resolve(reqs, hintFromContext(params.JobContext), settings.DefaultTrack)

	req := &model.SourcingRequest{
		ID:             id.New(),
		TenantID:       params.TenantID,
		ExternalJobID:  params.ExternalJobID,
		JobContextHash: hash,
		JobContext:     params.JobContext,
		CallbackURL:    params.CallbackURL,
		Status:         model.RequestStatusQueued,
		Attempt:        0,
		Diagnostics:    model.Diagnostics{TrackDecision: &decision},
		RequestedAt:    time.Now().UTC(),
	}

	if err := s.requests.Create(ctx, req); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Lost the race on the idempotency key. Observe the winner's
			// record instead of erroring.
			winner, readErr := s.requests.GetByJobContext(ctx, params.TenantID, params.ExternalJobID, hash)
			if readErr != nil {
				return nil, fmt.Errorf("reading winning request after race: %w", readErr)
			}
			s.logger.InfoContext(ctx, "lost idempotency race, observing winner", "request_id", winner.ID)
			return &SourceResult{
				Request:       winner,
				TrackDecision: persistedDecision(winner),
				Idempotent:    true,
			}, nil
		}
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if err := s.enqueue(ctx, req.ID, req.TenantID, req.ExternalJobID, params.TraceID, 1); err != nil {
		if markErr := s.requests.MarkFailed(ctx, req.ID, err.Error(), req.Diagnostics); markErr != nil {
			s.logger.ErrorContext(ctx, "failed to mark request failed after enqueue error", "request_id", req.ID, "error", markErr)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "sourcing request created",
		"request_id", req.ID,
		"external_job_id", req.ExternalJobID,
		"track", decision.Track,
		"track_method", decision.Method,
	)
	return &SourceResult{
		Request:       req,
		TrackDecision: decision,
	}, nil
}

func (s *sourcingService) enqueue(ctx context.Context, requestID int64, tenantID, externalJobID string, traceID *string, attempt int) error {
	messageID, err := s.queue.Enqueue(ctx, queue.SourcingMessage{
		RequestID:     requestID,
		TenantID:      tenantID,
		ExternalJobID: externalJobID,
		TraceID:       traceID,
		Attempt:       attempt,
	})
	if err != nil {
		return fmt.Errorf("enqueueing request: %w", err)
	}
	if err := s.requests.SetQueueMessageID(ctx, requestID, messageID); err != nil {
		return fmt.Errorf("recording queue message id: %w", err)
	}
	return nil
}

func (s *sourcingService) GetResults(ctx context.Context, tenantID, externalJobID string, requestID int64) (*model.SourcingRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if req.TenantID != tenantID {
		// Cross-tenant probes read as absent
		return nil, ErrRequestNotFound
	}
	if req.ExternalJobID != externalJobID {
		return nil, ErrWrongJob
	}
	return req, nil
}

func validateSourceParams(params SourceParams) error {
	if params.TenantID == "" {
		return fmt.Errorf("%w: tenant id is required", ErrInvalidParams)
	}
	if params.ExternalJobID == "" {
		return fmt.Errorf("%w: external job id is required", ErrInvalidParams)
	}
	if params.CallbackURL == "" {
		return fmt.Errorf("%w: callback url is required", ErrInvalidParams)
	}
	if err := validate.Var(params.CallbackURL, "url"); err != nil {
		return fmt.Errorf("%w: callback url must be a valid url", ErrInvalidParams)
	}
	jc := params.JobContext
	if jc.JDDigest == "" && jc.Title == nil && len(jc.Skills) == 0 {
		return fmt.Errorf("%w: job context must carry a digest, title, or skills", ErrInvalidParams)
	}
	return nil
}

func hintFromContext(jc model.JobContext) *track.Hint {
	if jc.JobTrackHint == nil {
		return nil
	}
	hint := &track.Hint{Track: *jc.JobTrackHint}
	if jc.JobTrackHintSource != nil {
		hint.Source = *jc.JobTrackHintSource
	}
	if jc.JobTrackHintReason != nil {
		hint.Reason = *jc.JobTrackHintReason
	}
	return hint
}

func persistedDecision(req *model.SourcingRequest) model.TrackDecision {
	if req.Diagnostics.TrackDecision != nil {
		return *req.Diagnostics.TrackDecision
	}
	return model.TrackDecision{}
}
