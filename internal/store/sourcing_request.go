package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"talentgraph.app/sourcer/core/db"
	"talentgraph.app/sourcer/internal/model"
)

type sourcingRequestStore struct {
	q db.Querier
}

func newSourcingRequestStore(q db.Querier) SourcingRequestStore {
	return &sourcingRequestStore{q: q}
}

const sourcingRequestColumns = `
	id, tenant_id, external_job_id, job_context_hash, job_context,
	callback_url, status, attempt, result_count, queries_executed,
	quality_gate_triggered, diagnostics, result, error, callback_error,
	queue_message_id, requested_at, completed_at`

func (s *sourcingRequestStore) Create(ctx context.Context, req *model.SourcingRequest) error {
	jobContext, err := json.Marshal(req.JobContext)
	if err != nil {
		return fmt.Errorf("marshal job context: %w", err)
	}
	diagnostics, err := json.Marshal(req.Diagnostics)
	if err != nil {
		return fmt.Errorf("marshal diagnostics: %w", err)
	}

	_, err = s.q.Exec(ctx, `
		INSERT INTO sourcing_requests (
			id, tenant_id, external_job_id, job_context_hash, job_context,
			callback_url, status, attempt, diagnostics, requested_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		req.ID, req.TenantID, req.ExternalJobID, req.JobContextHash, jobContext,
		req.CallbackURL, req.Status, req.Attempt, diagnostics, req.RequestedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *sourcingRequestStore) GetByID(ctx context.Context, id int64) (*model.SourcingRequest, error) {
	row := s.q.QueryRow(ctx, `
		SELECT `+sourcingRequestColumns+`
		FROM sourcing_requests
		WHERE id = $1`, id)
	return scanSourcingRequest(row)
}

func (s *sourcingRequestStore) GetByJobContext(ctx context.Context, tenantID, externalJobID, jobContextHash string) (*model.SourcingRequest, error) {
	row := s.q.QueryRow(ctx, `
		SELECT `+sourcingRequestColumns+`
		FROM sourcing_requests
		WHERE tenant_id = $1 AND external_job_id = $2 AND job_context_hash = $3`,
		tenantID, externalJobID, jobContextHash)
	return scanSourcingRequest(row)
}

func (s *sourcingRequestStore) ClaimQueued(ctx context.Context, id int64) (bool, *model.SourcingRequest, error) {
	row := s.q.QueryRow(ctx, `
		UPDATE sourcing_requests
		SET status = 'running', attempt = attempt + 1
		WHERE id = $1 AND status = 'queued'
		RETURNING `+sourcingRequestColumns, id)

	req, err := scanSourcingRequest(row)
	if err == nil {
		return true, req, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, nil, err
	}

	// Not claimable; report the request's current state to the caller.
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return false, nil, err
	}
	return false, current, nil
}

func (s *sourcingRequestStore) MarkComplete(ctx context.Context, id int64, result *model.RankingResult, diagnostics model.Diagnostics, queriesExecuted int, qualityGateTriggered bool) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	diagnosticsJSON, err := json.Marshal(diagnostics)
	if err != nil {
		return fmt.Errorf("marshal diagnostics: %w", err)
	}

	resultCount := 0
	if result != nil {
		resultCount = len(result.Candidates)
	}

	_, err = s.q.Exec(ctx, `
		UPDATE sourcing_requests
		SET status = 'complete',
		    result = $2,
		    result_count = $3,
		    queries_executed = $4,
		    quality_gate_triggered = $5,
		    diagnostics = $6,
		    error = NULL,
		    completed_at = now()
		WHERE id = $1`,
		id, resultJSON, resultCount, queriesExecuted, qualityGateTriggered, diagnosticsJSON)
	return err
}

func (s *sourcingRequestStore) MarkFailed(ctx context.Context, id int64, errMsg string, diagnostics model.Diagnostics) error {
	diagnosticsJSON, err := json.Marshal(diagnostics)
	if err != nil {
		return fmt.Errorf("marshal diagnostics: %w", err)
	}

	_, err = s.q.Exec(ctx, `
		UPDATE sourcing_requests
		SET status = 'failed',
		    error = $2,
		    diagnostics = $3,
		    completed_at = now()
		WHERE id = $1`,
		id, errMsg, diagnosticsJSON)
	return err
}

func (s *sourcingRequestStore) MarkCallbackFailed(ctx context.Context, id int64, callbackErr string) error {
	_, err := s.q.Exec(ctx, `
		UPDATE sourcing_requests
		SET status = 'callback_failed',
		    callback_error = $2
		WHERE id = $1`,
		id, callbackErr)
	return err
}

func (s *sourcingRequestStore) ResetForRetry(ctx context.Context, id int64) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE sourcing_requests
		SET status = 'queued',
		    result = NULL,
		    result_count = 0,
		    queries_executed = 0,
		    quality_gate_triggered = false,
		    error = NULL,
		    callback_error = NULL,
		    queue_message_id = NULL,
		    completed_at = NULL
		WHERE id = $1 AND status IN ('failed', 'callback_failed')`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sourcingRequestStore) SetQueueMessageID(ctx context.Context, id int64, messageID string) error {
	_, err := s.q.Exec(ctx, `
		UPDATE sourcing_requests
		SET queue_message_id = $2
		WHERE id = $1`, id, messageID)
	return err
}

func (s *sourcingRequestStore) ListCompletedSince(ctx context.Context, tenantID string, since time.Time) ([]model.SourcingRequest, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+sourcingRequestColumns+`
		FROM sourcing_requests
		WHERE tenant_id = $1 AND status = 'complete' AND completed_at >= $2
		ORDER BY completed_at DESC`, tenantID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SourcingRequest
	for rows.Next() {
		req, err := scanSourcingRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func scanSourcingRequest(row pgx.Row) (*model.SourcingRequest, error) {
	var (
		req             model.SourcingRequest
		jobContextJSON  []byte
		diagnosticsJSON []byte
		resultJSON      []byte
	)
	err := row.Scan(
		&req.ID, &req.TenantID, &req.ExternalJobID, &req.JobContextHash, &jobContextJSON,
		&req.CallbackURL, &req.Status, &req.Attempt, &req.ResultCount, &req.QueriesExecuted,
		&req.QualityGateTriggered, &diagnosticsJSON, &resultJSON, &req.Error, &req.CallbackError,
		&req.QueueMessageID, &req.RequestedAt, &req.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(jobContextJSON, &req.JobContext); err != nil {
		return nil, fmt.Errorf("unmarshal job context: %w", err)
	}
	if len(diagnosticsJSON) > 0 {
		if err := json.Unmarshal(diagnosticsJSON, &req.Diagnostics); err != nil {
			return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
		}
	}
	if len(resultJSON) > 0 && string(resultJSON) != "null" {
		req.Result = &model.RankingResult{}
		if err := json.Unmarshal(resultJSON, req.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return &req, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
