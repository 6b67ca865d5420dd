package model

import (
	"encoding/json"
	"time"
)

type RequestStatus string

const (
	RequestStatusQueued         RequestStatus = "queued"
	RequestStatusRunning        RequestStatus = "running"
	RequestStatusComplete       RequestStatus = "complete"
	RequestStatusFailed         RequestStatus = "failed"
	RequestStatusCallbackFailed RequestStatus = "callback_failed"
)

// Retryable reports whether a request in this status may be reset to queued
// and re-enqueued under the same id. Only the two failure states qualify;
// complete is terminal.
func (s RequestStatus) Retryable() bool {
	return s == RequestStatusFailed || s == RequestStatusCallbackFailed
}

func (s RequestStatus) Terminal() bool {
	return s == RequestStatusComplete || s == RequestStatusFailed || s == RequestStatusCallbackFailed
}

// JobContext is the caller-supplied description of the job a sourcing request
// targets. The track-hint fields are advisory only and are excluded from the
// idempotency hash, so a hint change alone never creates a second request.
type JobContext struct {
	JDDigest         string   `json:"jdDigest"`
	Title            *string  `json:"title,omitempty"`
	Skills           []string `json:"skills,omitempty"`
	GoodToHaveSkills []string `json:"goodToHaveSkills,omitempty"`
	Location         *string  `json:"location,omitempty"`
	ExperienceYears  *float64 `json:"experienceYears,omitempty"`
	Education        *string  `json:"education,omitempty"`

	JobTrackHint       *string `json:"jobTrackHint,omitempty"`
	JobTrackHintSource *string `json:"jobTrackHintSource,omitempty"`
	JobTrackHintReason *string `json:"jobTrackHintReason,omitempty"`
}

type SourcingRequest struct {
	ID             int64
	TenantID       string
	ExternalJobID  string
	JobContextHash string
	JobContext     JobContext
	CallbackURL    string

	Status               RequestStatus
	Attempt              int
	ResultCount          int
	QueriesExecuted      int
	QualityGateTriggered bool
	Diagnostics          Diagnostics
	Result               *RankingResult
	Error                *string
	CallbackError        *string
	QueueMessageID       *string

	RequestedAt time.Time
	CompletedAt *time.Time
}

// RankingResult is the persisted outcome of one worker pass, stored on the
// request and served back by the results endpoint.
type RankingResult struct {
	Candidates        []ScoredCandidate `json:"candidates"`
	BestMatchCount    int               `json:"bestMatchCount"`
	BroaderPoolCount  int               `json:"broaderPoolCount"`
	SnapshotFreshness FreshnessStats    `json:"snapshotFreshness"`
}

type FreshnessStats struct {
	FreshCount int     `json:"freshCount"`
	StaleCount int     `json:"staleCount"`
	AvgAgeDays float64 `json:"avgAgeDays"`
}

// CallbackPayload is delivered to the caller's callbackUrl when processing
// finishes, successfully or not.
type CallbackPayload struct {
	Version        string `json:"version"`
	DeliveryID     string `json:"deliveryId"`
	RequestID      int64  `json:"requestId,string"`
	ExternalJobID  string `json:"externalJobId"`
	Status         string `json:"status"`
	CandidateCount int    `json:"candidateCount"`
	EnrichedCount  int    `json:"enrichedCount"`
	Error          string `json:"error,omitempty"`
}

// MarshalContext round-trips the job context through JSON for storage.
func (c JobContext) MarshalContext() (json.RawMessage, error) {
	return json.Marshal(c)
}
