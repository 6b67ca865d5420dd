package dto

import (
	"time"

	"talentgraph.app/sourcer/internal/model"
)

type JobContextRequest struct {
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

func (r JobContextRequest) ToModel() model.JobContext {
	return model.JobContext{
		JDDigest:           r.JDDigest,
		Title:              r.Title,
		Skills:             r.Skills,
		GoodToHaveSkills:   r.GoodToHaveSkills,
		Location:           r.Location,
		ExperienceYears:    r.ExperienceYears,
		Education:          r.Education,
		JobTrackHint:       r.JobTrackHint,
		JobTrackHintSource: r.JobTrackHintSource,
		JobTrackHintReason: r.JobTrackHintReason,
	}
}

type SourceJobRequest struct {
	JobContext  JobContextRequest `json:"jobContext" binding:"required"`
	CallbackURL string            `json:"callbackUrl" binding:"required,url"`
}

type SourceJobResponse struct {
	RequestID     int64               `json:"requestId,string"`
	Status        string              `json:"status"`
	Idempotent    bool                `json:"idempotent"`
	Retried       bool                `json:"retried"`
	TrackDecision model.TrackDecision `json:"trackDecision"`
}

// SourcingResultsResponse serves the stored outcome of a request. Result stays
// nil until the worker completes a pass, so callers can poll the same shape
// across the request lifecycle.
type SourcingResultsResponse struct {
	RequestID            int64                `json:"requestId,string"`
	ExternalJobID        string               `json:"externalJobId"`
	Status               string               `json:"status"`
	Attempt              int                  `json:"attempt"`
	ResultCount          int                  `json:"resultCount"`
	QueriesExecuted      int                  `json:"queriesExecuted"`
	QualityGateTriggered bool                 `json:"qualityGateTriggered"`
	TrackDecision        *model.TrackDecision `json:"trackDecision,omitempty"`
	Result               *model.RankingResult `json:"result,omitempty"`
	Diagnostics          model.Diagnostics    `json:"diagnostics"`
	Error                *string              `json:"error,omitempty"`
	CallbackError        *string              `json:"callbackError,omitempty"`
	RequestedAt          time.Time            `json:"requestedAt"`
	CompletedAt          *time.Time           `json:"completedAt,omitempty"`
}

func ResultsFromRequest(req *model.SourcingRequest) SourcingResultsResponse {
	return SourcingResultsResponse{
		RequestID:            req.ID,
		ExternalJobID:        req.ExternalJobID,
		Status:               string(req.Status),
		Attempt:              req.Attempt,
		ResultCount:          req.ResultCount,
		QueriesExecuted:      req.QueriesExecuted,
		QualityGateTriggered: req.QualityGateTriggered,
		TrackDecision:        req.Diagnostics.TrackDecision,
		Result:               req.Result,
		Diagnostics:          req.Diagnostics,
		Error:                req.Error,
		CallbackError:        req.CallbackError,
		RequestedAt:          req.RequestedAt,
		CompletedAt:          req.CompletedAt,
	}
}
