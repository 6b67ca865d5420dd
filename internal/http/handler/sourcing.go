package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"talentgraph.app/sourcer/internal/http/dto"
	"talentgraph.app/sourcer/internal/service"
)

// HeaderTenantID carries the tenant on every sourcing call.
const HeaderTenantID = "X-Tenant-Id"

type SourcingHandler struct {
	service     service.SourcingService
	traceHeader string
}

func NewSourcingHandler(service service.SourcingService, traceHeader string) *SourcingHandler {
	return &SourcingHandler{
		service:     service,
		traceHeader: traceHeader,
	}
}

// Source accepts a sourcing request for a job. A brand-new job context is
// enqueued with 202; replaying an already-accepted context returns the
// existing request with 200 and does not enqueue again.
func (h *SourcingHandler) Source(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID := c.GetHeader(HeaderTenantID)
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": HeaderTenantID + " header is required"})
		return
	}

	var req dto.SourceJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid sourcing request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	traceID := c.GetHeader(h.traceHeader)
	if traceID == "" {
		if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
			traceID = spanCtx.TraceID().String()
		}
	}
	params := service.SourceParams{
		TenantID:      tenantID,
		ExternalJobID: c.Param("externalJobId"),
		JobContext:    req.JobContext.ToModel(),
		CallbackURL:   req.CallbackURL,
	}
	if traceID != "" {
		params.TraceID = &traceID
	}

	result, err := h.service.Source(ctx, params)
	if err != nil {
		if errors.Is(err, service.ErrInvalidParams) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to accept sourcing request", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to accept sourcing request"})
		return
	}

	status := http.StatusAccepted
	if result.Idempotent {
		status = http.StatusOK
	}
	c.JSON(status, dto.SourceJobResponse{
		RequestID:     result.Request.ID,
		Status:        string(result.Request.Status),
		Idempotent:    result.Idempotent,
		Retried:       result.Retried,
		TrackDecision: result.TrackDecision,
	})
}

// Results returns the stored state of one sourcing request, scoped to the
// tenant and job it was created under.
func (h *SourcingHandler) Results(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID := c.GetHeader(HeaderTenantID)
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": HeaderTenantID + " header is required"})
		return
	}

	requestID, err := strconv.ParseInt(c.Query("requestId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requestId query parameter must be a numeric id"})
		return
	}

	req, err := h.service.GetResults(ctx, tenantID, c.Param("externalJobId"), requestID)
	if err != nil {
		if errors.Is(err, service.ErrRequestNotFound) || errors.Is(err, service.ErrWrongJob) {
			c.JSON(http.StatusNotFound, gin.H{"error": "sourcing request not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to load sourcing results", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sourcing results"})
		return
	}

	c.JSON(http.StatusOK, dto.ResultsFromRequest(req))
}
