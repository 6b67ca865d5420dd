package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"talentgraph.app/sourcer/internal/http/handler"
	"talentgraph.app/sourcer/internal/model"
	"talentgraph.app/sourcer/internal/service"
)

var _ = Describe("SourcingHandler", func() {
	var (
		router *gin.Engine
		svc    *mockSourcingService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockSourcingService{}
		h := handler.NewSourcingHandler(svc, "X-Trace-Id")
		router.POST("/jobs/:externalJobId/source", h.Source)
		router.GET("/jobs/:externalJobId/results", h.Results)
	})

	validBody := func() *bytes.Buffer {
		body, _ := json.Marshal(map[string]any{
			"jobContext": map[string]any{
				"jdDigest": "sha256:abc",
				"title":    "Senior Backend Engineer",
				"skills":   []string{"go", "postgres"},
			},
			"callbackUrl": "https://ats.example.com/hooks/sourcing",
		})
		return bytes.NewBuffer(body)
	}

	post := func(body *bytes.Buffer, headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/jobs/job-42/source", body)
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("Source", func() {
		It("returns 202 for a newly accepted request", func() {
			w := post(validBody(), map[string]string{"X-Tenant-Id": "tenant-1"})

			Expect(w.Code).To(Equal(http.StatusAccepted))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["requestId"]).To(Equal("4001"))
			Expect(resp["status"]).To(Equal("queued"))
			Expect(resp["idempotent"]).To(BeFalse())

			Expect(svc.lastParams).NotTo(BeNil())
			Expect(svc.lastParams.TenantID).To(Equal("tenant-1"))
			Expect(svc.lastParams.ExternalJobID).To(Equal("job-42"))
			Expect(svc.lastParams.CallbackURL).To(Equal("https://ats.example.com/hooks/sourcing"))
			Expect(svc.lastParams.JobContext.JDDigest).To(Equal("sha256:abc"))
		})

		It("returns 200 when the request replays an existing one", func() {
			svc.sourceFn = func(_ context.Context, _ service.SourceParams) (*service.SourceResult, error) {
				return &service.SourceResult{
					Request: &model.SourcingRequest{
						ID:     4001,
						Status: model.RequestStatusComplete,
					},
					TrackDecision: model.TrackDecision{Track: model.TrackTech},
					Idempotent:    true,
				}, nil
			}

			w := post(validBody(), map[string]string{"X-Tenant-Id": "tenant-1"})

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["idempotent"]).To(BeTrue())
			Expect(resp["status"]).To(Equal("complete"))
		})

		It("forwards the trace header to the service", func() {
			w := post(validBody(), map[string]string{
				"X-Tenant-Id": "tenant-1",
				"X-Trace-Id":  "trace-abc",
			})

			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(svc.lastParams.TraceID).NotTo(BeNil())
			Expect(*svc.lastParams.TraceID).To(Equal("trace-abc"))
		})

		It("returns 400 when the tenant header is missing", func() {
			w := post(validBody(), nil)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(svc.lastParams).To(BeNil())
		})

		It("returns 400 on a body without a callback url", func() {
			body, _ := json.Marshal(map[string]any{
				"jobContext": map[string]any{"jdDigest": "sha256:abc"},
			})
			w := post(bytes.NewBuffer(body), map[string]string{"X-Tenant-Id": "tenant-1"})

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(svc.lastParams).To(BeNil())
		})

		It("returns 400 when the service rejects the params", func() {
			svc.sourceFn = func(_ context.Context, _ service.SourceParams) (*service.SourceResult, error) {
				return nil, fmt.Errorf("%w: job context must carry a digest, title, or skills", service.ErrInvalidParams)
			}

			w := post(validBody(), map[string]string{"X-Tenant-Id": "tenant-1"})

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 500 when the service fails", func() {
			svc.sourceFn = func(_ context.Context, _ service.SourceParams) (*service.SourceResult, error) {
				return nil, errors.New("db down")
			}

			w := post(validBody(), map[string]string{"X-Tenant-Id": "tenant-1"})

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Results", func() {
		get := func(url string, tenant string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tenant != "" {
				req.Header.Set("X-Tenant-Id", tenant)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w
		}

		It("returns the stored request state", func() {
			svc.getResultsFn = func(_ context.Context, tenantID, externalJobID string, requestID int64) (*model.SourcingRequest, error) {
				Expect(tenantID).To(Equal("tenant-1"))
				Expect(externalJobID).To(Equal("job-42"))
				Expect(requestID).To(Equal(int64(4001)))
				return &model.SourcingRequest{
					ID:            4001,
					ExternalJobID: "job-42",
					Status:        model.RequestStatusComplete,
					ResultCount:   3,
					Result: &model.RankingResult{
						Candidates:     []model.ScoredCandidate{{CandidateID: "cand-1", FitScore: 0.8}},
						BestMatchCount: 1,
					},
				}, nil
			}

			w := get("/jobs/job-42/results?requestId=4001", "tenant-1")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["requestId"]).To(Equal("4001"))
			Expect(resp["status"]).To(Equal("complete"))
			Expect(resp["resultCount"]).To(BeNumerically("==", 3))
			result := resp["result"].(map[string]any)
			Expect(result["bestMatchCount"]).To(BeNumerically("==", 1))
		})

		It("returns 400 on a non-numeric request id", func() {
			w := get("/jobs/job-42/results?requestId=abc", "tenant-1")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 when the tenant header is missing", func() {
			w := get("/jobs/job-42/results?requestId=4001", "")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 when the request is unknown", func() {
			w := get("/jobs/job-42/results?requestId=9999", "tenant-1")
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 404 when the request belongs to another job", func() {
			svc.getResultsFn = func(_ context.Context, _, _ string, _ int64) (*model.SourcingRequest, error) {
				return nil, service.ErrWrongJob
			}

			w := get("/jobs/job-42/results?requestId=4001", "tenant-1")
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 500 when the service fails", func() {
			svc.getResultsFn = func(_ context.Context, _, _ string, _ int64) (*model.SourcingRequest, error) {
				return nil, errors.New("db down")
			}

			w := get("/jobs/job-42/results?requestId=4001", "tenant-1")
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})
})
