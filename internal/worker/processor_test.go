package worker_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"talentgraph.app/sourcer/internal/model"
	"talentgraph.app/sourcer/internal/queue"
	"talentgraph.app/sourcer/internal/worker"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func testSettings() model.TenantSettings {
	return model.TenantSettings{
		TenantID:          "tenant-a",
		TargetCount:       3,
		MinGoodEnough:     1,
		JobMaxEnrich:      2,
		NoveltyWindowDays: 14,
		RankEpsilon:       0.02,
		QualityMinAvgFit:  0.05,
		QualityThreshold:  0.95,
		DefaultTrack:      model.TrackTech,
		RescueFitFloor:    0.95,
		DemotionFitFloor:  0.05,
	}
}

var _ = Describe("Processor", func() {
	var (
		processor    *worker.Processor
		mockRequests *mockSourcingRequestStore
		mockCands    *mockCandidateStore
		mockSnaps    *mockSnapshotStore
		mockSettings *mockSettingsProvider
		discovery    *mockDiscovery
		deliverer    *mockDeliverer
		ctx          context.Context

		request *model.SourcingRequest
		msg     queue.Message
	)

	knownPool := func() []model.CandidateForRanking {
		now := time.Now().UTC()
		return []model.CandidateForRanking{
			{
				ID:               "cand-berlin",
				Title:            "Senior Backend Engineer",
				Snippet:          "Go and Kubernetes at scale",
				Location:         "Berlin, Germany",
				EnrichmentStatus: model.EnrichmentStatusCompleted,
				LastEnrichedAt:   timePtr(now.Add(-5 * 24 * time.Hour)),
			},
			{
				ID:             "cand-munich",
				Title:          "Senior Backend Engineer",
				Snippet:        "Go services",
				Location:       "Munich, Germany",
				LastEnrichedAt: timePtr(now.Add(-200 * 24 * time.Hour)),
			},
			{
				ID:    "cand-unknown",
				Title: "Engineer",
			},
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		mockRequests = &mockSourcingRequestStore{}
		mockCands = &mockCandidateStore{}
		mockSnaps = &mockSnapshotStore{}
		mockSettings = &mockSettingsProvider{settings: testSettings()}
		discovery = &mockDiscovery{}
		deliverer = &mockDeliverer{}

		decision := model.TrackDecision{
			Track:             model.TrackTech,
			Confidence:        0.8,
			Method:            model.TrackMethodClassifier,
			ClassifierVersion: "persisted-v0",
		}
		request = &model.SourcingRequest{
			ID:            700,
			TenantID:      "tenant-a",
			ExternalJobID: "job-1",
			CallbackURL:   "https://ats.example.com/hook",
			Status:        model.RequestStatusRunning,
			Attempt:       1,
			JobContext: model.JobContext{
				JDDigest: "digest-1",
				Title:    strPtr("Senior Backend Engineer"),
				Skills:   []string{"Go"},
				Location: strPtr("Berlin, Germany"),
			},
			Diagnostics: model.Diagnostics{TrackDecision: &decision},
			RequestedAt: time.Now().UTC(),
		}
		msg = queue.Message{ID: "1-0", RequestID: 700, TenantID: "tenant-a", ExternalJobID: "job-1", Attempt: 1}

		mockRequests.claimQueuedFn = func(ctx context.Context, id int64) (bool, *model.SourcingRequest, error) {
			return true, request, nil
		}
		mockCands.listForTenantFn = func(ctx context.Context, tenantID string, limit int) ([]model.CandidateForRanking, error) {
			return knownPool(), nil
		}
		mockCands.countEnrichedFn = func(ctx context.Context, tenantID string) (int, error) {
			return 2, nil
		}

		provider := &mockStoreProvider{
			requests:  mockRequests,
			cands:     mockCands,
			snapshots: mockSnaps,
			settings:  &mockTenantSettingsStore{},
		}
		processor = worker.NewProcessor(&mockTxRunner{provider: provider}, mockRequests, mockSettings, discovery, deliverer)
	})

	Context("with a full pool", func() {
		var (
			completedResult *model.RankingResult
			completedDiags  model.Diagnostics
			completedQuery  int
		)

		BeforeEach(func() {
			mockRequests.markCompleteFn = func(ctx context.Context, id int64, result *model.RankingResult, diags model.Diagnostics, queries int, gate bool) error {
				completedResult = result
				completedDiags = diags
				completedQuery = queries
				return nil
			}
		})

		It("completes the request without spending discovery", func() {
			err := processor.Process(ctx, msg)

			Expect(err).NotTo(HaveOccurred())
			Expect(completedResult).NotTo(BeNil())
			Expect(completedResult.Candidates).To(HaveLen(3))
			Expect(completedQuery).To(Equal(0))
			Expect(discovery.calls).To(Equal(0))

			Expect(completedDiags.Pool).NotTo(BeNil())
			Expect(completedDiags.Pool.Mode).To(Equal("none"))
			Expect(completedDiags.Pool.KnownPoolSize).To(Equal(3))
			Expect(completedDiags.QualityGate).NotTo(BeNil())
			Expect(completedDiags.Novelty).NotTo(BeNil())
		})

		It("keeps the persisted track decision instead of recomputing", func() {
			err := processor.Process(ctx, msg)

			Expect(err).NotTo(HaveOccurred())
			Expect(completedDiags.TrackDecision).NotTo(BeNil())
			Expect(completedDiags.TrackDecision.ClassifierVersion).To(Equal("persisted-v0"))
		})

		It("splits best matches from the broader pool", func() {
			err := processor.Process(ctx, msg)

			Expect(err).NotTo(HaveOccurred())
			// Only the Berlin candidate satisfies the city-scoped target.
			Expect(completedResult.BestMatchCount).To(Equal(1))
			Expect(completedResult.BroaderPoolCount).To(Equal(2))
			Expect(completedResult.Candidates[0].CandidateID).To(Equal("cand-berlin"))
		})

		It("summarizes snapshot freshness", func() {
			err := processor.Process(ctx, msg)

			Expect(err).NotTo(HaveOccurred())
			stats := completedResult.SnapshotFreshness
			Expect(stats.FreshCount).To(Equal(1))
			Expect(stats.StaleCount).To(Equal(2))
			Expect(stats.AvgAgeDays).To(BeNumerically(">", 0))
		})

		It("writes denormalized ranking fields", func() {
			err := processor.Process(ctx, msg)

			Expect(err).NotTo(HaveOccurred())
			Expect(mockCands.capturedRankingRows).To(HaveLen(3))
		})

		It("delivers a complete callback after commit", func() {
			err := processor.Process(ctx, msg)

			Expect(err).NotTo(HaveOccurred())
			Expect(deliverer.payloads).To(HaveLen(1))
			payload := deliverer.payloads[0]
			Expect(deliverer.urls[0]).To(Equal("https://ats.example.com/hook"))
			Expect(payload.Status).To(Equal("complete"))
			Expect(payload.RequestID).To(Equal(int64(700)))
			Expect(payload.ExternalJobID).To(Equal("job-1"))
			Expect(payload.CandidateCount).To(Equal(3))
			Expect(payload.EnrichedCount).To(Equal(2))
		})
	})

	Context("with a pool deficit", func() {
		BeforeEach(func() {
			pool := knownPool()[:1]
			mockCands.listForTenantFn = func(ctx context.Context, tenantID string, limit int) ([]model.CandidateForRanking, error) {
				return pool, nil
			}
			mockCands.countEnrichedFn = func(ctx context.Context, tenantID string) (int, error) {
				return 0, nil
			}
		})

		It("budgets aggressive discovery capped at jobMaxEnrich", func() {
			var counters *model.PoolCounters
			var queries int
			mockRequests.markCompleteFn = func(ctx context.Context, id int64, result *model.RankingResult, diags model.Diagnostics, q int, gate bool) error {
				counters = diags.Pool
				queries = q
				return nil
			}
			discovery.discoverFn = func(ctx context.Context, tenantID string, reqs model.JobRequirements, target int) ([]model.CandidateForRanking, error) {
				return knownPool()[1:2], nil
			}
			var upserted int
			mockCands.upsertDiscoveredFn = func(ctx context.Context, tenantID string, candidates []model.CandidateForRanking) (int, error) {
				upserted = len(candidates)
				return len(candidates), nil
			}

			err := processor.Process(ctx, msg)

			Expect(err).NotTo(HaveOccurred())
			// deficit 2, enriched 0 < minGoodEnough 1, capped at jobMaxEnrich 2
			Expect(discovery.lastTarget).To(Equal(2))
			Expect(queries).To(Equal(1))
			Expect(upserted).To(Equal(1))
			Expect(counters.Mode).To(Equal("aggressive"))
			Expect(counters.DiscoveryTarget).To(Equal(2))
			Expect(counters.DiscoveredCount).To(Equal(1))
			Expect(counters.ShortfallRate).To(Equal(0.5))
			Expect(counters.AssembledCount).To(Equal(2))
		})

		It("fails the request when discovery errors", func() {
			discovery.discoverFn = func(ctx context.Context, tenantID string, reqs model.JobRequirements, target int) ([]model.CandidateForRanking, error) {
				return nil, errors.New("search backend down")
			}
			var failedMsg string
			mockRequests.markFailedFn = func(ctx context.Context, id int64, errMsg string, diags model.Diagnostics) error {
				failedMsg = errMsg
				return nil
			}

			err := processor.Process(ctx, msg)

			Expect(err).NotTo(HaveOccurred())
			Expect(failedMsg).To(ContainSubstring("discovery"))
			Expect(deliverer.payloads).To(HaveLen(1))
			Expect(deliverer.payloads[0].Status).To(Equal("failed"))
			Expect(deliverer.payloads[0].Error).To(ContainSubstring("search backend down"))
		})
	})

	Context("when the request is not claimable", func() {
		It("skips without completing or calling back", func() {
			done := request
			done.Status = model.RequestStatusComplete
			mockRequests.claimQueuedFn = func(ctx context.Context, id int64) (bool, *model.SourcingRequest, error) {
				return false, done, nil
			}
			var completed bool
			mockRequests.markCompleteFn = func(ctx context.Context, id int64, result *model.RankingResult, diags model.Diagnostics, q int, gate bool) error {
				completed = true
				return nil
			}

			err := processor.Process(ctx, msg)

			Expect(err).NotTo(HaveOccurred())
			Expect(completed).To(BeFalse())
			Expect(deliverer.payloads).To(BeEmpty())
		})
	})

	Context("when the pipeline fails", func() {
		It("commits status=failed and delivers a failure callback", func() {
			mockCands.listForTenantFn = func(ctx context.Context, tenantID string, limit int) ([]model.CandidateForRanking, error) {
				return nil, errors.New("db timeout")
			}
			var failedID int64
			mockRequests.markFailedFn = func(ctx context.Context, id int64, errMsg string, diags model.Diagnostics) error {
				failedID = id
				return nil
			}

			err := processor.Process(ctx, msg)

			Expect(err).NotTo(HaveOccurred())
			Expect(failedID).To(Equal(int64(700)))
			Expect(deliverer.payloads).To(HaveLen(1))
			Expect(deliverer.payloads[0].Status).To(Equal("failed"))
		})

		It("propagates claim errors so the message is redelivered", func() {
			mockRequests.claimQueuedFn = func(ctx context.Context, id int64) (bool, *model.SourcingRequest, error) {
				return false, nil, errors.New("deadlock detected")
			}

			err := processor.Process(ctx, msg)

			Expect(err).To(MatchError(ContainSubstring("claiming request")))
			Expect(deliverer.payloads).To(BeEmpty())
		})
	})

	Context("when callback delivery exhausts its retries", func() {
		It("marks the request callback_failed", func() {
			deliverer.deliverFn = func(ctx context.Context, url string, payload model.CallbackPayload) error {
				return errors.New("endpoint returned 500")
			}
			var callbackErr string
			mockRequests.markCallbackFailedFn = func(ctx context.Context, id int64, errMsg string) error {
				callbackErr = errMsg
				return nil
			}

			err := processor.Process(ctx, msg)

			Expect(err).NotTo(HaveOccurred())
			Expect(callbackErr).To(ContainSubstring("endpoint returned 500"))
		})

		It("keeps status=failed when the pipeline already failed", func() {
			mockCands.listForTenantFn = func(ctx context.Context, tenantID string, limit int) ([]model.CandidateForRanking, error) {
				return nil, errors.New("db timeout")
			}
			deliverer.deliverFn = func(ctx context.Context, url string, payload model.CallbackPayload) error {
				return errors.New("endpoint unreachable")
			}
			var markedCallbackFailed bool
			mockRequests.markCallbackFailedFn = func(ctx context.Context, id int64, errMsg string) error {
				markedCallbackFailed = true
				return nil
			}

			err := processor.Process(ctx, msg)

			Expect(err).NotTo(HaveOccurred())
			Expect(markedCallbackFailed).To(BeFalse())
		})
	})

	Context("with recent exposure history", func() {
		It("suppresses broader-pool candidates surfaced recently", func() {
			history := model.SourcingRequest{
				ID:            600,
				TenantID:      "tenant-a",
				ExternalJobID: "job-0",
				Status:        model.RequestStatusComplete,
				JobContext:    request.JobContext,
				Result: &model.RankingResult{
					Candidates: []model.ScoredCandidate{
						{CandidateID: "cand-berlin"},
						{CandidateID: "cand-munich"},
					},
				},
			}
			mockRequests.listCompletedSinceFn = func(ctx context.Context, tenantID string, since time.Time) ([]model.SourcingRequest, error) {
				return []model.SourcingRequest{history}, nil
			}
			var result *model.RankingResult
			var counters *model.PoolCounters
			mockRequests.markCompleteFn = func(ctx context.Context, id int64, r *model.RankingResult, diags model.Diagnostics, q int, gate bool) error {
				result = r
				counters = diags.Pool
				return nil
			}

			err := processor.Process(ctx, msg)

			Expect(err).NotTo(HaveOccurred())
			ids := make([]string, 0, len(result.Candidates))
			for _, c := range result.Candidates {
				ids = append(ids, c.CandidateID)
			}
			// Berlin is a best match: exempt. Munich was exposed and sits in
			// the broader pool: suppressed. The unknown candidate was never
			// surfaced: kept.
			Expect(ids).To(ContainElement("cand-berlin"))
			Expect(ids).NotTo(ContainElement("cand-munich"))
			Expect(ids).To(ContainElement("cand-unknown"))
			Expect(counters.NoveltySuppressed).To(Equal(1))
		})
	})

	Context("on the non_tech track", func() {
		BeforeEach(func() {
			decision := model.TrackDecision{
				Track:             model.TrackNonTech,
				Confidence:        1.0,
				Method:            model.TrackMethodHint,
				ClassifierVersion: "v2",
			}
			request.Diagnostics.TrackDecision = &decision
			request.JobContext.Title = strPtr("Senior Account Executive")
			request.JobContext.Skills = []string{"Salesforce"}

			mockSnaps.listByCandidatesFn = func(ctx context.Context, ids []string, track string) (map[string]*model.Snapshot, error) {
				Expect(track).To(Equal("non_tech"))
				return map[string]*model.Snapshot{
					"cand-berlin": {
						CandidateID:      "cand-berlin",
						Track:            "non_tech",
						SkillsNormalized: []string{"salesforce"},
						RoleType:         "account executive",
						SeniorityBand:    "senior",
						Location:         "Berlin, Germany",
						ComputedAt:       time.Now().UTC().Add(-10 * 24 * time.Hour),
					},
				}, nil
			}
		})

		It("attaches validation scores to every ranked candidate", func() {
			var result *model.RankingResult
			mockRequests.markCompleteFn = func(ctx context.Context, id int64, r *model.RankingResult, diags model.Diagnostics, q int, gate bool) error {
				result = r
				return nil
			}

			err := processor.Process(ctx, msg)

			Expect(err).NotTo(HaveOccurred())
			byID := map[string]model.ScoredCandidate{}
			for _, c := range result.Candidates {
				byID[c.CandidateID] = c
			}
			Expect(byID["cand-berlin"].NonTechScore).NotTo(BeNil())
			Expect(byID["cand-berlin"].NonTechScore.Tier).To(Equal(1))
			// No snapshot means no corroboration: hard tier 3.
			Expect(byID["cand-unknown"].NonTechScore).NotTo(BeNil())
			Expect(byID["cand-unknown"].NonTechScore.Tier).To(Equal(3))
		})
	})
})
