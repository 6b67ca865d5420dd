package model

// NonTechSignals are the ephemeral per-candidate inputs to the professional
// validation scorer used on the non_tech track. They are never persisted on
// their own; the resulting score folds into the candidate's snapshot record.
type NonTechSignals struct {
	CorroboratingSources int
	SeniorityConfidence  float64
	SourceAgeDays        float64
	ContradictionCount   int
	SERP                 SERPContext
}

// SERPContext carries the small search-result-page adjustment signals.
type SERPContext struct {
	RecencyScore     float64 // [0,1], freshest result recency
	LocaleConsistent *bool   // nil when locale could not be determined
}

type NonTechGateResults struct {
	Corroboration bool `json:"corroboration"`
	Contradiction bool `json:"contradiction"`
	Freshness     bool `json:"freshness"`
	Seniority     bool `json:"seniority"`
	ScoreFloor    bool `json:"scoreFloor"`
}

type NonTechScore struct {
	Tier         int                `json:"tier"`
	OverallScore float64            `json:"overallScore"`
	TopReasons   []string           `json:"topReasons"`
	GateResults  NonTechGateResults `json:"gateResults"`
}
