package model

// Diagnostics is the typed record of what happened during a sourcing pass.
// It replaces a loosely-typed JSON blob: every field is explicit and optional
// fields stay nil when a stage never ran, which keeps old rows readable and
// new fields ignorable by old readers.
type Diagnostics struct {
	TrackDecision *TrackDecision  `json:"trackDecision,omitempty"`
	Pool          *PoolCounters   `json:"pool,omitempty"`
	QualityGate   *QualityGate    `json:"qualityGate,omitempty"`
	Novelty       *NoveltyOutcome `json:"novelty,omitempty"`
}

type PoolCounters struct {
	KnownPoolSize     int     `json:"knownPoolSize"`
	EnrichedCount     int     `json:"enrichedCount"`
	Mode              string  `json:"mode"`
	DiscoveryTarget   int     `json:"discoveryTarget"`
	DiscoveredCount   int     `json:"discoveredCount"`
	AssembledCount    int     `json:"assembledCount"`
	ShortfallRate     float64 `json:"shortfallRate"`
	RescuedCount      int     `json:"rescuedCount"`
	DemotedCount      int     `json:"demotedCount"`
	NoveltySuppressed int     `json:"noveltySuppressed"`
}

type QualityGate struct {
	Triggered bool     `json:"triggered"`
	AvgFit    float64  `json:"avgFit"`
	Reasons   []string `json:"reasons,omitempty"`
}

type NoveltyOutcome struct {
	WindowDays      int `json:"windowDays"`
	MatchedRequests int `json:"matchedRequests"`
	ExcludedIDs     int `json:"excludedIds"`
}
