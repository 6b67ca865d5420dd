package model

// TenantSettings are the per-tenant sourcing knobs. Storage of these is owned
// elsewhere; this process only reads them, through a TTL cache. Zero values
// mean "no override" and fall back to the configured defaults.
type TenantSettings struct {
	TenantID          string
	TargetCount       int
	MinGoodEnough     int
	JobMaxEnrich      int
	QualityMinAvgFit  float64
	QualityThreshold  float64
	NoveltyWindowDays int
	DefaultTrack      Track
	RankEpsilon       float64
	DemotionFitFloor  float64
	RescueFitFloor    float64
}
