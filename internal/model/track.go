package model

type Track string

const (
	TrackTech    Track = "tech"
	TrackNonTech Track = "non_tech"
)

type TrackMethod string

const (
	TrackMethodHint       TrackMethod = "hint"
	TrackMethodClassifier TrackMethod = "classifier"
	TrackMethodDefault    TrackMethod = "default"
)

// TrackDecision records how a job was classified. It is persisted verbatim on
// the sourcing request at creation time and reused on idempotent replays even
// after classifier upgrades; staleness there is deliberate.
type TrackDecision struct {
	Track             Track       `json:"track"`
	Confidence        float64     `json:"confidence"`
	Method            TrackMethod `json:"method"`
	ClassifierVersion string      `json:"classifierVersion"`
	HintSource        *string     `json:"hintSource,omitempty"`
	HintReason        *string     `json:"hintReason,omitempty"`
}
