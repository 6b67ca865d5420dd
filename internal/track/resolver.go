// Package track classifies a job as tech or non_tech. Decisions are
// versioned and persisted once per sourcing request; replays reuse the
// persisted decision even after classifier upgrades.
package track

import (
	"strings"

	"talentgraph.app/sourcer/internal/model"
	"talentgraph.app/sourcer/internal/requirements"
)

// ClassifierVersion changes whenever the keyword heuristics below change.
// Persisted decisions keep the version they were made under.
const ClassifierVersion = "v2"

// Hint is the caller-supplied track hint. An "auto" or absent hint defers to
// the classifier.
type Hint struct {
	Track  string // "auto", "tech" or "non_tech"
	Source string // "user" or "system"
	Reason string
}

// techSkillKeywords flag a skill as a tech signal when the role family alone
// is inconclusive.
var techSkillKeywords = map[string]bool{
	"go": true, "golang": true, "java": true, "python": true, "javascript": true,
	"typescript": true, "react": true, "node.js": true, "kubernetes": true,
	"docker": true, "aws": true, "gcp": true, "azure": true, "sql": true,
	"postgresql": true, "postgres": true, "redis": true, "c++": true, "c#": true,
	"rust": true, "terraform": true, "linux": true, "graphql": true, "ruby": true,
	"swift": true, "kotlin": true, "scala": true, "machine learning": true,
}

// Resolver resolves a track decision from requirements plus an optional hint.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve produces a TrackDecision. A tech/non_tech hint resolves
// immediately with confidence 1.0; otherwise the keyword classifier runs; a
// job with no classifiable signal at all falls back to the tenant's default
// track.
func (r *Resolver) Resolve(reqs model.JobRequirements, hint *Hint, defaultTrack model.Track) model.TrackDecision {
	if hint != nil {
		switch hint.Track {
		case string(model.TrackTech), string(model.TrackNonTech):
			decision := model.TrackDecision{
				Track:             model.Track(hint.Track),
				Confidence:        1.0,
				Method:            model.TrackMethodHint,
				ClassifierVersion: ClassifierVersion,
			}
			if hint.Source != "" {
				decision.HintSource = &hint.Source
			}
			if hint.Reason != "" {
				decision.HintReason = &hint.Reason
			}
			return decision
		}
	}

	if track, confidence, ok := r.classify(reqs); ok {
		return model.TrackDecision{
			Track:             track,
			Confidence:        confidence,
			Method:            model.TrackMethodClassifier,
			ClassifierVersion: ClassifierVersion,
		}
	}

	if defaultTrack == "" {
		defaultTrack = model.TrackTech
	}
	return model.TrackDecision{
		Track:             defaultTrack,
		Confidence:        0.5,
		Method:            model.TrackMethodDefault,
		ClassifierVersion: ClassifierVersion,
	}
}

// classify runs the deterministic keyword heuristics. It reports ok=false
// when the requirements carry no signal at all (no role family, no skills).
func (r *Resolver) classify(reqs model.JobRequirements) (model.Track, float64, bool) {
	hasFamily := reqs.RoleFamily != nil && *reqs.RoleFamily != ""
	if !hasFamily && len(reqs.TopSkills) == 0 {
		return "", 0, false
	}

	techSignals := 0
	totalSignals := 0

	if hasFamily {
		totalSignals += 2 // role family is the strongest single signal
		if requirements.IsTechRoleFamily(*reqs.RoleFamily) {
			techSignals += 2
		}
	}

	for _, skill := range reqs.TopSkills {
		totalSignals++
		if techSkillKeywords[strings.ToLower(strings.TrimSpace(skill))] {
			techSignals++
		}
	}

	ratio := float64(techSignals) / float64(totalSignals)
	if ratio >= 0.5 {
		return model.TrackTech, clampConfidence(ratio), true
	}
	return model.TrackNonTech, clampConfidence(1 - ratio), true
}

func clampConfidence(c float64) float64 {
	if c < 0.5 {
		return 0.5
	}
	if c > 1 {
		return 1
	}
	return c
}
