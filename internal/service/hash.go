package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"talentgraph.app/sourcer/internal/model"
)

// ComputeJobContextHash derives the idempotency key for a job context. The
// track-hint fields are excluded: two submissions differing only in hints
// must resolve to the same request. Marshalling through a map gives sorted
// keys, so the hash is stable across field reordering.
func ComputeJobContextHash(jc model.JobContext) (string, error) {
	canonical := map[string]any{
		"jdDigest": jc.JDDigest,
	}
	if jc.Title != nil {
		canonical["title"] = *jc.Title
	}
	if len(jc.Skills) > 0 {
		canonical["skills"] = jc.Skills
	}
	if len(jc.GoodToHaveSkills) > 0 {
		canonical["goodToHaveSkills"] = jc.GoodToHaveSkills
	}
	if jc.Location != nil {
		canonical["location"] = *jc.Location
	}
	if jc.ExperienceYears != nil {
		canonical["experienceYears"] = *jc.ExperienceYears
	}
	if jc.Education != nil {
		canonical["education"] = *jc.Education
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("marshal job context for hashing: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
