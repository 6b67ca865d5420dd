// Package requirements turns a job-description digest and structured job
// fields into normalized requirements, and owns the shared vocabulary
// (seniority ladder, role families, location tables) the ranking engine and
// novelty filter reuse.
package requirements

import (
	"encoding/json"
	"strings"

	"talentgraph.app/sourcer/internal/model"
)

// StructuredFields are the explicit job fields a caller may supply alongside
// (or instead of) the free-text digest.
type StructuredFields struct {
	Title            *string
	Skills           []string
	GoodToHaveSkills []string
	Location         *string
	ExperienceYears  *float64
	Education        *string
}

// digestPayload is the JSON shape a structured digest may carry.
type digestPayload struct {
	TopSkills       []string `json:"topSkills"`
	SeniorityLevel  *string  `json:"seniorityLevel"`
	Domain          *string  `json:"domain"`
	RoleFamily      *string  `json:"roleFamily"`
	Location        *string  `json:"location"`
	ExperienceYears *float64 `json:"experienceYears"`
	Education       *string  `json:"education"`
}

// Extract derives JobRequirements from a digest plus structured fields.
// Parsing never fails: anything unparsable degrades to nil fields so ranking
// can proceed with reduced signal.
//
// Order: a digest that parses as JSON with topSkills wins outright; otherwise
// the digest is split on ";" then ","; an empty digest falls back entirely to
// the structured fields.
func Extract(digest string, fields StructuredFields) model.JobRequirements {
	digest = strings.TrimSpace(digest)

	if digest != "" {
		if reqs, ok := fromJSONDigest(digest); ok {
			fillFromFields(&reqs, fields)
			return reqs
		}
		reqs := model.JobRequirements{TopSkills: splitSkills(digest)}
		fillFromFields(&reqs, fields)
		return reqs
	}

	reqs := model.JobRequirements{
		TopSkills: dedupeSkills(append(append([]string{}, fields.Skills...), fields.GoodToHaveSkills...)),
	}
	fillFromFields(&reqs, fields)
	return reqs
}

// FromJobContext is the common entry point: extract requirements from a
// sourcing request's job context.
func FromJobContext(jc model.JobContext) model.JobRequirements {
	return Extract(jc.JDDigest, StructuredFields{
		Title:            jc.Title,
		Skills:           jc.Skills,
		GoodToHaveSkills: jc.GoodToHaveSkills,
		Location:         jc.Location,
		ExperienceYears:  jc.ExperienceYears,
		Education:        jc.Education,
	})
}

func fromJSONDigest(digest string) (model.JobRequirements, bool) {
	var payload digestPayload
	if err := json.Unmarshal([]byte(digest), &payload); err != nil {
		return model.JobRequirements{}, false
	}
	if payload.TopSkills == nil {
		return model.JobRequirements{}, false
	}

	reqs := model.JobRequirements{
		TopSkills:       dedupeSkills(payload.TopSkills),
		Domain:          payload.Domain,
		RoleFamily:      payload.RoleFamily,
		Location:        payload.Location,
		ExperienceYears: payload.ExperienceYears,
		Education:       payload.Education,
	}
	if payload.SeniorityLevel != nil {
		if s, ok := ParseSeniority(*payload.SeniorityLevel); ok {
			reqs.SeniorityLevel = &s
		}
	}
	return reqs, true
}

// fillFromFields fills gaps in reqs from the structured fields, inferring
// seniority and role family from the title by keyword matching.
func fillFromFields(reqs *model.JobRequirements, fields StructuredFields) {
	if len(reqs.TopSkills) == 0 {
		reqs.TopSkills = dedupeSkills(append(append([]string{}, fields.Skills...), fields.GoodToHaveSkills...))
	}
	if reqs.Location == nil && fields.Location != nil && strings.TrimSpace(*fields.Location) != "" {
		reqs.Location = fields.Location
	}
	if reqs.ExperienceYears == nil {
		reqs.ExperienceYears = fields.ExperienceYears
	}
	if reqs.Education == nil && fields.Education != nil && strings.TrimSpace(*fields.Education) != "" {
		reqs.Education = fields.Education
	}

	if fields.Title != nil {
		if reqs.SeniorityLevel == nil {
			if s, ok := ParseSeniority(*fields.Title); ok {
				reqs.SeniorityLevel = &s
			}
		}
		if reqs.RoleFamily == nil {
			if family := InferRoleFamily(*fields.Title); family != "" {
				reqs.RoleFamily = &family
			}
		}
	}
}

// splitSkills splits a plain-text digest into a skill list: ";" first, then
// "," within each segment.
func splitSkills(digest string) []string {
	var raw []string
	for _, seg := range strings.Split(digest, ";") {
		for _, part := range strings.Split(seg, ",") {
			raw = append(raw, part)
		}
	}
	return dedupeSkills(raw)
}

// dedupeSkills trims, drops empties, and deduplicates case-insensitively
// while preserving first-seen casing and order.
func dedupeSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
