package model

type Seniority string

const (
	SeniorityIntern    Seniority = "intern"
	SeniorityJunior    Seniority = "junior"
	SeniorityMid       Seniority = "mid"
	SenioritySenior    Seniority = "senior"
	SeniorityLead      Seniority = "lead"
	SeniorityPrincipal Seniority = "principal"
	SeniorityDirector  Seniority = "director"
	SeniorityVP        Seniority = "vp"
	SeniorityExecutive Seniority = "executive"
)

// JobRequirements is the normalized view of a job's requirements, derived
// once per sourcing request and immutable afterwards. Absent information is
// nil, never an error.
type JobRequirements struct {
	TopSkills       []string
	SeniorityLevel  *Seniority
	Domain          *string
	RoleFamily      *string
	Location        *string
	ExperienceYears *float64
	Education       *string
}
