package requirements

import "strings"

// cityAliases maps alternate city spellings to a canonical key. Alias pairs
// score as exact-city matches across the pair.
var cityAliases = map[string]string{
	"bengaluru": "bangalore",
	"bombay":    "mumbai",
	"new delhi": "delhi",
	"gurugram":  "gurgaon",
	"calcutta":  "kolkata",
	"saigon":    "ho chi minh city",
	"nyc":       "new york",
	"sf":        "san francisco",
}

// cityCountry maps canonical city keys to ISO-ish country codes, used to
// infer a country when the location string names only a city.
var cityCountry = map[string]string{
	"san francisco":    "us",
	"new york":         "us",
	"seattle":          "us",
	"austin":           "us",
	"boston":           "us",
	"chicago":          "us",
	"los angeles":      "us",
	"london":           "gb",
	"manchester":       "gb",
	"berlin":           "de",
	"munich":           "de",
	"paris":            "fr",
	"amsterdam":        "nl",
	"dublin":           "ie",
	"toronto":          "ca",
	"vancouver":        "ca",
	"sydney":           "au",
	"melbourne":        "au",
	"singapore":        "sg",
	"tokyo":            "jp",
	"moscow":           "ru",
	"bangalore":        "in",
	"mumbai":           "in",
	"delhi":            "in",
	"hyderabad":        "in",
	"chennai":          "in",
	"pune":             "in",
	"gurgaon":          "in",
	"kolkata":          "in",
	"ho chi minh city": "vn",
	"sao paulo":        "br",
}

// countryTokens maps country-name tokens (and common abbreviations) to a
// country code. Matching is whole-token only: "Russia" must never satisfy a
// "USA" target through substring containment.
var countryTokens = map[string]string{
	"usa":            "us",
	"us":             "us",
	"u.s.":           "us",
	"united states":  "us",
	"america":        "us",
	"uk":             "gb",
	"united kingdom": "gb",
	"england":        "gb",
	"great britain":  "gb",
	"india":          "in",
	"germany":        "de",
	"deutschland":    "de",
	"france":         "fr",
	"netherlands":    "nl",
	"ireland":        "ie",
	"canada":         "ca",
	"australia":      "au",
	"singapore":      "sg",
	"japan":          "jp",
	"russia":         "ru",
	"vietnam":        "vn",
	"brazil":         "br",
}

// serpBoilerplate marks location text that is really a scraped profile
// snippet, not a place.
var serpBoilerplate = []string{
	"view the profiles",
	"professionals named",
	"linkedin members",
	"profile on linkedin",
	"the world's largest professional",
}

// Location is a canonicalized place: a city key (post-alias), the raw city as
// written, and an inferred country code. Any field may be empty.
type Location struct {
	City    string
	CityKey string
	Country string
}

// CityScoped reports whether the location names a specific city rather than
// just a country.
func (l Location) CityScoped() bool { return l.CityKey != "" }

func (l Location) Empty() bool { return l.CityKey == "" && l.Country == "" }

// ParseLocation canonicalizes a free-text location string. Placeholder or
// SERP-boilerplate text yields an empty Location.
func ParseLocation(raw string) Location {
	cleaned := strings.TrimSpace(raw)
	if IsPlaceholderLocation(cleaned) {
		return Location{}
	}

	lower := strings.ToLower(cleaned)
	loc := Location{}

	// Country from whole-token matches anywhere in the string.
	for token, code := range countryTokens {
		if containsTokenPhrase(lower, token) {
			loc.Country = code
			break
		}
	}

	// City: try each comma-separated segment against the known city tables.
	for _, seg := range strings.Split(lower, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		key := seg
		if canonical, ok := cityAliases[key]; ok {
			key = canonical
		}
		if country, ok := cityCountry[key]; ok {
			loc.City = seg
			loc.CityKey = key
			if loc.Country == "" {
				loc.Country = country
			}
			break
		}
	}

	// Unknown city but clearly not a country either: keep the first segment
	// as a city-scoped target so exact string matches still work.
	if loc.CityKey == "" && loc.Country == "" {
		first := strings.TrimSpace(strings.Split(lower, ",")[0])
		if first != "" {
			if canonical, ok := cityAliases[first]; ok {
				first = canonical
			}
			loc.City = first
			loc.CityKey = first
		}
	}

	return loc
}

// IsPlaceholderLocation reports whether the text carries no usable location
// signal: empty, ellipsis-style placeholders, or scraped SERP boilerplate.
func IsPlaceholderLocation(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return true
	}
	if strings.Trim(trimmed, ".·…- ") == "" {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, phrase := range serpBoilerplate {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
