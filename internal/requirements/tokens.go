package requirements

import "strings"

// tokenize splits lowercased text into alphanumeric tokens. "." and "+" and
// "#" stick to their token so "node.js" and "c++" survive as single tokens.
func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return false
		case r == '.' || r == '+' || r == '#':
			return false
		default:
			return true
		}
	})
}

// containsTokenPhrase reports whether the (already lowercased) phrase occurs
// in the lowercased text as a contiguous whole-token sequence. This is the
// containment primitive everywhere a substring check would collide ("russia"
// inside "prussia", "usa" inside "thousand").
func containsTokenPhrase(lowerText, lowerPhrase string) bool {
	phraseTokens := tokenize(lowerPhrase)
	if len(phraseTokens) == 0 {
		return false
	}
	textTokens := tokenize(lowerText)

outer:
	for i := 0; i+len(phraseTokens) <= len(textTokens); i++ {
		for j, pt := range phraseTokens {
			if strings.Trim(textTokens[i+j], ".") != strings.Trim(pt, ".") {
				continue outer
			}
		}
		return true
	}
	return false
}
