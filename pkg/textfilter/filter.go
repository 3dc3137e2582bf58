package textfilter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// replacements maps words that should not reach the generation vendor in
// family-friendly worlds to tame alternatives. User prompts are filtered
// before drafting; generated text is trusted to follow the content rating
// carried in the prompt itself.
var replacements = map[string]string{
	"fuck":     "fudge",
	"shit":     "shoot",
	"damn":     "dang",
	"hell":     "heck",
	"ass":      "butt",
	"bitch":    "jerk",
	"bastard":  "scoundrel",
	"crap":     "crud",
	"asshole":  "jerk",
	"goddamn":  "gosh-dang",
	"bullshit": "baloney",
	"prick":    "jerk",
}

// PromptFilter replaces profanity in outbound prompts with family-friendly
// alternatives, preserving the case of the original word.
type PromptFilter struct {
	regexes map[string]*regexp.Regexp
}

func NewPromptFilter() *PromptFilter {
	pf := &PromptFilter{regexes: make(map[string]*regexp.Regexp, len(replacements))}
	for word := range replacements {
		pf.regexes[word] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	}
	return pf
}

// Sanitize returns the prompt with profanity replaced. Word boundaries are
// respected, so "classical" is untouched.
func (pf *PromptFilter) Sanitize(prompt string) string {
	result := prompt
	for word, regex := range pf.regexes {
		replacement := replacements[word]
		result = regex.ReplaceAllStringFunc(result, func(match string) string {
			return matchCase(match, replacement)
		})
	}
	return result
}

// ContainsProfanity reports whether the prompt matches any filtered word.
func (pf *PromptFilter) ContainsProfanity(prompt string) bool {
	for _, regex := range pf.regexes {
		if regex.MatchString(prompt) {
			return true
		}
	}
	return false
}

// ShouldFilter reports whether a content rating calls for prompt filtering.
func ShouldFilter(rating string) bool {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case "G", "PG", "PG13", "PG-13":
		return true
	}
	return false
}

// matchCase applies the case pattern of the original word to the replacement.
func matchCase(original, replacement string) string {
	if original == strings.ToUpper(original) {
		return strings.ToUpper(replacement)
	}
	if original == strings.ToLower(original) {
		return replacement
	}
	if r := []rune(original); len(r) > 0 && unicode.IsUpper(r[0]) {
		return cases.Title(language.English).String(replacement)
	}
	return replacement
}
