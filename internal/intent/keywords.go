package intent

import "strings"

// One keyword table feeds both the override stage and the parse-failure
// fallback. Keeping a single copy prevents the two degradation paths from
// drifting apart.

var informationKeywords = []string{
	// question words
	"what", "which", "who", "when", "where", "how", "why",
	// request verbs
	"tell me", "explain", "describe", "summarize", "find the", "show me the",
	// domain phrases
	"about this page", "most views", "most likes", "popular",
}

var actionKeywords = []string{
	// interaction verbs
	"click on", "press on", "scroll", "type", "focus on", "go back", "go forward",
	// manipulation phrases
	"make text", "dark mode", "hide ads", "change background",
	"zoom in", "zoom out",
	"can you make", "can you change", "can you hide",
}

// IsInformationRequest reports whether the utterance carries an information
// keyword. Information keywords always win over action keywords: a wrongly
// triggered action is more disruptive than an unanswered one.
func IsInformationRequest(utterance string) bool {
	lower := strings.ToLower(utterance)

	for _, kw := range informationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	return false
}

// HasActionKeyword reports whether the utterance carries an action keyword.
func HasActionKeyword(utterance string) bool {
	lower := strings.ToLower(utterance)

	for _, kw := range actionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	return false
}

// IsLikelyAction is the parse-failure heuristic: action keyword present and
// no information keyword.
func IsLikelyAction(utterance string) bool {
	return HasActionKeyword(utterance) && !IsInformationRequest(utterance)
}
