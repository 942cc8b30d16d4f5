// Package chat owns the conversation state machine: it turns user input
// into outgoing requests, consumes streamed or one-shot replies, and
// maintains the ordered message log.
package chat

import (
	"regexp"
	"strings"
)

// IntentKind tags the classification of one user input.
type IntentKind int

// The two things a turn can ask for.
const (
	IntentChat IntentKind = iota
	IntentImage
)

// Intent is the result of classifying user input. For image requests,
// Prompt is the generation prompt with the trigger phrase stripped; for
// chat it is the original text.
type Intent struct {
	Kind   IntentKind
	Prompt string
}

// imageTrigger marks a turn as an image-generation request: one of the
// trigger verbs followed by "image", with an optional article. Matching
// is case-insensitive and runs directly on the submitted text, so the
// match offsets are valid byte positions in it even when lowercasing
// would change a rune's encoded length.
var imageTrigger = regexp.MustCompile(`(?i)(generate|create|draw)( an)? image`)

// Classify decides whether text is a conversational turn or an image
// request. "Generate an image of a red fox" yields an image intent with
// prompt "a red fox"; when stripping the trigger leaves nothing, the
// full text becomes the prompt.
func Classify(text string) Intent {
	loc := imageTrigger.FindStringIndex(text)
	if loc == nil {
		return Intent{Kind: IntentChat, Prompt: text}
	}

	remainder := text[:loc[0]] + text[loc[1]:]
	if len(remainder) >= 3 && strings.EqualFold(remainder[:3], " of") {
		remainder = remainder[3:]
	}
	prompt := strings.TrimSpace(remainder)
	if prompt == "" {
		prompt = strings.TrimSpace(text)
	}
	return Intent{Kind: IntentImage, Prompt: prompt}
}
