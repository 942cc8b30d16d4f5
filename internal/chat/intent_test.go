package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		kind   IntentKind
		prompt string
	}{
		{
			name:   "plain chat",
			input:  "hello there",
			kind:   IntentChat,
			prompt: "hello there",
		},
		{
			name:   "generate with article and subject",
			input:  "Generate an image of a red fox",
			kind:   IntentImage,
			prompt: "a red fox",
		},
		{
			name:   "generate without article",
			input:  "generate image of a cat",
			kind:   IntentImage,
			prompt: "a cat",
		},
		{
			name:   "draw verb",
			input:  "draw an image of mountains at dusk",
			kind:   IntentImage,
			prompt: "mountains at dusk",
		},
		{
			name:   "trigger with no subject keeps full text",
			input:  "Create an image",
			kind:   IntentImage,
			prompt: "Create an image",
		},
		{
			name:   "uppercase input",
			input:  "CREATE AN IMAGE OF SNOW",
			kind:   IntentImage,
			prompt: "SNOW",
		},
		{
			name:   "subject without of keyword",
			input:  "generate an image showing a harbor",
			kind:   IntentImage,
			prompt: "showing a harbor",
		},
		{
			name:   "verb and noun not adjacent",
			input:  "create a mental picture, not an image",
			kind:   IntentChat,
			prompt: "create a mental picture, not an image",
		},
		{
			name:   "talking about images is not a request",
			input:  "how do I generate good images of code",
			kind:   IntentChat,
			prompt: "how do I generate good images of code",
		},
		{
			name:   "earliest trigger wins",
			input:  "draw image generate an image",
			kind:   IntentImage,
			prompt: "generate an image",
		},
		{
			name:   "surrounding whitespace trimmed from prompt",
			input:  "generate an image of   a lighthouse  ",
			kind:   IntentImage,
			prompt: "a lighthouse",
		},
		{
			// 'Ⱥ' is two bytes but its lowercase form is three, so the
			// trigger must be located in the original text, not a
			// lowercased copy.
			name:   "rune that grows when lowercased before trigger",
			input:  "Ⱥ generate image",
			kind:   IntentImage,
			prompt: "Ⱥ",
		},
		{
			name:   "non-ascii subject survives intact",
			input:  "draw an image of İstanbul",
			kind:   IntentImage,
			prompt: "İstanbul",
		},
		{
			name:   "non-ascii text stays untouched in chat turns",
			input:  "İİİİİİİİİİ merhaba",
			kind:   IntentChat,
			prompt: "İİİİİİİİİİ merhaba",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := Classify(tt.input)
			assert.Equal(t, tt.kind, intent.Kind)
			assert.Equal(t, tt.prompt, intent.Prompt)
		})
	}
}
