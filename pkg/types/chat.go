package types

// Message roles. The backend only ever produces these two; anything else
// in a stored session is skipped on hydration.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry in a conversation log. IsImage marks
// assistant messages whose content is a data URL produced by the image
// generation path rather than text.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	IsImage bool   `json:"is_image,omitempty"`
}

// ChatRequest is the body for POST /chat/ and /chat/stream. SessionID and
// History are mutually exclusive: once the backend has assigned a session
// id the history lives server-side and must not be resent.
type ChatRequest struct {
	Message   string    `json:"message"`
	SessionID string    `json:"session_id,omitempty"`
	History   []Message `json:"history,omitempty"`
}

// ChatResponse is the one-shot reply from POST /chat/.
type ChatResponse struct {
	Response     string `json:"response"`
	DetectedLang string `json:"detected_lang,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
}

// SessionSummary is one row of GET /chat/sessions.
type SessionSummary struct {
	ID                 string `json:"id"`
	Title              string `json:"title,omitempty"`
	LastMessagePreview string `json:"last_message_preview,omitempty"`
}

// SessionDetail is the full record from GET /chat/sessions/{id}.
type SessionDetail struct {
	ID       string    `json:"id"`
	Title    string    `json:"title,omitempty"`
	Messages []Message `json:"messages"`
}

// ImageRequest is the body for POST /image/generate.
type ImageRequest struct {
	Prompt string `json:"prompt"`
}

// ImageResponse carries the generated image as a base64 payload.
type ImageResponse struct {
	ImageBase64 string `json:"image_base64"`
}

// TranslationRequest is the body for POST /translate/translate.
type TranslationRequest struct {
	Text string `json:"text"`
	From string `json:"from"`
	To   string `json:"to"`
}

// TranslationResponse carries the translated text.
type TranslationResponse struct {
	TranslatedText string `json:"translated_text"`
}
