package types

// StreamMeta is the metadata payload of a terminal "done" stream frame.
// FinalText, when present, is authoritative and replaces the accumulated
// deltas; the streamed text is only a best-effort preview of it.
type StreamMeta struct {
	FinalText    string `json:"final_text,omitempty"`
	DetectedLang string `json:"detected_lang,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
}
