package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"zchat/internal/api"
	"zchat/internal/logger"
	"zchat/internal/sse"
	"zchat/pkg/types"
)

// chatLog is the component logger for turn handling.
var chatLog = logger.NewStyledLogger("chat")

// Phase is the conversation's turn state.
type Phase int

// A turn moves idle -> sending -> (streaming) -> idle. Failures also
// land back on idle; there is no resting error state.
const (
	PhaseIdle Phase = iota
	PhaseSending
	PhaseStreaming
)

// Submission rejections. None of these change conversation state.
var (
	ErrBusy       = errors.New("another turn is in progress")
	ErrEmptyInput = errors.New("message is empty")
	ErrOffline    = errors.New("offline, reconnect to send messages")
)

// StreamAbortedError marks an explicit user cancellation of a streaming
// turn. It is surfaced distinctly, never retried, and never rendered as
// a failure.
type StreamAbortedError struct{}

func (e *StreamAbortedError) Error() string { return "generation cancelled" }

// Option configures a Conversation.
type Option func(*Conversation)

// WithForceSync disables streaming; every conversational turn uses the
// one-shot endpoint.
func WithForceSync() Option {
	return func(c *Conversation) { c.forceSync = true }
}

// WithConnectivityProbe installs a reachability check consulted before
// each submission. Without one, submissions are always attempted.
func WithConnectivityProbe(probe func() bool) Option {
	return func(c *Conversation) { c.online = probe }
}

// WithDeltaHook installs a callback invoked with the assistant message's
// running content after every streamed update.
func WithDeltaHook(fn func(content string)) Option {
	return func(c *Conversation) { c.onDelta = fn }
}

// Conversation is the state machine behind one chat view. Turns are
// strictly sequential: Submit rejects while another turn is active, so
// the message log's order always reflects submission order and the only
// message ever mutated after append is the trailing assistant
// placeholder of an in-progress streaming turn.
//
// Methods are safe to call from a second goroutine (Cancel typically
// arrives from a signal handler); gen tracks log ownership so a turn
// superseded by StartNew can no longer touch the log.
type Conversation struct {
	api       *api.API
	forceSync bool
	online    func() bool
	onDelta   func(content string)

	mu           sync.Mutex
	phase        Phase
	gen          int
	messages     []types.Message
	sessionID    string
	langNotice   string
	cancelStream context.CancelFunc
}

// NewConversation creates an empty conversation over the typed API.
func NewConversation(a *api.API, opts ...Option) *Conversation {
	c := &Conversation{api: a}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit runs one full turn for the given user input: classify, call the
// backend, and append the assistant's reply. It blocks until the turn
// settles. Rejections (busy, empty input, offline) leave the log
// untouched; a cancelled stream returns StreamAbortedError with the
// placeholder discarded.
func (c *Conversation) Submit(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyInput
	}
	if c.online != nil && !c.online() {
		return ErrOffline
	}

	c.mu.Lock()
	if c.phase != PhaseIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.phase = PhaseSending
	c.gen++
	turn := c.gen
	c.langNotice = ""
	c.messages = append(c.messages, types.Message{Role: types.RoleUser, Content: trimmed})
	c.mu.Unlock()

	defer c.endTurn(turn)

	intent := Classify(trimmed)
	if intent.Kind == IntentImage {
		return c.imageTurn(ctx, turn, intent.Prompt)
	}

	if c.forceSync {
		return c.syncTurn(ctx, turn, trimmed)
	}

	err := c.streamTurn(ctx, turn, trimmed)
	if err == nil {
		return nil
	}
	var aborted *StreamAbortedError
	if errors.As(err, &aborted) {
		return err
	}
	chatLog.Warn("streaming unavailable, falling back", "error", err)
	return c.syncTurn(ctx, turn, trimmed)
}

// Cancel aborts the in-flight stream. It is valid only while streaming
// and reports whether anything was cancelled.
func (c *Conversation) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseStreaming || c.cancelStream == nil {
		return false
	}
	c.cancelStream()
	return true
}

// Hydrate switches the conversation to a stored session, replacing the
// message log and session handle wholesale. It is rejected while a turn
// is active and is a no-op when the session is already active.
func (c *Conversation) Hydrate(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	c.mu.Lock()
	if c.phase != PhaseIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	if sessionID == c.sessionID {
		c.mu.Unlock()
		return nil
	}
	c.phase = PhaseSending
	c.gen++
	turn := c.gen
	c.mu.Unlock()

	defer c.endTurn(turn)

	detail, err := c.api.SessionDetail(ctx, sessionID)
	if err != nil {
		return err
	}

	hydrated := make([]types.Message, 0, len(detail.Messages))
	for _, msg := range detail.Messages {
		if msg.Role != types.RoleUser && msg.Role != types.RoleAssistant {
			continue
		}
		hydrated = append(hydrated, types.Message{Role: msg.Role, Content: msg.Content})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != turn {
		return nil
	}
	c.messages = hydrated
	if detail.ID != "" {
		c.sessionID = detail.ID
	} else {
		c.sessionID = sessionID
	}
	c.langNotice = ""
	chatLog.Debug("session hydrated", "session", c.sessionID, "messages", len(hydrated))
	return nil
}

// StartNew clears the conversation for a fresh, unpersisted session. A
// non-streaming turn in flight rejects the call; an in-flight stream is
// cancelled first. The cancelled turn's goroutine loses log ownership
// and unwinds without touching the cleared state.
func (c *Conversation) StartNew() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseSending {
		return ErrBusy
	}
	if c.phase == PhaseStreaming && c.cancelStream != nil {
		c.cancelStream()
	}
	c.gen++
	c.phase = PhaseIdle
	c.cancelStream = nil
	c.messages = nil
	c.sessionID = ""
	c.langNotice = ""
	return nil
}

// Messages returns a copy of the ordered message log.
func (c *Conversation) Messages() []types.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// SessionID returns the active backend session id, or "" for a new,
// unpersisted conversation.
func (c *Conversation) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// LangNotice returns the detected-language notice from the last turn,
// or "" when the input was English.
func (c *Conversation) LangNotice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.langNotice
}

// Phase returns the current turn state.
func (c *Conversation) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Conversation) imageTurn(ctx context.Context, turn int, prompt string) error {
	chatLog.Debug("image turn", "prompt", prompt)
	encoded, err := c.api.GenerateImage(ctx, prompt)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != turn {
		return nil
	}
	c.messages = append(c.messages, types.Message{
		Role:    types.RoleAssistant,
		Content: "data:image/png;base64," + encoded,
		IsImage: true,
	})
	return nil
}

func (c *Conversation) syncTurn(ctx context.Context, turn int, text string) error {
	resp, err := c.api.Send(ctx, c.buildRequest(text))
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != turn {
		return nil
	}
	reply := resp.Response
	if reply == "" {
		reply = "No reply received."
	}
	c.messages = append(c.messages, types.Message{Role: types.RoleAssistant, Content: reply})
	c.applyMetaLocked(resp.DetectedLang, resp.SessionID)
	return nil
}

func (c *Conversation) streamTurn(ctx context.Context, turn int, text string) error {
	req := c.buildRequest(text)

	streamCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.phase = PhaseStreaming
	c.cancelStream = cancel
	c.mu.Unlock()

	defer func() {
		cancel()
		c.mu.Lock()
		if c.gen == turn {
			c.cancelStream = nil
			c.phase = PhaseSending
		}
		c.mu.Unlock()
	}()

	stream, err := c.api.Stream(streamCtx, req)
	if err != nil {
		if streamCtx.Err() != nil && ctx.Err() == nil {
			return &StreamAbortedError{}
		}
		return err
	}
	defer func() { _ = stream.Close() }()

	c.mu.Lock()
	if c.gen != turn {
		c.mu.Unlock()
		return &StreamAbortedError{}
	}
	c.messages = append(c.messages, types.Message{Role: types.RoleAssistant})
	c.mu.Unlock()

	decoder := sse.NewDecoder(stream)
	var buffer string
	for {
		event, err := decoder.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			c.discardPlaceholder(turn)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if streamCtx.Err() != nil {
				return &StreamAbortedError{}
			}
			return err
		}

		// Cancellation is checked before every log mutation so a
		// cancelled turn never appends a finalized message.
		if streamCtx.Err() != nil {
			c.discardPlaceholder(turn)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &StreamAbortedError{}
		}

		switch event.Type {
		case sse.EventMessage:
			buffer += event.Data
			c.replaceLast(turn, buffer)
		case sse.EventError:
			c.discardPlaceholder(turn)
			if event.Data == "" {
				return errors.New("stream failed")
			}
			return fmt.Errorf("stream failed: %s", event.Data)
		case sse.EventDone:
			if event.Meta.FinalText != "" {
				buffer = event.Meta.FinalText
				c.replaceLast(turn, buffer)
			}
			c.mu.Lock()
			if c.gen == turn {
				c.applyMetaLocked(event.Meta.DetectedLang, event.Meta.SessionID)
			}
			c.mu.Unlock()
			return nil
		}
	}
}

// buildRequest assembles the turn payload. History rides along only for
// session-less turns; once a session id exists the log is implicit
// server-side. Image messages never enter the history.
func (c *Conversation) buildRequest(text string) types.ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	req := types.ChatRequest{Message: text, SessionID: c.sessionID}
	if req.SessionID != "" {
		return req
	}
	for _, msg := range c.messages {
		if msg.IsImage {
			continue
		}
		req.History = append(req.History, types.Message{Role: msg.Role, Content: msg.Content})
	}
	return req
}

// replaceLast mutates the trailing assistant placeholder in place. Only
// the streaming turn that appended it may call this; gen enforces that.
func (c *Conversation) replaceLast(turn int, content string) {
	c.mu.Lock()
	if c.gen != turn || len(c.messages) == 0 {
		c.mu.Unlock()
		return
	}
	c.messages[len(c.messages)-1].Content = content
	hook := c.onDelta
	c.mu.Unlock()

	if hook != nil {
		hook(content)
	}
}

// discardPlaceholder removes the in-progress assistant message so a
// failed or cancelled stream leaves no partial-looking reply behind.
func (c *Conversation) discardPlaceholder(turn int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != turn || len(c.messages) == 0 {
		return
	}
	if last := c.messages[len(c.messages)-1]; last.Role != types.RoleAssistant {
		return
	}
	c.messages = c.messages[:len(c.messages)-1]
}

func (c *Conversation) applyMetaLocked(lang, sessionID string) {
	if lang != "" && lang != "en" {
		c.langNotice = "Detected language: " + strings.ToUpper(lang)
	} else {
		c.langNotice = ""
	}
	if sessionID != "" {
		c.sessionID = sessionID
	}
}

func (c *Conversation) endTurn(turn int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != turn {
		return
	}
	c.phase = PhaseIdle
	c.cancelStream = nil
}
