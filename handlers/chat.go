package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"cinepick/models"
	"cinepick/services/completion"
	"cinepick/services/recommend"
)

// Event types written to the NDJSON chat stream.
const (
	EventDelta    = "delta"
	EventEnvelope = "envelope"
	EventComplete = "complete"
	EventError    = "error"
)

type completionChannel interface {
	Complete(context.Context, []models.ConversationMessage) (string, error)
	Stream(context.Context, []models.ConversationMessage) (*completion.Stream, error)
}

var _ completionChannel = (*completion.Channel)(nil)

type envelopeAssembler interface {
	Preview(raw string) models.RecommendationEnvelope
	Assemble(ctx context.Context, raw string) models.RecommendationEnvelope
}

var _ envelopeAssembler = (*recommend.Assembler)(nil)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages []models.ConversationMessage `json:"messages"`
}

// ChatEvent is one line of the streamed chat response.
type ChatEvent struct {
	Type     string                         `json:"type"`
	Content  string                         `json:"content,omitempty"`
	Envelope *models.RecommendationEnvelope `json:"envelope,omitempty"`
	Error    string                         `json:"error,omitempty"`
}

// ChatHandler runs a conversation turn: completion, then parse and resolve.
type ChatHandler struct {
	Channel   completionChannel
	Assembler envelopeAssembler
	// Timeout bounds the whole turn. Zero leaves it to the request context.
	Timeout time.Duration
}

func NewChatHandler(channel completionChannel, assembler envelopeAssembler, timeout time.Duration) *ChatHandler {
	return &ChatHandler{Channel: channel, Assembler: assembler, Timeout: timeout}
}

// Chat streams NDJSON events by default. ?mode=buffered or Accept: application/json
// returns a single envelope instead.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !hasUserTurn(req.Messages) {
		writeError(w, http.StatusBadRequest, "messages must include at least one user message")
		return
	}

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	turnID := uuid.NewString()
	if wantsBuffered(r) {
		h.buffered(ctx, w, turnID, req.Messages)
		return
	}
	h.streamed(ctx, w, turnID, req.Messages)
}

func (h *ChatHandler) buffered(ctx context.Context, w http.ResponseWriter, turnID string, messages []models.ConversationMessage) {
	raw, err := h.Channel.Complete(ctx, messages)
	if err != nil {
		env := recommend.FailureEnvelope("", err)
		env.ID = turnID
		writeJSON(w, failureStatus(err), env)
		return
	}

	env := h.Assembler.Assemble(ctx, raw)
	env.ID = turnID
	status := http.StatusOK
	if env.Status == models.StatusError {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, env)
}

func (h *ChatHandler) streamed(ctx context.Context, w http.ResponseWriter, turnID string, messages []models.ConversationMessage) {
	stream, err := h.Channel.Stream(ctx, messages)
	if err != nil {
		env := recommend.FailureEnvelope("", err)
		env.ID = turnID
		writeJSON(w, failureStatus(err), env)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	ew := newEventWriter(w)

	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			partial := stream.Text()
			env := recommend.FailureEnvelope(partial, err)
			env.ID = turnID
			_ = ew.write(ChatEvent{Type: EventError, Content: partial, Envelope: &env, Error: failureMessage(err)})
			return
		}
		if err := ew.write(ChatEvent{Type: EventDelta, Content: fragment}); err != nil {
			log.Printf("[chat] client went away during stream: %v", err)
			return
		}
	}
	_ = stream.Close()

	raw := stream.Text()
	preview := h.Assembler.Preview(raw)
	preview.ID = turnID
	if err := ew.write(ChatEvent{Type: EventEnvelope, Envelope: &preview}); err != nil {
		log.Printf("[chat] client went away before resolution: %v", err)
		return
	}

	env := h.Assembler.Assemble(ctx, raw)
	env.ID = turnID
	final := ChatEvent{Type: EventComplete, Content: raw, Envelope: &env}
	if env.Status == models.StatusError {
		final = ChatEvent{Type: EventError, Content: raw, Envelope: &env, Error: "recommendation assembly failed"}
	}
	if err := ew.write(final); err != nil {
		log.Printf("[chat] write final event: %v", err)
	}
}

type eventWriter struct {
	w       http.ResponseWriter
	enc     *json.Encoder
	flusher http.Flusher
}

func newEventWriter(w http.ResponseWriter) *eventWriter {
	flusher, _ := w.(http.Flusher)
	return &eventWriter{w: w, enc: json.NewEncoder(w), flusher: flusher}
}

func (e *eventWriter) write(ev ChatEvent) error {
	if err := e.enc.Encode(ev); err != nil {
		return err
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}

func hasUserTurn(messages []models.ConversationMessage) bool {
	for _, m := range messages {
		if strings.EqualFold(strings.TrimSpace(m.Role), models.RoleUser) && strings.TrimSpace(m.Content) != "" {
			return true
		}
	}
	return false
}

func wantsBuffered(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("mode"), "buffered") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "application/x-ndjson")
}

func failureStatus(err error) int {
	switch {
	case errors.Is(err, completion.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, completion.ErrIncompleteStream):
		return "the model stopped responding before finishing"
	case errors.Is(err, context.DeadlineExceeded):
		return "the request timed out"
	case errors.Is(err, context.Canceled):
		return "the request was cancelled"
	default:
		return "the language model is unavailable"
	}
}
