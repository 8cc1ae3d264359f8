package completion

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// Stream re-emits reply fragments as they arrive. Recv returns io.EOF once the
// provider finished the reply or the end marker was seen; any other error means the
// reply is incomplete.
type Stream struct {
	ctx      context.Context
	upstream *openai.ChatCompletionStream
	marker   string

	buf       strings.Builder
	finished  bool
	done      bool
	err       error
	closeOnce sync.Once
}

func newStream(ctx context.Context, upstream *openai.ChatCompletionStream, marker string) *Stream {
	return &Stream{ctx: ctx, upstream: upstream, marker: marker}
}

// Recv blocks until the next non-empty fragment is available.
func (s *Stream) Recv() (string, error) {
	if s.done {
		return "", s.err
	}
	for {
		resp, err := s.upstream.Recv()
		if err != nil {
			return "", s.fail(err)
		}

		var fragment strings.Builder
		for _, choice := range resp.Choices {
			fragment.WriteString(choice.Delta.Content)
			if choice.FinishReason != "" {
				s.finished = true
			}
		}
		if fragment.Len() == 0 {
			continue
		}

		text := fragment.String()
		s.buf.WriteString(text)
		if s.markerSeen(len(text)) {
			s.finished = true
			s.stop(io.EOF)
		}
		return text, nil
	}
}

// Text returns everything received so far.
func (s *Stream) Text() string { return s.buf.String() }

// Close releases the upstream connection without draining it. It is safe to call
// more than once.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.upstream.Close()
	})
	return err
}

// markerSeen only scans the tail that could contain a marker completed by the latest
// fragment.
func (s *Stream) markerSeen(fragmentLen int) bool {
	if s.marker == "" {
		return false
	}
	text := s.buf.String()
	start := len(text) - fragmentLen - len(s.marker)
	if start < 0 {
		start = 0
	}
	return strings.Contains(text[start:], s.marker)
}

func (s *Stream) fail(err error) error {
	switch {
	case errors.Is(err, io.EOF) && s.finished:
		s.stop(io.EOF)
	case errors.Is(err, io.EOF):
		if ctxErr := s.ctx.Err(); ctxErr != nil {
			s.stop(ctxErr)
		} else {
			log.Printf("[completion] stream closed after %d bytes without finishing", s.buf.Len())
			s.stop(ErrIncompleteStream)
		}
	default:
		if ctxErr := s.ctx.Err(); ctxErr != nil {
			s.stop(ctxErr)
		} else {
			s.stop(wrapUpstream(err))
		}
	}
	return s.err
}

func (s *Stream) stop(err error) {
	s.done = true
	s.err = err
	_ = s.Close()
}
