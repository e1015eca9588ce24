package ai

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

const doneSentinel = "[DONE]"

// Frame is one decoded unit of a streamed completion.
type Frame struct {
	// Raw is the frame line as it arrived, without the trailing newline.
	// Forward it verbatim when proxying the stream.
	Raw string
	// Delta is the incremental text fragment carried by the frame, if any.
	Delta string
	// Done is set on the [DONE] sentinel frame.
	Done bool
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Stream decodes newline-delimited SSE frames from a streamed completion body.
//
// Blank lines and lines missing the "data: " prefix are ignored, as is any
// payload that fails to decode as JSON. Comment frames (":" prefix) carry no
// content but are surfaced so a proxying caller can forward keep-alives. EOF
// before the [DONE] sentinel is an interruption.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func newStream(body io.ReadCloser) *Stream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Stream{body: body, scanner: sc}
}

// Next returns the next content-carrying or terminal frame. After a Done
// frame, further calls return io.EOF.
func (s *Stream) Next() (Frame, error) {
	if s.done {
		return Frame{}, io.EOF
	}

	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r")

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			// Keep-alive comment; no content, but it must survive proxying.
			return Frame{Raw: line}, nil
		}

		payload, ok := strings.CutPrefix(trimmed, "data: ")
		if !ok {
			continue
		}

		if payload == doneSentinel {
			s.done = true
			return Frame{Raw: line, Done: true}, nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			// Partial or garbled frame; transport-level noise is expected.
			continue
		}

		var delta string
		if len(chunk.Choices) > 0 {
			delta = chunk.Choices[0].Delta.Content
		}
		return Frame{Raw: line, Delta: delta}, nil
	}

	if err := s.scanner.Err(); err != nil {
		return Frame{}, errors.Join(ErrStreamInterrupted, err)
	}
	return Frame{}, ErrStreamInterrupted
}

func (s *Stream) Close() error {
	return s.body.Close()
}
