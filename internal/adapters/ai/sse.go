package ai

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"halomind/pkg/errors"
)

// maxSSELineSize bounds a single frame; longer lines fail the stream
const maxSSELineSize = 1 << 20

// SSEDecoder incrementally decodes chat-completion deltas from a
// text/event-stream body. Frames split across reads are held by the scanner
// until their newline arrives. Lines without a data prefix and frames that do
// not decode are skipped; a [DONE] frame ends the stream.
type SSEDecoder struct {
	scanner *bufio.Scanner
	done    bool

	// OnMalformed is invoked for each skipped frame
	OnMalformed func(payload string)
}

// NewSSEDecoder creates a decoder reading from r
func NewSSEDecoder(r io.Reader) *SSEDecoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)
	return &SSEDecoder{scanner: scanner}
}

type sseDeltaFrame struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
	} `json:"error"`
}

// Next returns the next non-empty text delta. ok is false once the stream
// has ended, either at [DONE] or when the body is exhausted.
func (d *SSEDecoder) Next() (text string, ok bool, err error) {
	for !d.done && d.scanner.Scan() {
		line := strings.TrimRight(d.scanner.Text(), "\r")

		payload, isData := strings.CutPrefix(line, "data:")
		if !isData {
			continue
		}
		payload = strings.TrimPrefix(payload, " ")

		if strings.TrimSpace(payload) == "[DONE]" {
			d.done = true
			return "", false, nil
		}

		var frame sseDeltaFrame
		if jerr := json.Unmarshal([]byte(payload), &frame); jerr != nil {
			if d.OnMalformed != nil {
				d.OnMalformed(payload)
			}
			continue
		}

		if frame.Error != nil && frame.Error.Message != "" {
			d.done = true
			return "", false, &ProviderError{
				Provider: ProviderOpenRouter,
				Kind:     KindServer,
				Message:  frame.Error.Message,
			}
		}

		if len(frame.Choices) == 0 || frame.Choices[0].Delta.Content == "" {
			continue
		}
		return frame.Choices[0].Delta.Content, true, nil
	}

	if d.done {
		return "", false, nil
	}
	d.done = true

	if serr := d.scanner.Err(); serr != nil {
		return "", false, errors.Wrap(serr, "read event stream")
	}
	return "", false, nil
}
