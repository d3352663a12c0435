package ai

import (
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, d *SSEDecoder) ([]string, error) {
	t.Helper()
	var out []string
	for {
		text, ok, err := d.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, text)
	}
}

func frame(content string) string {
	return `data: {"choices":[{"delta":{"content":"` + content + `"}}]}` + "\n\n"
}

func TestSSEDecoder_FramesSplitAcrossReads(t *testing.T) {
	body := frame("Hel") + frame("lo") + "data: [DONE]\n\n"

	d := NewSSEDecoder(iotest.OneByteReader(strings.NewReader(body)))
	got, err := drain(t, d)

	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, got)
}

func TestSSEDecoder_SkipsMalformedFrames(t *testing.T) {
	body := ": keep-alive\n\n" +
		frame("a") +
		"data: {not json\n\n" +
		"event: ping\n" +
		frame("b") +
		"data: [DONE]\n\n"

	var malformed []string
	d := NewSSEDecoder(strings.NewReader(body))
	d.OnMalformed = func(p string) { malformed = append(malformed, p) }

	got, err := drain(t, d)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, []string{"{not json"}, malformed)
}

func TestSSEDecoder_DoneStopsReading(t *testing.T) {
	body := frame("x") + "data: [DONE]\n\n" + frame("ignored")

	got, err := drain(t, NewSSEDecoder(strings.NewReader(body)))

	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got)
}

func TestSSEDecoder_HandlesCRLFAndNoSpace(t *testing.T) {
	body := "data:{\"choices\":[{\"delta\":{\"content\":\"one\"}}]}\r\n\r\n" +
		"data: {\"choices\":[{\"delta\":{}}]}\r\n\r\n" +
		"data: [DONE]\r\n"

	got, err := drain(t, NewSSEDecoder(strings.NewReader(body)))

	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, got)
}

func TestSSEDecoder_EndOfBodyWithoutDone(t *testing.T) {
	got, err := drain(t, NewSSEDecoder(strings.NewReader(frame("tail"))))

	require.NoError(t, err)
	assert.Equal(t, []string{"tail"}, got)
}

func TestSSEDecoder_ErrorFrame(t *testing.T) {
	body := frame("partial") + `data: {"error":{"code":502,"message":"upstream gone"}}` + "\n\n"

	got, err := drain(t, NewSSEDecoder(strings.NewReader(body)))

	assert.Equal(t, []string{"partial"}, got)
	require.Error(t, err)
	assert.Equal(t, KindServer, KindOf(err))
	assert.Contains(t, err.Error(), "upstream gone")
}

func TestSSEDecoder_ReadErrorSurfaces(t *testing.T) {
	r := io.MultiReader(strings.NewReader(frame("ok")), iotest.ErrReader(io.ErrUnexpectedEOF))

	got, err := drain(t, NewSSEDecoder(r))

	assert.Equal(t, []string{"ok"}, got)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
