package stomp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_Marshal_Send(t *testing.T) {
	f := NewFrame(CmdSend,
		HdrDestination, "/app/chat/message",
		HdrContentType, "application/json",
	)
	f.Body = []byte(`{"content":"hi"}`)

	got := string(f.Marshal())

	want := "SEND\n" +
		"content-type:application/json\n" +
		"destination:/app/chat/message\n" +
		"content-length:16\n" +
		"\n" +
		`{"content":"hi"}` + "\x00"
	assert.Equal(t, want, got)
}

func TestFrame_Marshal_EscapesHeaderValues(t *testing.T) {
	f := NewFrame(CmdSubscribe, HdrDestination, "/topic/a:b\nc")

	got := string(f.Marshal())

	assert.Contains(t, got, `destination:/topic/a\cb\nc`)
}

func TestFrame_Marshal_ConnectHeadersLiteral(t *testing.T) {
	// CONNECT frames are transmitted without header escaping.
	f := NewFrame(CmdConnect,
		HdrAcceptVersion, "1.2",
		HdrHost, "localhost:8080",
		HdrHeartBeat, "0,0",
	)

	got := string(f.Marshal())

	assert.Contains(t, got, "host:localhost:8080\n")
}

func TestUnmarshal_Message(t *testing.T) {
	raw := "MESSAGE\n" +
		"destination:/topic/chat/1\n" +
		"subscription:sub-1\n" +
		"content-length:16\n" +
		"\n" +
		`{"content":"hi"}` + "\x00"

	f, err := Unmarshal([]byte(raw))

	require.NoError(t, err)
	assert.Equal(t, CmdMessage, f.Command)
	assert.Equal(t, "/topic/chat/1", f.Headers[HdrDestination])
	assert.Equal(t, "sub-1", f.Headers[HdrSubscription])
	assert.Equal(t, `{"content":"hi"}`, string(f.Body))
}

func TestUnmarshal_RoundTrip(t *testing.T) {
	in := NewFrame(CmdMessage,
		HdrDestination, "/topic/chat/9",
		HdrSubscription, "abc",
	)
	in.Body = []byte("body with\ntrailing newline\n")

	out, err := Unmarshal(in.Marshal())

	require.NoError(t, err)
	assert.Equal(t, in.Command, out.Command)
	assert.Equal(t, "/topic/chat/9", out.Headers[HdrDestination])
	assert.Equal(t, string(in.Body), string(out.Body), "content-length preserves body exactly, newlines included")
}

func TestUnmarshal_ContentLengthKeepsNulOctets(t *testing.T) {
	// With content-length the body ends after the declared octets, so
	// NULs inside it are payload, not terminators.
	raw := "MESSAGE\n" +
		"destination:/topic/chat/1\n" +
		"content-length:5\n" +
		"\n" +
		"ab\x00cd\x00"

	f, err := Unmarshal([]byte(raw))

	require.NoError(t, err)
	assert.Equal(t, []byte("ab\x00cd"), f.Body)
}

func TestUnmarshal_BodyShorterThanContentLength(t *testing.T) {
	raw := "MESSAGE\ncontent-length:10\n\nabc\x00"

	_, err := Unmarshal([]byte(raw))

	assert.Error(t, err)
}

func TestUnmarshal_CRLFFrame(t *testing.T) {
	raw := "CONNECTED\r\n" +
		"version:1.2\r\n" +
		"\r\n" +
		"\x00"

	f, err := Unmarshal([]byte(raw))

	require.NoError(t, err)
	assert.Equal(t, CmdConnected, f.Command)
	assert.Equal(t, "1.2", f.Headers["version"])
}

func TestUnmarshal_FirstRepeatedHeaderWins(t *testing.T) {
	raw := "MESSAGE\n" +
		"destination:/topic/chat/1\n" +
		"destination:/topic/chat/2\n" +
		"\n\x00"

	f, err := Unmarshal([]byte(raw))

	require.NoError(t, err)
	assert.Equal(t, "/topic/chat/1", f.Headers[HdrDestination])
}

func TestUnmarshal_UnescapesHeaderValues(t *testing.T) {
	raw := "ERROR\n" +
		`message:malformed frame\creceived` + "\n" +
		"\n\x00"

	f, err := Unmarshal([]byte(raw))

	require.NoError(t, err)
	assert.Equal(t, "malformed frame:received", f.Headers[HdrMessage])
}

func TestUnmarshal_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty frame", raw: "\x00"},
		{name: "malformed header line", raw: "MESSAGE\nno-colon-here\n\n\x00"},
		{name: "invalid escape", raw: "MESSAGE\n" + `key:bad\qescape` + "\n\n\x00"},
		{name: "dangling escape", raw: "MESSAGE\n" + `key:trailing\` + "\n\n\x00"},
		{name: "bad content length", raw: "MESSAGE\ncontent-length:abc\n\nx\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestUnmarshal_ConnectedWithoutBlankLine(t *testing.T) {
	f, err := Unmarshal([]byte("CONNECTED\nversion:1.2\n\x00"))

	require.NoError(t, err)
	assert.Equal(t, CmdConnected, f.Command)
	assert.Equal(t, "1.2", f.Headers["version"])
}

func TestIsHeartbeat(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{name: "lf", data: "\n", want: true},
		{name: "crlf", data: "\r\n", want: true},
		{name: "empty", data: "", want: true},
		{name: "frame", data: "MESSAGE\n\n\x00", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHeartbeat([]byte(tt.data)))
		})
	}
}
