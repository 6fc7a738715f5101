// Package stomp implements a minimal STOMP 1.2 client over a websocket
// connection, covering the subset the chat backend speaks: CONNECT,
// SUBSCRIBE, SEND and server-pushed MESSAGE/ERROR frames.
package stomp

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Frame commands used by the client and server.
const (
	CmdConnect     = "CONNECT"
	CmdConnected   = "CONNECTED"
	CmdSend        = "SEND"
	CmdSubscribe   = "SUBSCRIBE"
	CmdUnsubscribe = "UNSUBSCRIBE"
	CmdDisconnect  = "DISCONNECT"
	CmdMessage     = "MESSAGE"
	CmdReceipt     = "RECEIPT"
	CmdError       = "ERROR"
)

// Common header names.
const (
	HdrAcceptVersion = "accept-version"
	HdrHost          = "host"
	HdrHeartBeat     = "heart-beat"
	HdrDestination   = "destination"
	HdrID            = "id"
	HdrSubscription  = "subscription"
	HdrContentType   = "content-type"
	HdrContentLength = "content-length"
	HdrMessage       = "message"
)

// Frame is a single STOMP frame.
type Frame struct {
	Command string
	Headers map[string]string
	Body    []byte
}

// NewFrame creates a frame with the given command and header key/value
// pairs.
func NewFrame(command string, headers ...string) *Frame {
	f := &Frame{Command: command, Headers: make(map[string]string, len(headers)/2)}
	for i := 0; i+1 < len(headers); i += 2 {
		f.Headers[headers[i]] = headers[i+1]
	}
	return f
}

// escapeHeader applies STOMP 1.2 header value escaping. CONNECT and
// CONNECTED frames are transmitted unescaped per the protocol.
func escapeHeader(v string) string {
	r := strings.NewReplacer(`\`, `\\`, "\r", `\r`, "\n", `\n`, ":", `\c`)
	return r.Replace(v)
}

func unescapeHeader(v string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] != '\\' {
			b.WriteByte(v[i])
			continue
		}
		i++
		if i >= len(v) {
			return "", fmt.Errorf("dangling escape in header value")
		}
		switch v[i] {
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		case 'c':
			b.WriteByte(':')
		case '\\':
			b.WriteByte('\\')
		default:
			return "", fmt.Errorf("invalid header escape %q", `\`+string(v[i]))
		}
	}
	return b.String(), nil
}

func (f *Frame) literalHeaders() bool {
	return f.Command == CmdConnect || f.Command == CmdConnected
}

// Marshal serializes the frame to its wire form, terminated by a NUL
// octet. Headers are written in sorted order so output is deterministic.
func (f *Frame) Marshal() []byte {
	var buf bytes.Buffer
	buf.WriteString(f.Command)
	buf.WriteByte('\n')

	keys := make([]string, 0, len(f.Headers))
	for k := range f.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := f.Headers[k]
		if !f.literalHeaders() {
			v = escapeHeader(v)
		}
		buf.WriteString(k)
		buf.WriteByte(':')
		buf.WriteString(v)
		buf.WriteByte('\n')
	}

	if len(f.Body) > 0 && f.Headers[HdrContentLength] == "" {
		buf.WriteString(HdrContentLength)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(len(f.Body)))
		buf.WriteByte('\n')
	}

	buf.WriteByte('\n')
	buf.Write(f.Body)
	buf.WriteByte(0)
	return buf.Bytes()
}

// Unmarshal parses a single frame from its wire form. The body ends
// after content-length octets when the header is present, at the NUL
// terminator otherwise, so bodies may contain NUL octets themselves.
func Unmarshal(data []byte) (*Frame, error) {
	if len(bytes.TrimRight(data, "\x00")) == 0 {
		return nil, fmt.Errorf("empty frame")
	}

	head, body, found := bytes.Cut(data, []byte("\n\n"))
	if !found {
		head, body, found = bytes.Cut(data, []byte("\r\n\r\n"))
	}
	if !found {
		// Tolerate frames missing the blank line when they carry no
		// body, which some brokers emit for CONNECTED.
		head = bytes.TrimRight(data, "\x00\r\n")
		body = nil
	}

	lines := strings.Split(strings.TrimRight(string(head), "\r"), "\n")
	f := &Frame{
		Command: strings.TrimRight(lines[0], "\r"),
		Headers: make(map[string]string),
	}
	if f.Command == "" {
		return nil, fmt.Errorf("missing frame command")
	}

	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header line %q", line)
		}
		if !f.literalHeaders() {
			var err error
			if v, err = unescapeHeader(v); err != nil {
				return nil, err
			}
		}
		// First occurrence of a repeated header wins.
		if _, exists := f.Headers[k]; !exists {
			f.Headers[k] = v
		}
	}

	if n, ok := f.Headers[HdrContentLength]; ok {
		length, err := strconv.Atoi(n)
		if err != nil || length < 0 {
			return nil, fmt.Errorf("invalid content-length %q", n)
		}
		if length > len(body) {
			return nil, fmt.Errorf("body shorter than content-length %d", length)
		}
		body = body[:length]
	} else if i := bytes.IndexByte(body, 0); i >= 0 {
		body = body[:i]
	}
	f.Body = body
	return f, nil
}

// IsHeartbeat reports whether raw websocket payload is a bare STOMP
// heart-beat (a lone EOL) rather than a frame.
func IsHeartbeat(data []byte) bool {
	return len(bytes.TrimRight(data, "\r\n")) == 0
}
