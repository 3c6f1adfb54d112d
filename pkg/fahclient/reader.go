// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fahclient

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// Wire framing sentinels. Each message block is
//
//	PyON <version> <key>\n
//	<payload>\n
//	---\n
//
// interleaved with telnet-style prompt bytes the extractor discards.
const (
	pyonHeader = "PyON "
	pyonFooter = "\n---\n"
)

// MessageExtractor accumulates socket fragments and yields complete framed
// messages.
//
// A single payload may arrive split across any number of socket reads; the
// extractor buffers partial data until the closing sentinel arrives and
// never yields a partial message. It is not safe for concurrent use; the
// read loop owns it exclusively.
type MessageExtractor struct {
	buf bytes.Buffer
}

// Feed appends one socket fragment to the buffer.
func (x *MessageExtractor) Feed(p []byte) {
	x.buf.Write(p)
}

// Next extracts the next complete message, in wire order.
//
// Returns nil when no complete frame is buffered yet. Bytes preceding a
// frame header (prompts, echoes) are discarded once a header is found.
func (x *MessageExtractor) Next() *Message {
	data := x.buf.Bytes()

	start := bytes.Index(data, []byte(pyonHeader))
	if start < 0 {
		return nil
	}
	headerEnd := bytes.IndexByte(data[start:], '\n')
	if headerEnd < 0 {
		return nil
	}
	headerEnd += start

	footer := bytes.Index(data[headerEnd:], []byte(pyonFooter))
	if footer < 0 {
		return nil
	}
	footer += headerEnd

	headerLine := string(data[start:headerEnd])
	payload := append([]byte(nil), data[headerEnd+1:footer]...)

	// Consume through the footer; the remainder stays buffered for the
	// next read.
	x.buf.Next(footer + len(pyonFooter))

	return &Message{
		ID:         uuid.New().String(),
		Key:        messageKey(headerLine),
		Payload:    payload,
		ReceivedAt: time.Now().UTC(),
	}
}

// Pending reports whether the buffer holds the start of an unfinished
// frame. A connection that closes while Pending is true died mid-message.
func (x *MessageExtractor) Pending() bool {
	return bytes.Contains(x.buf.Bytes(), []byte(pyonHeader))
}

// Reset discards all buffered data.
func (x *MessageExtractor) Reset() {
	x.buf.Reset()
}

// messageKey pulls the message type key out of a "PyON 1 <key>" header.
func messageKey(headerLine string) string {
	fields := bytes.Fields([]byte(headerLine))
	if len(fields) < 3 {
		return ""
	}
	return string(fields[2])
}
