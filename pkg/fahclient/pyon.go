// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fahclient

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"
)

// PyON (Python Object Notation) is the FahClient's JSON-like wire format.
// It differs from JSON in its literals (True/False/None) and in how log
// text payloads embed escaped newlines. This file normalizes PyON payloads
// to plain JSON for the standard decoder.

// pyonToJSON rewrites PyON literals to their JSON spellings. Literal
// replacement only happens outside string values.
func pyonToJSON(payload []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(payload))

	inString := false
	escaped := false
	for i := 0; i < len(payload); i++ {
		c := payload[i]
		if inString {
			out.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out.WriteByte(c)
			continue
		}
		if rest := payload[i:]; wordAt(rest, "True") {
			out.WriteString("true")
			i += 3
		} else if wordAt(rest, "False") {
			out.WriteString("false")
			i += 4
		} else if wordAt(rest, "None") {
			out.WriteString("null")
			i += 3
		} else {
			out.WriteByte(c)
		}
	}
	return out.Bytes()
}

// wordAt reports whether b starts with the bare word w (not a prefix of a
// longer identifier).
func wordAt(b []byte, w string) bool {
	if !bytes.HasPrefix(b, []byte(w)) {
		return false
	}
	if len(b) == len(w) {
		return true
	}
	next := b[len(w)]
	return !isWordByte(next)
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// hostNewline is the line-ending convention log text normalizes to.
var hostNewline = func() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}()

// logTextFromPayload converts a log-restart/log-update payload into plain
// multi-line log text.
//
// The payload is a PyON string: surrounding quotes are dropped, escape
// sequences are decoded, escaped newlines become the host convention, and
// the client's internal start marker (the first quoted-string boundary
// after a newline) is stripped.
func logTextFromPayload(payload []byte) (string, error) {
	s := strings.TrimSpace(string(payload))
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("%w: log payload is not a quoted string", ErrMessageFormat)
	}
	s = s[1 : len(s)-1]

	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			out.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("%w: trailing escape in log payload", ErrMessageFormat)
		}
		switch s[i] {
		case 'n':
			out.WriteString(hostNewline)
		case 'r':
			// Bare carriage returns collapse into the newline handling.
		case 't':
			out.WriteByte('\t')
		case '\\', '"', '\'':
			out.WriteByte(s[i])
		default:
			out.WriteByte(s[i])
		}
	}

	text := out.String()
	// Raw newlines may also appear; fold them to the host convention.
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if hostNewline != "\n" {
		text = strings.ReplaceAll(text, "\n", hostNewline)
	}
	// Strip the internal start marker: a stray quote opening the next
	// fragment after a newline boundary.
	text = strings.TrimPrefix(text, "\"")
	return text, nil
}
