// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fahclient

import "errors"

// Sentinel errors for the fahclient package.
var (
	// ErrNotConnected indicates a command or read was attempted with no
	// live connection.
	ErrNotConnected = errors.New("not connected")

	// ErrConnectionClosed indicates the socket closed while a message was
	// still incomplete in the buffer.
	ErrConnectionClosed = errors.New("connection closed mid-message")

	// ErrMessageFormat indicates a typed message payload failed to parse.
	ErrMessageFormat = errors.New("malformed message payload")

	// ErrUnknownMessageKey indicates no typed projection is registered for
	// a message key. The raw message is still cached.
	ErrUnknownMessageKey = errors.New("unknown message key")
)
