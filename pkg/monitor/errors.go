// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import "errors"

// Sentinel errors for the monitor package.
var (
	// ErrNoClients indicates an empty client list.
	ErrNoClients = errors.New("no clients configured")

	// ErrClientConfig indicates an invalid client entry.
	ErrClientConfig = errors.New("invalid client configuration")
)
