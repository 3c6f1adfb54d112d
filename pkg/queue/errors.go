// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package queue

import "errors"

// Sentinel errors for the queue package. Length and version failures are
// both fatal for a single read attempt; they are distinguished so callers
// can tell "short/garbled read" from "wrong file format".
var (
	// ErrQueueLength indicates the blob is not exactly QueueLength bytes.
	ErrQueueLength = errors.New("queue.dat length mismatch")

	// ErrQueueVersion indicates an unsupported queue.dat version.
	ErrQueueVersion = errors.New("unsupported queue.dat version")

	// ErrEntryIndex indicates a slot index outside 0-9.
	ErrEntryIndex = errors.New("queue entry index out of range")
)
