// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fahclient

import (
	"testing"
)

func frame(key, payload string) string {
	return "PyON 1 " + key + "\n" + payload + "\n---\n"
}

// =============================================================================
// MessageExtractor Tests
// =============================================================================

func TestMessageExtractor_CompleteFrame(t *testing.T) {
	var x MessageExtractor
	x.Feed([]byte(frame("heartbeat", "4")))

	msg := x.Next()
	if msg == nil {
		t.Fatal("Next() returned nil for a complete frame")
	}
	if msg.Key != "heartbeat" {
		t.Errorf("Key = %q, want heartbeat", msg.Key)
	}
	if string(msg.Payload) != "4" {
		t.Errorf("Payload = %q, want 4", msg.Payload)
	}
	if msg.ID == "" {
		t.Error("each message should carry a unique ID")
	}
	if msg.ReceivedAt.IsZero() {
		t.Error("ReceivedAt should be stamped")
	}

	if again := x.Next(); again != nil {
		t.Errorf("Next() after drain = %v, want nil", again)
	}
}

func TestMessageExtractor_PartialFrameBuffered(t *testing.T) {
	var x MessageExtractor
	whole := frame("slots", `[{"id": "00"}]`)

	// Feed everything except the closing sentinel.
	x.Feed([]byte(whole[:len(whole)-3]))
	if msg := x.Next(); msg != nil {
		t.Fatalf("Next() yielded a partial message: %v", msg)
	}
	if !x.Pending() {
		t.Error("Pending() should report an unfinished frame")
	}

	x.Feed([]byte(whole[len(whole)-3:]))
	msg := x.Next()
	if msg == nil {
		t.Fatal("Next() returned nil after frame completed")
	}
	if msg.Key != "slots" {
		t.Errorf("Key = %q, want slots", msg.Key)
	}
}

func TestMessageExtractor_CompletePlusPartialInOneFeed(t *testing.T) {
	var x MessageExtractor
	slots := frame("slots", `[{"id": "00", "status": "RUNNING"}]`)
	units := frame("units", `[{"id": "00", "state": "RUNNING"}]`)

	// One socket read carrying a whole slots frame and half a units frame.
	split := len(units) / 2
	x.Feed([]byte(slots + units[:split]))

	first := x.Next()
	if first == nil || first.Key != "slots" {
		t.Fatalf("first Next() = %v, want slots message", first)
	}
	if msg := x.Next(); msg != nil {
		t.Fatalf("second Next() yielded a partial message: %v", msg)
	}

	x.Feed([]byte(units[split:]))
	second := x.Next()
	if second == nil || second.Key != "units" {
		t.Fatalf("Next() after completing fragment = %v, want units message", second)
	}
}

func TestMessageExtractor_DiscardsPromptBytes(t *testing.T) {
	var x MessageExtractor
	x.Feed([]byte("> " + frame("options", `{"user": "harlam357"}`)))

	msg := x.Next()
	if msg == nil {
		t.Fatal("Next() returned nil")
	}
	if msg.Key != "options" {
		t.Errorf("Key = %q, want options", msg.Key)
	}
	if string(msg.Payload) != `{"user": "harlam357"}` {
		t.Errorf("Payload = %q", msg.Payload)
	}
}

func TestMessageExtractor_MultipleFramesInOrder(t *testing.T) {
	var x MessageExtractor
	x.Feed([]byte(frame("info", "[]") + frame("num-slots", "2") + frame("units", "[]")))

	var keys []string
	for msg := x.Next(); msg != nil; msg = x.Next() {
		keys = append(keys, msg.Key)
	}
	want := []string{"info", "num-slots", "units"}
	if len(keys) != len(want) {
		t.Fatalf("extracted %d messages, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("message %d key = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestMessageExtractor_PayloadContainingDashes(t *testing.T) {
	// A payload line of dashes must not terminate the frame early; only the
	// footer sentinel on its own line does.
	var x MessageExtractor
	x.Feed([]byte(frame("log-update", `"----- lines -----"`)))

	msg := x.Next()
	if msg == nil {
		t.Fatal("Next() returned nil")
	}
	if string(msg.Payload) != `"----- lines -----"` {
		t.Errorf("Payload = %q", msg.Payload)
	}
}

func TestMessageExtractor_Pending(t *testing.T) {
	var x MessageExtractor
	if x.Pending() {
		t.Error("empty extractor should not be pending")
	}

	x.Feed([]byte("> prompt noise"))
	if x.Pending() {
		t.Error("prompt bytes alone are not a pending frame")
	}

	x.Feed([]byte("PyON 1 units\n[partial"))
	if !x.Pending() {
		t.Error("buffered header should report pending")
	}
}

func TestMessageExtractor_Reset(t *testing.T) {
	var x MessageExtractor
	x.Feed([]byte("PyON 1 units\n[partial"))
	x.Reset()

	if x.Pending() {
		t.Error("Reset() should discard buffered data")
	}
	if msg := x.Next(); msg != nil {
		t.Errorf("Next() after Reset = %v, want nil", msg)
	}
}

func TestMessageExtractor_UniqueIDs(t *testing.T) {
	var x MessageExtractor
	x.Feed([]byte(frame("heartbeat", "1") + frame("heartbeat", "2")))

	first := x.Next()
	second := x.Next()
	if first == nil || second == nil {
		t.Fatal("expected two messages")
	}
	if first.ID == second.ID {
		t.Error("messages should have distinct IDs")
	}
}

func TestMessageKey(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"PyON 1 units", "units"},
		{"PyON 1 simulation-info", "simulation-info"},
		{"PyON 1", ""},
		{"PyON", ""},
	}
	for _, tt := range tests {
		if got := messageKey(tt.header); got != tt.want {
			t.Errorf("messageKey(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
