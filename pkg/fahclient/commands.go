// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fahclient

import "fmt"

// Well-known commands the v7+ client accepts. Commands are fire-and-forget:
// there is no request/response correlation, so after sending CommandSlotInfo
// the caller waits for the next "slots"-keyed message rather than a return
// value.
const (
	CommandInfo           = "info"
	CommandOptions        = "options -a"
	CommandSlotInfo       = "slot-info"
	CommandQueueInfo      = "queue-info"
	CommandLogRestart     = "log-updates restart"
	CommandPauseAll       = "pause"
	CommandUnpauseAll     = "unpause"
	CommandExit           = "exit"
)

// SimulationInfoCommand requests simulation info for one slot.
func SimulationInfoCommand(slot int) string {
	return fmt.Sprintf("simulation-info %d", slot)
}

// AuthCommand authenticates the session before privileged commands.
func AuthCommand(password string) string {
	return "auth " + password
}

// UpdatesCommand registers a periodic server-pushed update, e.g.
// UpdatesCommand(0, 60, CommandQueueInfo).
func UpdatesCommand(id, rateSeconds int, command string) string {
	return fmt.Sprintf("updates add %d %d $(%s)", id, rateSeconds, command)
}
