// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fahclient

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Message is one complete framed payload received from the client, tagged
// with its type key. Payload bytes are the raw PyON text between the
// framing sentinels.
type Message struct {
	ID         string
	Key        string
	Payload    []byte
	ReceivedAt time.Time
}

// Well-known message type keys the v7+ client sends.
const (
	KeyHeartbeat      = "heartbeat"
	KeyInfo           = "info"
	KeyNumSlots       = "num-slots"
	KeyOptions        = "options"
	KeySlots          = "slots"
	KeySlotOptions    = "slot-options"
	KeyUnits          = "units"
	KeySimulationInfo = "simulation-info"
	KeyLogRestart     = "log-restart"
	KeyLogUpdate      = "log-update"
)

// TypedMessage is a strongly-typed projection of a Message payload.
//
// Fill is a pure, idempotent transform: filling twice from the same Message
// yields field-for-field identical state. It is total for well-formed
// payloads and returns a structured ErrMessageFormat error for malformed
// ones (an unparsable memory size, team number, or duration string).
type TypedMessage interface {
	// Key returns the message type key this projection consumes.
	Key() string

	// Fill populates the projection from a raw message.
	Fill(msg *Message) error
}

// =============================================================================
// Info
// =============================================================================

// Info is the "info" message: client identity, build, and system details.
// The wire shape is nested arrays of [name, [key, value]...] sections.
type Info struct {
	ClientVersion string
	Author        string
	Copyright     string
	Homepage      string
	BuildDate     string
	BuildTime     string
	Compiler      string
	Platform      string
	Bits          int

	Hostname   string
	CPU        string
	CPUID      string
	CPUCount   int
	Memory     string
	MemoryGiB  float64
	FreeMemory string
	GPUCount   int
	OnBattery  bool
	UTCOffset  int
	PID        int
	OS         string
	OSArch     string
}

func (m *Info) Key() string { return KeyInfo }

func (m *Info) Fill(msg *Message) error {
	var sections []any
	if err := json.Unmarshal(pyonToJSON(msg.Payload), &sections); err != nil {
		return fmt.Errorf("%w: info: %v", ErrMessageFormat, err)
	}

	filled := Info{}
	for _, raw := range sections {
		section, ok := raw.([]any)
		if ok && len(section) > 0 {
			name, _ := section[0].(string)
			if err := filled.fillSection(name, section[1:]); err != nil {
				return err
			}
		}
	}
	*m = filled
	return nil
}

func (m *Info) fillSection(name string, pairs []any) error {
	values := make(map[string]string)
	for _, raw := range pairs {
		pair, ok := raw.([]any)
		if !ok || len(pair) != 2 {
			continue
		}
		k, _ := pair[0].(string)
		v, _ := pair[1].(string)
		values[k] = v
	}

	var err error
	switch name {
	case "Folding@home Client", "FAHClient", "Client":
		m.Author = values["Author"]
		m.Copyright = values["Copyright"]
		m.Homepage = values["Website"]
	case "Build":
		m.ClientVersion = values["Version"]
		m.BuildDate = values["Date"]
		m.BuildTime = values["Time"]
		m.Compiler = values["Compiler"]
		m.Platform = values["Platform"]
		if v, ok := values["Bits"]; ok {
			if m.Bits, err = strconv.Atoi(v); err != nil {
				return fmt.Errorf("%w: info bits %q", ErrMessageFormat, v)
			}
		}
	case "System":
		m.Hostname = values["Hostname"]
		m.CPU = values["CPU"]
		m.CPUID = values["CPU ID"]
		m.OS = values["OS"]
		m.OSArch = values["OS Arch"]
		m.Memory = values["Memory"]
		m.FreeMemory = values["Free Memory"]
		if m.Memory != "" {
			if m.MemoryGiB, err = parseMemorySize(m.Memory); err != nil {
				return err
			}
		}
		if v, ok := values["CPUs"]; ok {
			if m.CPUCount, err = strconv.Atoi(v); err != nil {
				return fmt.Errorf("%w: info cpus %q", ErrMessageFormat, v)
			}
		}
		if v, ok := values["GPUs"]; ok {
			if m.GPUCount, err = strconv.Atoi(v); err != nil {
				return fmt.Errorf("%w: info gpus %q", ErrMessageFormat, v)
			}
		}
		if v, ok := values["UTC offset"]; ok {
			if m.UTCOffset, err = strconv.Atoi(v); err != nil {
				return fmt.Errorf("%w: info utc offset %q", ErrMessageFormat, v)
			}
		}
		if v, ok := values["PID"]; ok {
			if m.PID, err = strconv.Atoi(v); err != nil {
				return fmt.Errorf("%w: info pid %q", ErrMessageFormat, v)
			}
		}
		m.OnBattery = strings.EqualFold(values["On Battery"], "true")
	}
	return nil
}

// parseMemorySize converts a client memory descriptor ("3.86GiB",
// "512.00MiB") to GiB. Unrecognized descriptors are a structured failure.
func parseMemorySize(s string) (float64, error) {
	scale := 0.0
	var suffix string
	for _, u := range []struct {
		suffix string
		scale  float64
	}{
		{"KiB", 1.0 / (1024 * 1024)},
		{"MiB", 1.0 / 1024},
		{"GiB", 1},
		{"TiB", 1024},
	} {
		if strings.HasSuffix(s, u.suffix) {
			scale, suffix = u.scale, u.suffix
			break
		}
	}
	if suffix == "" {
		return 0, fmt.Errorf("%w: memory descriptor %q", ErrMessageFormat, s)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, suffix)), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: memory descriptor %q", ErrMessageFormat, s)
	}
	return value * scale, nil
}

// =============================================================================
// Options
// =============================================================================

// Options is the "options" message: the client's effective configuration.
// The wire carries every value as a string.
type Options struct {
	User          string
	Team          int
	Passkey       string
	Cause         string
	ClientType    string
	CPUs          int
	Checkpoint    int
	MaxPacketSize string
	Power         string
	SMP           bool
	GPU           bool
	FoldAnon      bool

	// Raw preserves the full option map, including keys without a typed
	// field.
	Raw map[string]string
}

func (m *Options) Key() string { return KeyOptions }

func (m *Options) Fill(msg *Message) error {
	var raw map[string]string
	if err := json.Unmarshal(pyonToJSON(msg.Payload), &raw); err != nil {
		return fmt.Errorf("%w: options: %v", ErrMessageFormat, err)
	}

	filled := Options{
		User:          raw["user"],
		Passkey:       raw["passkey"],
		Cause:         raw["cause"],
		ClientType:    raw["client-type"],
		MaxPacketSize: raw["max-packet-size"],
		Power:         raw["power"],
		SMP:           raw["smp"] == "true",
		GPU:           raw["gpu"] == "true",
		FoldAnon:      raw["fold-anon"] == "true",
		Raw:           raw,
	}

	var err error
	if v, ok := raw["team"]; ok && v != "" {
		if filled.Team, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("%w: options team %q", ErrMessageFormat, v)
		}
	}
	if v, ok := raw["cpus"]; ok && v != "" {
		if filled.CPUs, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("%w: options cpus %q", ErrMessageFormat, v)
		}
	}
	if v, ok := raw["checkpoint"]; ok && v != "" {
		if filled.Checkpoint, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("%w: options checkpoint %q", ErrMessageFormat, v)
		}
	}
	*m = filled
	return nil
}

// =============================================================================
// Slots
// =============================================================================

// Slot is one configured folding resource (a CPU or GPU slot).
type Slot struct {
	ID          int
	Status      string
	Description string
	Options     map[string]string
}

// Idle reports whether the slot is paused or finished rather than folding.
func (s *Slot) Idle() bool {
	switch strings.ToUpper(s.Status) {
	case "PAUSED", "FINISHING", "STOPPING", "OFFLINE":
		return true
	default:
		return false
	}
}

// SlotCollection is the "slots" message: every configured slot.
type SlotCollection struct {
	Slots []Slot
}

func (m *SlotCollection) Key() string { return KeySlots }

func (m *SlotCollection) Fill(msg *Message) error {
	var raw []struct {
		ID          string            `json:"id"`
		Status      string            `json:"status"`
		Description string            `json:"description"`
		Options     map[string]string `json:"options"`
	}
	if err := json.Unmarshal(pyonToJSON(msg.Payload), &raw); err != nil {
		return fmt.Errorf("%w: slots: %v", ErrMessageFormat, err)
	}

	slots := make([]Slot, 0, len(raw))
	for _, r := range raw {
		id, err := strconv.Atoi(r.ID)
		if err != nil {
			return fmt.Errorf("%w: slot id %q", ErrMessageFormat, r.ID)
		}
		slots = append(slots, Slot{
			ID:          id,
			Status:      r.Status,
			Description: r.Description,
			Options:     r.Options,
		})
	}
	m.Slots = slots
	return nil
}

// SlotOptions is the "slot-options" message for a single slot.
type SlotOptions struct {
	ClientType         string
	MaxPacketSize      string
	CorePriority       string
	NextUnitPercentage int
	PauseOnStart       bool

	Raw map[string]string
}

func (m *SlotOptions) Key() string { return KeySlotOptions }

func (m *SlotOptions) Fill(msg *Message) error {
	var raw map[string]string
	if err := json.Unmarshal(pyonToJSON(msg.Payload), &raw); err != nil {
		return fmt.Errorf("%w: slot-options: %v", ErrMessageFormat, err)
	}

	filled := SlotOptions{
		ClientType:    raw["client-type"],
		MaxPacketSize: raw["max-packet-size"],
		CorePriority:  raw["core-priority"],
		PauseOnStart:  raw["pause-on-start"] == "true",
		Raw:           raw,
	}
	if v, ok := raw["next-unit-percentage"]; ok && v != "" {
		pct, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: slot-options next-unit-percentage %q", ErrMessageFormat, v)
		}
		filled.NextUnitPercentage = pct
	}
	*m = filled
	return nil
}

// =============================================================================
// Units
// =============================================================================

// Unit is one work unit the client is processing or has queued.
type Unit struct {
	ID          int
	State       string
	Project     int
	Run         int
	Clone       int
	Gen         int
	Core        string
	UnitHex     string
	PercentDone float64
	TotalFrames int
	FramesDone  int
	Assigned    time.Time
	Timeout     time.Time
	Deadline    time.Time
	WorkServer  string
	CollectionServer string
	WaitingOn   string
	Attempts    int
	NextAttempt time.Duration
	Slot        int
	ETA         time.Duration
	PPD         float64
	TPF         time.Duration
	BaseCredit  float64
	CreditEstimate float64
}

// UnitCollection is the "units" message (the queue-info response).
type UnitCollection struct {
	Units []Unit
}

func (m *UnitCollection) Key() string { return KeyUnits }

func (m *UnitCollection) Fill(msg *Message) error {
	var raw []struct {
		ID          string `json:"id"`
		State       string `json:"state"`
		Project     int    `json:"project"`
		Run         int    `json:"run"`
		Clone       int    `json:"clone"`
		Gen         int    `json:"gen"`
		Core        string `json:"core"`
		Unit        string `json:"unit"`
		PercentDone string `json:"percentdone"`
		TotalFrames int    `json:"totalframes"`
		FramesDone  int    `json:"framesdone"`
		Assigned    string `json:"assigned"`
		Timeout     string `json:"timeout"`
		Deadline    string `json:"deadline"`
		WS          string `json:"ws"`
		CS          string `json:"cs"`
		WaitingOn   string `json:"waitingon"`
		Attempts    int    `json:"attempts"`
		NextAttempt string `json:"nextattempt"`
		Slot        string `json:"slot"`
		ETA         string `json:"eta"`
		PPD         string `json:"ppd"`
		TPF         string `json:"tpf"`
		BaseCredit  string `json:"basecredit"`
		CreditEstimate string `json:"creditestimate"`
	}
	if err := json.Unmarshal(pyonToJSON(msg.Payload), &raw); err != nil {
		return fmt.Errorf("%w: units: %v", ErrMessageFormat, err)
	}

	units := make([]Unit, 0, len(raw))
	for _, r := range raw {
		u := Unit{
			State:       r.State,
			Project:     r.Project,
			Run:         r.Run,
			Clone:       r.Clone,
			Gen:         r.Gen,
			Core:        r.Core,
			UnitHex:     r.Unit,
			TotalFrames: r.TotalFrames,
			FramesDone:  r.FramesDone,
			WorkServer:  r.WS,
			CollectionServer: r.CS,
			WaitingOn:   r.WaitingOn,
			Attempts:    r.Attempts,
		}
		var err error
		if u.ID, err = strconv.Atoi(r.ID); err != nil {
			return fmt.Errorf("%w: unit id %q", ErrMessageFormat, r.ID)
		}
		if r.Slot != "" {
			if u.Slot, err = strconv.Atoi(r.Slot); err != nil {
				return fmt.Errorf("%w: unit slot %q", ErrMessageFormat, r.Slot)
			}
		}
		if u.PercentDone, err = parsePercent(r.PercentDone); err != nil {
			return err
		}
		u.Assigned = parseWireTime(r.Assigned)
		u.Timeout = parseWireTime(r.Timeout)
		u.Deadline = parseWireTime(r.Deadline)
		if u.ETA, err = parseClockDuration(r.ETA); err != nil {
			return err
		}
		if u.TPF, err = parseClockDuration(r.TPF); err != nil {
			return err
		}
		if u.NextAttempt, err = parseClockDuration(r.NextAttempt); err != nil {
			return err
		}
		u.PPD = parseWireFloat(r.PPD)
		u.BaseCredit = parseWireFloat(r.BaseCredit)
		u.CreditEstimate = parseWireFloat(r.CreditEstimate)
		units = append(units, u)
	}
	m.Units = units
	return nil
}

// parsePercent converts "73.77%" (or a bare number) to a float.
func parsePercent(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: percent %q", ErrMessageFormat, s)
	}
	return v, nil
}

// parseWireFloat converts a numeric string, tolerating the empty string and
// "unknown" placeholders as zero.
func parseWireFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseWireTime parses the client's RFC 3339 stamps. The client sends
// "<invalid>" before a value is known; that and any other unparsable stamp
// decode as the zero time.
func parseWireTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseClockDuration parses the client's human-readable durations:
// "2 hours 38 mins", "2.20 days", "49.94 secs", "0.00 secs", or "".
func parseClockDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "unknown" {
		return 0, nil
	}
	fields := strings.Fields(s)
	if len(fields)%2 != 0 {
		return 0, fmt.Errorf("%w: duration %q", ErrMessageFormat, s)
	}
	var total time.Duration
	for i := 0; i < len(fields); i += 2 {
		value, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: duration %q", ErrMessageFormat, s)
		}
		var unit time.Duration
		switch strings.TrimSuffix(fields[i+1], "s") + "s" {
		case "days":
			unit = 24 * time.Hour
		case "hours":
			unit = time.Hour
		case "mins":
			unit = time.Minute
		case "secs":
			unit = time.Second
		default:
			return 0, fmt.Errorf("%w: duration unit %q", ErrMessageFormat, fields[i+1])
		}
		total += time.Duration(value * float64(unit))
	}
	return total, nil
}

// =============================================================================
// Simulation Info
// =============================================================================

// SimulationInfo is the per-slot "simulation-info" message.
type SimulationInfo struct {
	User            string  `json:"user"`
	Team            int     `json:"team"`
	Project         int     `json:"project"`
	Run             int     `json:"run"`
	Clone           int     `json:"clone"`
	Gen             int     `json:"gen"`
	CoreType        int     `json:"core_type"`
	Core            string  `json:"core"`
	TotalIterations int     `json:"total_iterations"`
	IterationsDone  int     `json:"iterations_done"`
	Energy          int     `json:"energy"`
	Temperature     int     `json:"temperature"`
	StartTimeRaw    string  `json:"start_time"`
	RunTimeSec      int     `json:"run_time"`
	SimulationTime  int     `json:"simulation_time"`
	ETASec          int     `json:"eta"`
	News            string  `json:"news"`

	StartTime time.Time `json:"-"`
}

func (m *SimulationInfo) Key() string { return KeySimulationInfo }

func (m *SimulationInfo) Fill(msg *Message) error {
	var filled SimulationInfo
	if err := json.Unmarshal(pyonToJSON(msg.Payload), &filled); err != nil {
		return fmt.Errorf("%w: simulation-info: %v", ErrMessageFormat, err)
	}
	filled.StartTime = parseWireTime(filled.StartTimeRaw)
	*m = filled
	return nil
}

// =============================================================================
// Log Fragments
// =============================================================================

// LogRestart is the full log text the client sends after "log-updates
// restart". The text feeds back into fahlog parsing as FahClient-generation
// log lines.
type LogRestart struct {
	Text string
}

func (m *LogRestart) Key() string { return KeyLogRestart }

func (m *LogRestart) Fill(msg *Message) error {
	text, err := logTextFromPayload(msg.Payload)
	if err != nil {
		return err
	}
	m.Text = text
	return nil
}

// LogUpdate is an incremental log fragment.
type LogUpdate struct {
	Text string
}

func (m *LogUpdate) Key() string { return KeyLogUpdate }

func (m *LogUpdate) Fill(msg *Message) error {
	text, err := logTextFromPayload(msg.Payload)
	if err != nil {
		return err
	}
	m.Text = text
	return nil
}

// Compile-time interface checks.
var (
	_ TypedMessage = (*Info)(nil)
	_ TypedMessage = (*Options)(nil)
	_ TypedMessage = (*SlotCollection)(nil)
	_ TypedMessage = (*SlotOptions)(nil)
	_ TypedMessage = (*UnitCollection)(nil)
	_ TypedMessage = (*SimulationInfo)(nil)
	_ TypedMessage = (*LogRestart)(nil)
	_ TypedMessage = (*LogUpdate)(nil)
)
