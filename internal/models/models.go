// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

// Package models defines the data structures used throughout Heatsheet:
// raceplans, races, startlists, start entries, time events, race results,
// and the DTOs exchanged with the event, competition format, and user
// services.
package models

import (
	"fmt"
	"regexp"
	"time"
)

// Race datatypes. The datatype discriminates how a race is scheduled and
// how results flow: interval start races are standalone, individual
// sprint races are knockout heats wired together by advancement rules.
const (
	RaceDatatypeIntervalStart    = "interval_start"
	RaceDatatypeIndividualSprint = "individual_sprint"
	RaceDatatypeMassStart        = "mass_start"
	RaceDatatypeSkiathlon        = "skiathlon"
	RaceDatatypePursuit          = "pursuit"
	RaceDatatypeTeamSprint       = "team_sprint"
	RaceDatatypeRelay            = "relay"
)

// Timing points accepted by the time-event processor.
const (
	TimingPointStart    = "Start"
	TimingPointFinish   = "Finish"
	TimingPointTemplate = "Template"
)

// Time-event processing statuses.
const (
	TimeEventStatusOK    = "OK"
	TimeEventStatusError = "Error"
)

// Start-entry statuses set by the race office. The empty string means
// no status has been recorded yet.
const (
	StartEntryStatusOK  = "OK"
	StartEntryStatusDNS = "DNS"
	StartEntryStatusDNF = "DNF"
	StartEntryStatusDSQ = "DSQ"
)

// StartEntryStatusExcludes reports whether a start-entry status removes
// the contestant from ranking and progression.
func StartEntryStatusExcludes(status string) bool {
	switch status {
	case StartEntryStatusDNS, StartEntryStatusDNF, StartEntryStatusDSQ:
		return true
	default:
		return false
	}
}

// Changelog records a change applied to a document, attributed to the
// acting user (or "system" for internally triggered changes).
type Changelog struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Comment   string    `json:"comment"`
}

var hhmmssPattern = regexp.MustCompile(`^(\d{2}):([0-5]\d):([0-5]\d)$`)

// ParseHHMMSS parses a duration given as "HH:MM:SS" (the wire format
// used by competition formats for intervals and pauses).
func ParseHHMMSS(s string) (time.Duration, error) {
	m := hhmmssPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid duration %q, expected HH:MM:SS", s)
	}
	var h, mi, sec int
	if _, err := fmt.Sscanf(s, "%02d:%02d:%02d", &h, &mi, &sec); err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return time.Duration(h)*time.Hour + time.Duration(mi)*time.Minute + time.Duration(sec)*time.Second, nil
}

// ValidTimeOfDay reports whether s is a zero-padded "HH:MM:SS" clock
// reading. Zero-padded readings compare correctly as plain strings,
// which the ranking code relies on.
func ValidTimeOfDay(s string) bool {
	if !hhmmssPattern.MatchString(s) {
		return false
	}
	var h int
	fmt.Sscanf(s[:2], "%02d", &h) //nolint:errcheck // pattern guarantees digits
	return h < 24
}
