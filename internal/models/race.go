// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// RuleTarget is the number of qualifiers a knockout rule sends to one
// target race index: either a fixed count, or one of the keywords
// "ALL" (everyone in the heat) and "REST" (everyone not yet assigned).
// It serializes as a bare number or a quoted keyword to stay
// wire-compatible with the competition format service.
type RuleTarget struct {
	Count   int
	Keyword string
}

// Rule keywords.
const (
	RuleKeywordAll  = "ALL"
	RuleKeywordRest = "REST"
)

// IsAll reports whether the target takes the whole heat.
func (t RuleTarget) IsAll() bool { return t.Keyword == RuleKeywordAll }

// IsRest reports whether the target takes all remaining contestants.
func (t RuleTarget) IsRest() bool { return t.Keyword == RuleKeywordRest }

// Take returns how many of the remaining contestants this target
// absorbs.
func (t RuleTarget) Take(remaining int) int {
	if t.Keyword != "" {
		return remaining
	}
	if t.Count < remaining {
		return t.Count
	}
	return remaining
}

// MarshalJSON emits the keyword as a string or the count as a number.
func (t RuleTarget) MarshalJSON() ([]byte, error) {
	if t.Keyword != "" {
		return json.Marshal(t.Keyword)
	}
	return json.Marshal(t.Count)
}

// UnmarshalJSON accepts a number or the keywords "ALL" and "REST".
func (t *RuleTarget) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if n < 0 {
			return fmt.Errorf("rule target must not be negative, got %d", n)
		}
		t.Count = n
		t.Keyword = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("rule target must be a number or keyword: %w", err)
	}
	switch strings.ToUpper(s) {
	case RuleKeywordAll:
		t.Keyword = RuleKeywordAll
	case RuleKeywordRest:
		t.Keyword = RuleKeywordRest
	default:
		return fmt.Errorf("unknown rule keyword %q", s)
	}
	t.Count = 0
	return nil
}

// AdvancementRule maps a target round to target indexes and how many
// qualifiers go there, e.g. {"S": {"A": 5, "C": 0}, "F": {"C": "REST"}}.
type AdvancementRule map[string]map[string]RuleTarget

// RuleTargetRef is one flattened target of an advancement rule.
type RuleTargetRef struct {
	Round  string
	Index  string
	Target RuleTarget
}

// OrderedTargets flattens the rule into the order qualifiers are dealt
// out: fixed quotas first (best ranks fill the A path before the B
// path), keyword targets (ALL/REST) last since they absorb whoever is
// left. Ties sort by round then index so the order is deterministic
// regardless of map iteration.
func (r AdvancementRule) OrderedTargets() []RuleTargetRef {
	refs := make([]RuleTargetRef, 0, 4)
	for round, indexes := range r {
		for index, target := range indexes {
			if target.Keyword == "" && target.Count == 0 {
				continue
			}
			refs = append(refs, RuleTargetRef{Round: round, Index: index, Target: target})
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		ki, kj := refs[i].Target.Keyword != "", refs[j].Target.Keyword != ""
		if ki != kj {
			return !ki
		}
		if refs[i].Round != refs[j].Round {
			return refs[i].Round < refs[j].Round
		}
		return refs[i].Index < refs[j].Index
	})
	return refs
}

// Race is one scheduled race. Interval start races stand alone;
// individual sprint races additionally carry their knockout position
// (round, index, heat) and the advancement rule feeding later rounds.
//
// StartEntries and Results hold document ids; RaceDetail carries the
// hydrated forms returned by single-resource reads.
type Race struct {
	ID                 string            `json:"id"`
	RaceplanID         string            `json:"raceplan_id" validate:"required"`
	EventID            string            `json:"event_id" validate:"required"`
	Raceclass          string            `json:"raceclass" validate:"required"`
	Order              int               `json:"order" validate:"required,gt=0"`
	StartTime          time.Time         `json:"start_time"`
	NoOfContestants    int               `json:"no_of_contestants" validate:"gte=0"`
	MaxNoOfContestants int               `json:"max_no_of_contestants" validate:"gte=0"`
	Datatype           string            `json:"datatype" validate:"required,oneof=interval_start individual_sprint mass_start skiathlon pursuit team_sprint relay"`
	Round              string            `json:"round,omitempty"`
	Index              string            `json:"index,omitempty"`
	Heat               int               `json:"heat,omitempty"`
	Rule               AdvancementRule   `json:"rule,omitempty"`
	StartEntries       []string          `json:"start_entries"`
	Results            map[string]string `json:"results"`
}

// Name returns the display name of the race within its raceclass,
// e.g. "Q-1" for sprint heats or the raceclass itself for interval
// starts.
func (r *Race) Name() string {
	if r.Datatype == RaceDatatypeIndividualSprint {
		return fmt.Sprintf("%s%s-%d", r.Round, r.Index, r.Heat)
	}
	return r.Raceclass
}

// RaceDetail is a race with start entries and results hydrated, as
// returned by GET /races/{raceId}.
type RaceDetail struct {
	Race
	StartEntries []StartEntry                `json:"start_entries"`
	Results      map[string]RaceResultDetail `json:"results"`
}
