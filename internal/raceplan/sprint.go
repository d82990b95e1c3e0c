// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package raceplan

import (
	"sort"
	"time"

	"github.com/tomtom215/heatsheet/internal/models"
)

// roundIndex addresses one column of a bracket, e.g. S/A or Q with the
// empty index.
type roundIndex struct {
	round string
	index string
}

// classBracket is the fully computed knockout for one raceclass:
// race templates per round, already in emission order (indexes
// reverse-alphabetical so finals run C, B, A; heats ascending).
type classBracket struct {
	class    models.Raceclass
	perRound map[string][]models.Race
}

// generateIndividualSprint builds a knockout bracket per raceclass and
// interleaves them group by group: within a group all heats of one
// round run before the next round begins, so semifinalists get their
// rest while other classes race.
func generateIndividualSprint(in Input, classes []models.Raceclass, start time.Time, pauses timing) ([]models.Race, error) {
	brackets := make([]classBracket, 0, len(classes))
	for _, rc := range classes {
		if rc.NoOfContestants == 0 {
			continue
		}
		row, err := configForClass(in.Format, rc)
		if err != nil {
			return nil, err
		}
		cb, err := buildClassBracket(rc, row)
		if err != nil {
			return nil, err
		}
		brackets = append(brackets, cb)
	}
	if len(brackets) == 0 {
		return nil, models.Validationf("event %s has no contestants to bracket", in.Event.ID)
	}

	var groups []int
	seen := map[int]bool{}
	for _, cb := range brackets {
		if !seen[cb.class.Group] {
			seen[cb.class.Group] = true
			groups = append(groups, cb.class.Group)
		}
	}
	sort.Ints(groups)

	rounds := emissionRounds(in.Format)

	var races []models.Race
	clock := start
	prevGroup, prevRound := 0, ""
	first := true
	for _, group := range groups {
		for _, round := range rounds {
			for _, cb := range brackets {
				if cb.class.Group != group {
					continue
				}
				for _, tmpl := range cb.perRound[round] {
					switch {
					case first:
						first = false
					case group != prevGroup:
						clock = clock.Add(pauses.betweenGroups)
					case round != prevRound:
						clock = clock.Add(pauses.betweenRounds)
					default:
						clock = clock.Add(pauses.betweenHeats)
					}
					tmpl.StartTime = clock
					races = append(races, tmpl)
					prevGroup, prevRound = group, round
				}
			}
		}
	}
	return races, nil
}

// configForClass resolves the progression matrix row for a raceclass:
// the format's own matrix when it carries one, the built-in matrix
// otherwise, ranked and non-ranked classes each from their own table.
func configForClass(format models.CompetitionFormat, rc models.Raceclass) (*models.RaceConfig, error) {
	configs := format.RaceConfigRanked
	if !rc.Ranking {
		configs = format.RaceConfigNonRanked
	}
	if len(configs) == 0 {
		configs = BuiltinRankedConfig
		if !rc.Ranking {
			configs = BuiltinNonRankedConfig
		}
	}
	row, err := SelectRaceConfig(configs, rc.NoOfContestants)
	if err != nil {
		return nil, models.Validationf("raceclass %s: %v", rc.Name, err)
	}
	return row, nil
}

// buildClassBracket walks the row's rounds in order, dealing each
// column's inflow across its heats and feeding qualifiers forward per
// the advancement rules. Heat capacity is the column inflow divided by
// its heats, rounded up.
func buildClassBracket(rc models.Raceclass, row *models.RaceConfig) (classBracket, error) {
	cb := classBracket{class: rc, perRound: map[string][]models.Race{}}
	if len(row.Rounds) == 0 {
		return cb, models.Validationf("raceclass %s: race config row %d has no rounds", rc.Name, row.MaxNoOfContestants)
	}

	inflow := map[roundIndex]int{}
	seedFirstRound(rc.NoOfContestants, row, inflow)

	for _, round := range row.Rounds {
		for _, index := range sortedIndexes(row.NoOfHeats[round]) {
			heats := row.NoOfHeats[round][index]
			if heats <= 0 {
				return cb, models.Validationf(
					"raceclass %s: round %s%s has no heats", rc.Name, round, index)
			}
			total := inflow[roundIndex{round, index}]
			counts := spreadContestants(total, heats)
			capacity := ceilDiv(total, heats)
			rule := row.FromTo[round][index]

			for heat := 1; heat <= heats; heat++ {
				count := counts[heat-1]
				remaining := count
				for _, ref := range rule.OrderedTargets() {
					take := ref.Target.Take(remaining)
					inflow[roundIndex{ref.Round, ref.Index}] += take
					remaining -= take
				}
				cb.perRound[round] = append(cb.perRound[round], models.Race{
					Raceclass:          rc.Name,
					NoOfContestants:    count,
					MaxNoOfContestants: capacity,
					Datatype:           models.RaceDatatypeIndividualSprint,
					Round:              round,
					Index:              index,
					Heat:               heat,
					Rule:               rule,
				})
			}
		}
	}

	// Emission within a round runs the lower paths first, so the A
	// final closes the class.
	for round := range cb.perRound {
		sort.SliceStable(cb.perRound[round], func(i, j int) bool {
			a, b := cb.perRound[round][i], cb.perRound[round][j]
			if a.Index != b.Index {
				return a.Index > b.Index
			}
			return a.Heat < b.Heat
		})
	}
	return cb, nil
}

// seedFirstRound deals the whole field into the opening round. The
// matrices open with a single column, but if a row ever has several,
// contestants spread across all its heats in index order.
func seedFirstRound(contestants int, row *models.RaceConfig, inflow map[roundIndex]int) {
	first := row.Rounds[0]
	indexes := sortedIndexes(row.NoOfHeats[first])
	totalHeats := 0
	for _, index := range indexes {
		totalHeats += row.NoOfHeats[first][index]
	}
	counts := spreadContestants(contestants, totalHeats)
	pos := 0
	for _, index := range indexes {
		for h := 0; h < row.NoOfHeats[first][index]; h++ {
			inflow[roundIndex{first, index}] += counts[pos]
			pos++
		}
	}
}

func sortedIndexes(m map[string]int) []string {
	indexes := make([]string, 0, len(m))
	for index := range m {
		indexes = append(indexes, index)
	}
	sort.Strings(indexes)
	return indexes
}

// emissionRounds is the schedule-wide round sequence: the ranked
// rounds followed by any non-ranked rounds not already present.
func emissionRounds(format models.CompetitionFormat) []string {
	ranked := format.RoundsRankedClasses
	if len(ranked) == 0 {
		ranked = []string{"Q", "S", "F"}
	}
	nonRanked := format.RoundsNonRankedClasses
	if len(nonRanked) == 0 {
		nonRanked = []string{"R1", "R2"}
	}

	rounds := make([]string, 0, len(ranked)+len(nonRanked))
	seen := map[string]bool{}
	for _, r := range append(append([]string{}, ranked...), nonRanked...) {
		if !seen[r] {
			seen[r] = true
			rounds = append(rounds, r)
		}
	}
	return rounds
}
