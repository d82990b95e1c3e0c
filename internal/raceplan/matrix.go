// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package raceplan

import (
	"sort"

	"github.com/tomtom215/heatsheet/internal/models"
)

// Helpers for building the literal matrix below.
func n(count int) models.RuleTarget    { return models.RuleTarget{Count: count} }
func kw(word string) models.RuleTarget { return models.RuleTarget{Keyword: word} }

// BuiltinRankedConfig is the normative progression matrix for ranked
// individual sprint classes, used when the competition format service
// does not carry race_config_ranked. Rows are keyed by the largest
// field they can seat; row selection picks the smallest row that fits.
//
// The two smallest fields skip quarterfinals and open with semifinals.
var BuiltinRankedConfig = []models.RaceConfig{
	{
		MaxNoOfContestants: 7,
		Rounds:             []string{"S", "F"},
		NoOfHeats: map[string]map[string]int{
			"S": {"A": 1},
			"F": {"A": 1},
		},
		FromTo: map[string]map[string]models.AdvancementRule{
			"S": {"A": models.AdvancementRule{"F": {"A": kw(models.RuleKeywordAll)}}},
		},
	},
	{
		MaxNoOfContestants: 16,
		Rounds:             []string{"S", "F"},
		NoOfHeats: map[string]map[string]int{
			"S": {"A": 2},
			"F": {"A": 1, "B": 1},
		},
		FromTo: map[string]map[string]models.AdvancementRule{
			"S": {"A": models.AdvancementRule{"F": {"A": n(4), "B": kw(models.RuleKeywordRest)}}},
		},
	},
	{
		MaxNoOfContestants: 24,
		Rounds:             []string{"Q", "S", "F"},
		NoOfHeats: map[string]map[string]int{
			"Q": {"": 3},
			"S": {"A": 2},
			"F": {"A": 1, "B": 1, "C": 1},
		},
		FromTo: map[string]map[string]models.AdvancementRule{
			"Q": {"": models.AdvancementRule{"S": {"A": n(5)}, "F": {"C": kw(models.RuleKeywordRest)}}},
			"S": {"A": models.AdvancementRule{"F": {"A": n(4), "B": kw(models.RuleKeywordRest)}}},
		},
	},
	{
		MaxNoOfContestants: 32,
		Rounds:             []string{"Q", "S", "F"},
		NoOfHeats: map[string]map[string]int{
			"Q": {"": 4},
			"S": {"A": 2, "C": 2},
			"F": {"A": 1, "B": 1, "C": 1},
		},
		FromTo: map[string]map[string]models.AdvancementRule{
			"Q": {"": models.AdvancementRule{"S": {"A": n(4), "C": kw(models.RuleKeywordRest)}}},
			"S": {
				"A": models.AdvancementRule{"F": {"A": n(4), "B": kw(models.RuleKeywordRest)}},
				"C": models.AdvancementRule{"F": {"C": n(4)}},
			},
		},
	},
	{
		MaxNoOfContestants: 40,
		Rounds:             []string{"Q", "S", "F"},
		NoOfHeats: map[string]map[string]int{
			"Q": {"": 5},
			"S": {"A": 3, "C": 2},
			"F": {"A": 1, "B": 1, "C": 1},
		},
		FromTo: map[string]map[string]models.AdvancementRule{
			"Q": {"": models.AdvancementRule{"S": {"A": n(5), "C": kw(models.RuleKeywordRest)}}},
			"S": {
				"A": models.AdvancementRule{"F": {"A": n(3), "B": n(3)}},
				"C": models.AdvancementRule{"F": {"C": n(4)}},
			},
		},
	},
	{
		MaxNoOfContestants: 48,
		Rounds:             []string{"Q", "S", "F"},
		NoOfHeats: map[string]map[string]int{
			"Q": {"": 6},
			"S": {"A": 3, "C": 3},
			"F": {"A": 1, "B": 1, "C": 1},
		},
		FromTo: map[string]map[string]models.AdvancementRule{
			"Q": {"": models.AdvancementRule{"S": {"A": n(4), "C": kw(models.RuleKeywordRest)}}},
			"S": {
				"A": models.AdvancementRule{"F": {"A": n(3), "B": n(3)}},
				"C": models.AdvancementRule{"F": {"C": n(3)}},
			},
		},
	},
	{
		MaxNoOfContestants: 56,
		Rounds:             []string{"Q", "S", "F"},
		NoOfHeats: map[string]map[string]int{
			"Q": {"": 7},
			"S": {"A": 4, "C": 3},
			"F": {"A": 1, "B": 1, "C": 1},
		},
		FromTo: map[string]map[string]models.AdvancementRule{
			"Q": {"": models.AdvancementRule{"S": {"A": n(5), "C": kw(models.RuleKeywordRest)}}},
			"S": {
				"A": models.AdvancementRule{"F": {"A": n(2), "B": n(2)}},
				"C": models.AdvancementRule{"F": {"C": n(3)}},
			},
		},
	},
	{
		MaxNoOfContestants: 80,
		Rounds:             []string{"Q", "S", "F"},
		NoOfHeats: map[string]map[string]int{
			"Q": {"": 8},
			"S": {"A": 4, "C": 4},
			"F": {"A": 1, "B": 1, "C": 1},
		},
		FromTo: map[string]map[string]models.AdvancementRule{
			"Q": {"": models.AdvancementRule{"S": {"A": n(4), "C": kw(models.RuleKeywordRest)}}},
			"S": {
				"A": models.AdvancementRule{"F": {"A": n(2), "B": n(2)}},
				"C": models.AdvancementRule{"F": {"C": n(2)}},
			},
		},
	},
}

// BuiltinNonRankedConfig covers the youngest classes: everyone skis
// both rounds, R1 feeding R2 unchanged. Heat counts grow with the
// field so no heat exceeds ten skiers.
var BuiltinNonRankedConfig = []models.RaceConfig{
	nonRankedRow(10, 1),
	nonRankedRow(20, 2),
	nonRankedRow(30, 3),
	nonRankedRow(40, 4),
	nonRankedRow(60, 6),
	nonRankedRow(70, 7),
	nonRankedRow(80, 8),
}

func nonRankedRow(maxContestants, heats int) models.RaceConfig {
	return models.RaceConfig{
		MaxNoOfContestants: maxContestants,
		Rounds:             []string{"R1", "R2"},
		NoOfHeats: map[string]map[string]int{
			"R1": {"": heats},
			"R2": {"": heats},
		},
		FromTo: map[string]map[string]models.AdvancementRule{
			"R1": {"": models.AdvancementRule{"R2": {"": kw(models.RuleKeywordAll)}}},
		},
	}
}

// SelectRaceConfig picks the row whose capacity is the smallest that
// seats contestants. A field larger than the largest row cannot be
// bracketed and is a validation failure.
func SelectRaceConfig(configs []models.RaceConfig, contestants int) (*models.RaceConfig, error) {
	sorted := make([]models.RaceConfig, len(configs))
	copy(sorted, configs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MaxNoOfContestants < sorted[j].MaxNoOfContestants
	})

	for i := range sorted {
		if contestants <= sorted[i].MaxNoOfContestants {
			return &sorted[i], nil
		}
	}
	return nil, models.Validationf(
		"no race config seats %d contestants (largest row seats %d)",
		contestants, sorted[len(sorted)-1].MaxNoOfContestants)
}
