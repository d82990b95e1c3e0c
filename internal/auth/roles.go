// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package auth

// Roles known to the sportsapp deployment. The user service owns the
// role assignments; Heatsheet only names which roles each route group
// accepts.
const (
	RoleAdmin      = "admin"
	RoleEventAdmin = "event-admin"
	RoleRaceResult = "race-result"
	RoleRaceOffice = "race-office"
)

// Resources named in the casbin policy for local-mode enforcement.
// Each mutating route group maps to exactly one resource.
const (
	ResourceRaceplans    = "raceplans"
	ResourceStartlists   = "startlists"
	ResourceRaces        = "races"
	ResourceStartEntries = "start-entries"
	ResourceRaceResults  = "race-results"
	ResourceTimeEvents   = "time-events"
)

// AdminRoles guards raceplan, startlist, and race mutations.
var AdminRoles = []string{RoleAdmin, RoleEventAdmin}

// ResultRoles additionally admits the timing crew, for time events and
// race results.
var ResultRoles = []string{RoleAdmin, RoleEventAdmin, RoleRaceResult}

// StartEntryRoles additionally admits the race office, which records
// DNS/DNF/DSQ on start entries.
var StartEntryRoles = []string{RoleAdmin, RoleEventAdmin, RoleRaceResult, RoleRaceOffice}
