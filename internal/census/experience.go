// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package census

// Experience type IDs the tracker cares about.
const (
	ExpHeal          = 4
	ExpRevive        = 7
	ExpResupply      = 34
	ExpSquadHeal     = 51
	ExpSquadRevive   = 53
	ExpSquadResupply = 55

	// ExpSundererSpawnBonus is granted to a Sunderer owner when someone
	// spawns on it.
	ExpSundererSpawnBonus = 233
	// ExpGenericNpcSpawn is granted to a router owner when someone
	// spawns on it.
	ExpGenericNpcSpawn = 1410
)

// IsRevive reports whether an experience ID is a revive or squad revive.
func IsRevive(expID int) bool {
	return expID == ExpRevive || expID == ExpSquadRevive
}

// IsHeal reports whether an experience ID is a heal or squad heal.
func IsHeal(expID int) bool {
	return expID == ExpHeal || expID == ExpSquadHeal
}

// IsResupply reports whether an experience ID is a resupply or squad
// resupply.
func IsResupply(expID int) bool {
	return expID == ExpResupply || expID == ExpSquadResupply
}

// IsSupport reports whether an experience ID indicates one character
// actively supporting another (revive, heal, or resupply). Support
// events drive team propagation for faction-less characters.
func IsSupport(expID int) bool {
	return IsRevive(expID) || IsHeal(expID) || IsResupply(expID)
}
