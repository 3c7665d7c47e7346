// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package census

import "time"

// Metagame event IDs for the special alert types.
const (
	AerialAnomalyIndar   = 228
	AerialAnomalyHossin  = 229
	AerialAnomalyAmerish = 230
	AerialAnomalyEsamir  = 231
	AerialAnomalyOshur   = 232

	SuddenDeathIndar   = 236
	SuddenDeathHossin  = 237
	SuddenDeathAmerish = 238
	SuddenDeathEsamir  = 239
	SuddenDeathOshur   = 240
	SuddenDeathUnknown = 241

	GhostBastionIndar   = 242
	GhostBastionHossin  = 243
	GhostBastionAmerish = 244
	GhostBastionEsamir  = 245
	GhostBastionOshur   = 246 // probably
)

// IsAerialAnomaly reports whether a metagame event is an aerial anomaly.
func IsAerialAnomaly(metagameEventID int) bool {
	return metagameEventID >= AerialAnomalyIndar && metagameEventID <= AerialAnomalyOshur
}

// IsGhostBastion reports whether a metagame event is a ghost bastion.
func IsGhostBastion(metagameEventID int) bool {
	return metagameEventID >= GhostBastionIndar && metagameEventID <= GhostBastionOshur
}

// IsSuddenDeath reports whether a metagame event is a sudden death round.
func IsSuddenDeath(metagameEventID int) bool {
	return metagameEventID >= SuddenDeathIndar && metagameEventID <= SuddenDeathUnknown
}

// MetagameDuration returns how long a metagame event (alert) lasts, or
// false if the duration for that event ID is unknown.
func MetagameDuration(metagameEventID int) (time.Duration, bool) {
	if IsGhostBastion(metagameEventID) {
		return 15 * time.Minute, true
	}
	if IsAerialAnomaly(metagameEventID) {
		return 30 * time.Minute, true
	}
	if IsSuddenDeath(metagameEventID) {
		return 15 * time.Minute, true
	}

	switch metagameEventID {
	case 147, 148, 149, // Indar
		150, 151, 152, // Esamir
		153, 154, 155, // Hossin
		156, 157, 158, // Amerish
		211, 212, 213, 214,
		222, 223, 224: // Oshur
		return 90 * time.Minute, true

	case 176, 177, 178, 179, 186, 187, 188, 189, 190, 191, 192, 193:
		return 45 * time.Minute, true

	case 208, 209, 210:
		return time.Minute, true
	}

	return 0, false
}
