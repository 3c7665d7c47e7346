// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package census

// Faction identifiers as used by the census API.
const (
	FactionUnknown int16 = -1
	FactionVS      int16 = 1
	FactionNC      int16 = 2
	FactionTR      int16 = 3
	// FactionNS is the faction-less (Nanite Systems) faction. NS
	// characters fight for whichever side their squad is on, so their
	// effective team can diverge from their faction.
	FactionNS int16 = 4
)

// FactionName returns a short display name for a faction ID.
func FactionName(factionID int16) string {
	switch factionID {
	case FactionVS:
		return "VS"
	case FactionNC:
		return "NC"
	case FactionTR:
		return "TR"
	case FactionNS:
		return "NS"
	default:
		return "unknown"
	}
}

// LoadoutFaction maps a loadout ID to the faction that loadout belongs
// to, or FactionUnknown for unrecognized loadouts.
func LoadoutFaction(loadoutID int16) int16 {
	switch loadoutID {
	case 1, 3, 4, 5, 6, 7: // NC infil, LA, medic, engi, heavy, MAX
		return FactionNC
	case 8, 10, 11, 12, 13, 14:
		return FactionTR
	case 15, 17, 18, 19, 20, 21:
		return FactionVS
	case 28, 29, 30, 31, 32, 45:
		return FactionNS
	default:
		return FactionUnknown
	}
}
