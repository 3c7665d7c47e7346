// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package census

import "fmt"

// Zone (continent) definition IDs.
const (
	ZoneIndar     uint32 = 2
	ZoneHossin    uint32 = 4
	ZoneAmerish   uint32 = 6
	ZoneEsamir    uint32 = 8
	ZoneKoltyr    uint32 = 14
	ZoneOshur     uint32 = 344
	ZoneSanctuary uint32 = 362
)

// PlayableZones lists the zones that host open continent play.
var PlayableZones = []uint32{ZoneIndar, ZoneHossin, ZoneAmerish, ZoneEsamir, ZoneOshur}

// ZoneDefinition strips the instance portion of a zone ID, leaving the
// continent definition ID. Instanced zones (Koltyr, Desolation) encode
// the instance in the upper 16 bits.
func ZoneDefinition(zoneID uint32) uint32 {
	return zoneID & 0xFFFF
}

// ZoneInstance returns the instance portion of a zone ID, or 0 for
// non-instanced zones.
func ZoneInstance(zoneID uint32) uint32 {
	return (zoneID & 0xFFFF0000) >> 16
}

// ZoneName returns the display name of a zone, including the instance
// suffix when one is present.
func ZoneName(zoneID uint32) string {
	defID := ZoneDefinition(zoneID)
	instanceID := ZoneInstance(zoneID)

	switch defID {
	case ZoneIndar:
		return "Indar"
	case ZoneHossin:
		return "Hossin"
	case ZoneAmerish:
		return "Amerish"
	case ZoneEsamir:
		return "Esamir"
	case ZoneOshur:
		return "Oshur"
	case ZoneKoltyr:
		return "Koltyr"
	case ZoneSanctuary:
		return "Sanctuary"
	case 361:
		if instanceID > 0 {
			return fmt.Sprintf("Desolation (instance %d)", instanceID)
		}
		return "Desolation"
	case 96:
		return "VR training (NC)"
	case 97:
		return "VR training (TR)"
	case 98:
		return "VR training (VS)"
	}

	return fmt.Sprintf("zone %d", zoneID)
}
