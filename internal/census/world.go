// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package census

import "fmt"

// World (server) IDs.
const (
	WorldConnery int16 = 1
	WorldMiller  int16 = 10
	WorldCobalt  int16 = 13
	WorldEmerald int16 = 17
	WorldJaeger  int16 = 19
	WorldSolTech int16 = 40
)

// WorldName returns the display name of a world.
func WorldName(worldID int16) string {
	switch worldID {
	case WorldConnery:
		return "Connery"
	case WorldMiller:
		return "Miller"
	case WorldCobalt:
		return "Cobalt"
	case WorldEmerald:
		return "Emerald"
	case WorldJaeger:
		return "Jaeger"
	case WorldSolTech:
		return "SolTech"
	}
	return fmt.Sprintf("world %d", worldID)
}
