// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

// Package census models the Daybreak census realtime feed: event
// envelopes and their typed payloads, the websocket stream client, and
// the static game tables (factions, loadouts, experience types, zones,
// worlds, metagame event durations) needed to interpret events.
package census
