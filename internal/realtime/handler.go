// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

// Package realtime contains the event ingestion engine: the dispatcher
// that routes decoded feed events into the state stores and durable
// event stores, the session lifecycle tracker, and the background work
// queues that keep slow follow-up work off the hot path.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/spyglass/spyglass/internal/census"
	"github.com/spyglass/spyglass/internal/events"
	"github.com/spyglass/spyglass/internal/state"
)

// dedupWindow is how many recent events the redelivery suppression
// window holds.
const dedupWindow = 10

// EventHandler routes each raw feed event to its handler, coordinating
// the state stores, durable stores, and background queues. Process
// returns once all synchronous state mutations and enqueues are
// applied; durable writes that fail are logged and dropped, never
// retried (at-most-once, per write).
type EventHandler struct {
	log    *slog.Logger
	tracer trace.Tracer

	players *state.CharacterStore
	zones   *state.ZoneStore
	npcs    *state.NpcStore

	kills    events.KillStore
	exp      events.ExpStore
	sessions *SessionTracker

	// characterQueue carries character IDs needing profile resolution;
	// sessionQueue carries player records needing eager session rows.
	characterQueue *Queue[string]
	sessionQueue   *Queue[state.TrackedPlayer]

	recent *dedupRing
	now    func() time.Time
}

// HandlerDeps bundles the collaborators the event handler coordinates.
type HandlerDeps struct {
	Players  *state.CharacterStore
	Zones    *state.ZoneStore
	Npcs     *state.NpcStore
	Kills    events.KillStore
	Exp      events.ExpStore
	Sessions *SessionTracker

	CharacterQueue *Queue[string]
	SessionQueue   *Queue[state.TrackedPlayer]
}

// NewEventHandler creates an event handler.
func NewEventHandler(deps HandlerDeps, log *slog.Logger) *EventHandler {
	return &EventHandler{
		log:            log,
		tracer:         otel.Tracer("spyglass/realtime"),
		players:        deps.Players,
		zones:          deps.Zones,
		npcs:           deps.Npcs,
		kills:          deps.Kills,
		exp:            deps.Exp,
		sessions:       deps.Sessions,
		characterQueue: deps.CharacterQueue,
		sessionQueue:   deps.SessionQueue,
		recent:         newDedupRing(dedupWindow),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// HandleFrame implements census.FrameHandler.
func (h *EventHandler) HandleFrame(ctx context.Context, raw []byte) {
	h.Process(ctx, raw)
}

// Process ingests one raw feed frame: suppress short-window redelivery,
// decode, route. Malformed, duplicate, and untracked events are logged
// and dropped; nothing here panics on unexpected input.
func (h *EventHandler) Process(ctx context.Context, raw []byte) {
	fp := fingerprint(raw)
	if h.recent.seen(fp) {
		h.log.DebugContext(ctx, "skipping duplicate event", slog.String("event", string(raw)))
		EventsDropped.WithLabelValues(DropDuplicate).Inc()
		return
	}
	h.recent.add(fp)

	ctx, span := h.tracer.Start(ctx, "realtime.process")
	defer span.End()

	ev, err := census.Decode(raw)
	if err != nil {
		h.dropDecodeError(ctx, raw, err)
		return
	}

	EventsProcessed.WithLabelValues(string(ev.Name())).Inc()

	switch ev := ev.(type) {
	case census.PlayerLogin:
		h.handleLogin(ctx, ev)
	case census.PlayerLogout:
		h.handleLogout(ctx, ev)
	case census.Death:
		h.handleDeath(ctx, ev)
	case census.GainExperience:
		h.handleExperience(ctx, ev)
	case census.ContinentUnlock:
		h.zones.SetOpened(ev.WorldID, ev.ZoneID, true)
		h.log.DebugContext(ctx, "continent opened",
			slog.Int("world_id", int(ev.WorldID)), slog.Int("zone_id", int(ev.ZoneID)))
	case census.ContinentLock:
		h.zones.SetOpened(ev.WorldID, ev.ZoneID, false)
		h.log.DebugContext(ctx, "continent closed",
			slog.Int("world_id", int(ev.WorldID)), slog.Int("zone_id", int(ev.ZoneID)))
	case census.MetagameEvent:
		h.handleMetagame(ctx, ev)
	}
}

func (h *EventHandler) dropDecodeError(ctx context.Context, raw []byte, err error) {
	var unknown *census.UnknownEventError
	switch {
	case errors.As(err, &unknown):
		h.log.WarnContext(ctx, "untracked event name",
			slog.String("event_name", unknown.Name), slog.String("event", string(raw)))
		EventsDropped.WithLabelValues(DropUntracked).Inc()
	case errors.Is(err, census.ErrNotServiceMessage):
		h.log.DebugContext(ctx, "dropping non-event frame", slog.String("event", string(raw)))
		EventsDropped.WithLabelValues(DropMalformed).Inc()
	default:
		h.log.WarnContext(ctx, "dropping malformed event",
			slog.String("error", err.Error()), slog.String("event", string(raw)))
		EventsDropped.WithLabelValues(DropMalformed).Inc()
	}
}

func (h *EventHandler) handleLogin(ctx context.Context, ev census.PlayerLogin) {
	if ev.CharacterID == "" {
		return
	}

	h.enqueueCharacter(ev.CharacterID)

	h.players.Mutate(func(ps state.PlayerSet) {
		// Faction and team are filled in by background profile
		// resolution, or adopted from the first combat event.
		p := ps.GetOrCreate(ev.CharacterID, state.NewPlayerDefaults(ev.WorldID))
		p.LatestEventAt = h.now()
	})

	if err := h.sessions.Start(ctx, ev.CharacterID); err != nil {
		h.log.ErrorContext(ctx, "failed to start session",
			slog.String("character_id", ev.CharacterID), slog.String("error", err.Error()))
	}
}

func (h *EventHandler) handleLogout(ctx context.Context, ev census.PlayerLogout) {
	if ev.CharacterID == "" {
		return
	}

	h.enqueueCharacter(ev.CharacterID)

	present := false
	h.players.Mutate(func(ps state.PlayerSet) {
		p := ps.Get(ev.CharacterID)
		if p == nil {
			return
		}
		present = true
		// An NS character cannot keep supporting a side while offline.
		if p.FactionID == census.FactionNS {
			p.TeamID = census.FactionNS
		}
		p.LatestEventAt = h.now()
	})
	if !present {
		return
	}

	if err := h.sessions.End(ctx, ev.CharacterID); err != nil {
		h.log.ErrorContext(ctx, "failed to end session",
			slog.String("character_id", ev.CharacterID), slog.String("error", err.Error()))
	}
}

func (h *EventHandler) handleDeath(ctx context.Context, ev census.Death) {
	attackerFaction := census.LoadoutFaction(ev.AttackerLoadoutID)
	killedFaction := census.LoadoutFaction(ev.KilledLoadoutID)

	h.enqueueCharacter(ev.AttackerID)
	h.enqueueCharacter(ev.KilledID)

	kill := events.KillEvent{
		AttackerCharacterID: ev.AttackerID,
		AttackerLoadoutID:   ev.AttackerLoadoutID,
		AttackerTeamID:      attackerFaction,
		AttackerFireModeID:  ev.FireModeID,
		AttackerVehicleID:   ev.VehicleID,
		KilledCharacterID:   ev.KilledID,
		KilledLoadoutID:     ev.KilledLoadoutID,
		KilledTeamID:        killedFaction,
		WeaponID:            ev.WeaponID,
		IsHeadshot:          ev.IsHeadshot,
		WorldID:             ev.WorldID,
		ZoneID:              ev.ZoneID,
		Timestamp:           ev.Timestamp,
	}

	var sessionStarts []state.TrackedPlayer
	h.players.Mutate(func(ps state.PlayerSet) {
		now := h.now()

		attackerDef := state.NewPlayerDefaults(ev.WorldID)
		attackerDef.FactionID = attackerFaction
		attackerDef.TeamID = attackerFaction
		// Online must default to false so the first event for a
		// never-seen character still starts a session.
		attacker := ps.GetOrCreate(ev.AttackerID, attackerDef)

		if !attacker.Online {
			sessionStarts = append(sessionStarts, *attacker)
		}

		attacker.ZoneID = ev.ZoneID
		if attacker.FactionID == census.FactionUnknown {
			// A record made from a login has no faction yet.
			attacker.FactionID = attackerFaction
			attacker.TeamID = attackerFaction
		}
		// Attribute the kill to the attacker's current team so NS
		// support propagation is reflected.
		kill.AttackerTeamID = attacker.TeamID

		killedDef := state.NewPlayerDefaults(ev.WorldID)
		killedDef.FactionID = killedFaction
		killedDef.TeamID = killedFaction
		killed := ps.GetOrCreate(ev.KilledID, killedDef)

		// A suicide must produce a single session start, not two.
		if !killed.Online && killed.ID != attacker.ID {
			sessionStarts = append(sessionStarts, *killed)
		}

		killed.ZoneID = ev.ZoneID
		if killed.FactionID == census.FactionUnknown {
			killed.FactionID = killedFaction
			killed.TeamID = killedFaction
		}
		kill.KilledTeamID = killed.TeamID

		attacker.LatestEventAt = now
		killed.LatestEventAt = now
	})

	for _, p := range sessionStarts {
		h.enqueueSessionStart(p)
	}

	if _, err := h.kills.Insert(ctx, kill); err != nil {
		WriteFailures.WithLabelValues("kills").Inc()
		h.log.ErrorContext(ctx, "failed to insert kill event",
			slog.String("attacker_id", ev.AttackerID),
			slog.String("killed_id", ev.KilledID),
			slog.String("error", err.Error()))
	}
}

func (h *EventHandler) handleExperience(ctx context.Context, ev census.GainExperience) {
	if ev.CharacterID == "" {
		return
	}

	faction := census.LoadoutFaction(ev.LoadoutID)

	h.enqueueCharacter(ev.CharacterID)

	exp := events.ExpEvent{
		SourceID:     ev.CharacterID,
		ExperienceID: ev.ExperienceID,
		LoadoutID:    ev.LoadoutID,
		TeamID:       faction,
		Amount:       ev.Amount,
		OtherID:      ev.OtherID,
		WorldID:      ev.WorldID,
		ZoneID:       ev.ZoneID,
		Timestamp:    ev.Timestamp,
	}

	var sessionStart *state.TrackedPlayer
	h.players.Mutate(func(ps state.PlayerSet) {
		def := state.NewPlayerDefaults(ev.WorldID)
		def.FactionID = faction
		def.TeamID = faction
		p := ps.GetOrCreate(ev.CharacterID, def)

		if !p.Online {
			c := *p
			sessionStart = &c
		}

		p.LatestEventAt = h.now()
		p.ZoneID = ev.ZoneID

		if p.FactionID == census.FactionUnknown {
			p.FactionID = faction
			p.TeamID = faction
		}

		if census.IsSupport(ev.ExperienceID) {
			// A faction-less character adopts the side it actively
			// supports. Two NS characters never propagate team between
			// each other, or one bad team would spread through the
			// whole NS population.
			if other := ps.Get(ev.OtherID); other != nil {
				if p.FactionID == census.FactionNS &&
					other.FactionID != census.FactionNS &&
					other.FactionID != census.FactionUnknown &&
					p.TeamID != other.FactionID {
					p.TeamID = other.FactionID
				}

				if p.FactionID != census.FactionNS &&
					p.FactionID != census.FactionUnknown &&
					other.FactionID == census.FactionNS &&
					other.TeamID != p.FactionID {
					other.TeamID = p.FactionID
				}
			}
		}

		exp.TeamID = p.TeamID
	})

	if sessionStart != nil {
		h.enqueueSessionStart(*sessionStart)
	}

	expID, err := h.exp.Insert(ctx, exp)
	if err != nil {
		WriteFailures.WithLabelValues("exp").Inc()
		h.log.ErrorContext(ctx, "failed to insert experience event",
			slog.String("character_id", ev.CharacterID),
			slog.Int("experience_id", ev.ExperienceID),
			slog.String("error", err.Error()))
		return
	}

	if census.IsRevive(ev.ExperienceID) {
		if err := h.kills.SetRevivedID(ctx, ev.OtherID, expID); err != nil {
			WriteFailures.WithLabelValues("kills").Inc()
			h.log.ErrorContext(ctx, "failed to link revive to kill",
				slog.String("revived_id", ev.OtherID), slog.String("error", err.Error()))
		}
	}

	if ev.OtherID != "" && ev.OtherID != "0" {
		switch ev.ExperienceID {
		case census.ExpSundererSpawnBonus:
			h.npcs.RecordSpawn(ev.OtherID, ev.CharacterID, state.NpcSunderer, ev.WorldID, h.now())
		case census.ExpGenericNpcSpawn:
			h.npcs.RecordSpawn(ev.OtherID, ev.CharacterID, state.NpcRouter, ev.WorldID, h.now())
		}
	}
}

func (h *EventHandler) handleMetagame(ctx context.Context, ev census.MetagameEvent) {
	switch ev.State {
	case "started":
		duration, ok := census.MetagameDuration(ev.MetagameEventID)
		if !ok {
			h.log.WarnContext(ctx, "unknown metagame event duration",
				slog.Int("metagame_event_id", ev.MetagameEventID))
		}
		h.zones.StartAlert(ev.WorldID, ev.ZoneID, h.now(), duration, ok)
	case "ended":
		h.zones.EndAlert(ev.WorldID, ev.ZoneID)
	default:
		h.log.WarnContext(ctx, "unknown metagame event state",
			slog.String("state", ev.State), slog.Int("metagame_event_id", ev.MetagameEventID))
	}

	h.log.InfoContext(ctx, "metagame event",
		slog.Int("world_id", int(ev.WorldID)),
		slog.Int("zone_id", int(ev.ZoneID)),
		slog.String("state", ev.State),
		slog.Int("metagame_event_id", ev.MetagameEventID))
}

func (h *EventHandler) enqueueCharacter(characterID string) {
	if characterID == "" || characterID == "0" {
		return
	}
	h.characterQueue.Enqueue(characterID)
	QueueDepth.WithLabelValues("characters").Set(float64(h.characterQueue.Len()))
}

func (h *EventHandler) enqueueSessionStart(p state.TrackedPlayer) {
	h.sessionQueue.Enqueue(p)
	QueueDepth.WithLabelValues("sessions").Set(float64(h.sessionQueue.Len()))
}

// dedupRing holds fingerprints of the most recently processed events.
// Lookups scan the whole window, which stays tiny.
type dedupRing struct {
	cap int
	fps []uint64
}

func newDedupRing(capacity int) *dedupRing {
	return &dedupRing{cap: capacity}
}

func (r *dedupRing) seen(fp uint64) bool {
	for _, f := range r.fps {
		if f == fp {
			return true
		}
	}
	return false
}

func (r *dedupRing) add(fp uint64) {
	r.fps = append(r.fps, fp)
	if len(r.fps) > r.cap {
		r.fps = r.fps[1:]
	}
}

// fingerprint hashes the canonical form of a frame so redelivered
// events match regardless of key ordering. Frames that fail to decode
// hash as raw bytes; they will be dropped by Decode anyway.
func fingerprint(raw []byte) uint64 {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return xxhash.Sum64(raw)
	}
	canonical, err := json.Marshal(v) // map keys marshal sorted
	if err != nil {
		return xxhash.Sum64(raw)
	}
	return xxhash.Sum64(canonical)
}
