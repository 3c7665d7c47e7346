// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package census

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// EventName identifies a realtime feed event type.
type EventName string

const (
	EventPlayerLogin     EventName = "PlayerLogin"
	EventPlayerLogout    EventName = "PlayerLogout"
	EventGainExperience  EventName = "GainExperience"
	EventDeath           EventName = "Death"
	EventContinentLock   EventName = "ContinentLock"
	EventContinentUnlock EventName = "ContinentUnlock"
	EventMetagameEvent   EventName = "MetagameEvent"
)

// Decode failure modes. The dispatcher logs these and drops the event;
// none of them is fatal to the stream.
var (
	// ErrNotServiceMessage is returned for frames that are not event
	// wrappers, such as heartbeats and subscription echoes.
	ErrNotServiceMessage = errors.New("census: not a service message")
	// ErrMissingPayload is returned for service messages with no payload.
	ErrMissingPayload = errors.New("census: service message has no payload")
	// ErrMissingEventName is returned for payloads without an event_name.
	ErrMissingEventName = errors.New("census: payload has no event_name")
)

// UnknownEventError is returned for event names this tracker does not
// handle. New upstream event types must never crash the dispatcher.
type UnknownEventError struct {
	Name string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("census: untracked event_name %q", e.Name)
}

// Event is a decoded realtime feed event.
type Event interface {
	// Name returns the event type discriminator.
	Name() EventName
}

// PlayerLogin is sent when a character logs in.
type PlayerLogin struct {
	CharacterID string
	WorldID     int16
	Timestamp   time.Time
}

func (PlayerLogin) Name() EventName { return EventPlayerLogin }

// PlayerLogout is sent when a character logs out.
type PlayerLogout struct {
	CharacterID string
	WorldID     int16
	Timestamp   time.Time
}

func (PlayerLogout) Name() EventName { return EventPlayerLogout }

// Death is sent when one character kills another.
type Death struct {
	AttackerID        string
	AttackerLoadoutID int16
	KilledID          string
	KilledLoadoutID   int16
	WeaponID          string
	FireModeID        int
	VehicleID         int
	IsHeadshot        bool
	WorldID           int16
	ZoneID            int32
	Timestamp         time.Time
}

func (Death) Name() EventName { return EventDeath }

// GainExperience is sent when a character earns experience.
type GainExperience struct {
	CharacterID  string
	ExperienceID int
	LoadoutID    int16
	Amount       int
	OtherID      string
	WorldID      int16
	ZoneID       int32
	Timestamp    time.Time
}

func (GainExperience) Name() EventName { return EventGainExperience }

// ContinentLock is sent when a continent locks.
type ContinentLock struct {
	WorldID   int16
	ZoneID    int32
	Timestamp time.Time
}

func (ContinentLock) Name() EventName { return EventContinentLock }

// ContinentUnlock is sent when a continent opens.
type ContinentUnlock struct {
	WorldID   int16
	ZoneID    int32
	Timestamp time.Time
}

func (ContinentUnlock) Name() EventName { return EventContinentUnlock }

// MetagameEvent is sent when an alert starts or ends.
type MetagameEvent struct {
	MetagameEventID int
	// State is "started" or "ended".
	State     string
	WorldID   int16
	ZoneID    int32
	Timestamp time.Time
}

func (MetagameEvent) Name() EventName { return EventMetagameEvent }

// envelope is the outer service message wrapper.
type envelope struct {
	Type    string          `json:"type"`
	Service string          `json:"service"`
	Payload json.RawMessage `json:"payload"`
}

// rawPayload is the loosely-typed census payload. The census API sends
// every numeric field as a string.
type rawPayload struct {
	EventName           string `json:"event_name"`
	CharacterID         string `json:"character_id"`
	WorldID             string `json:"world_id"`
	ZoneID              string `json:"zone_id"`
	Timestamp           string `json:"timestamp"`
	AttackerCharacterID string `json:"attacker_character_id"`
	AttackerLoadoutID   string `json:"attacker_loadout_id"`
	CharacterLoadoutID  string `json:"character_loadout_id"`
	AttackerWeaponID    string `json:"attacker_weapon_id"`
	AttackerFireModeID  string `json:"attacker_fire_mode_id"`
	AttackerVehicleID   string `json:"attacker_vehicle_id"`
	IsHeadshot          string `json:"is_headshot"`
	ExperienceID        string `json:"experience_id"`
	LoadoutID           string `json:"loadout_id"`
	Amount              string `json:"amount"`
	OtherID             string `json:"other_id"`
	MetagameEventID     string `json:"metagame_event_id"`
	MetagameEventState  string `json:"metagame_event_state_name"`
}

func (p *rawPayload) worldID() int16 {
	return int16(parseInt(p.WorldID, 0))
}

func (p *rawPayload) zoneID() int32 {
	return int32(parseInt(p.ZoneID, -1))
}

func (p *rawPayload) timestamp() time.Time {
	return time.Unix(parseInt(p.Timestamp, 0), 0).UTC()
}

func parseInt(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// Decode validates a raw feed frame and decodes it into a typed event.
// Frames that are not service messages, lack a payload or event name, or
// carry an untracked event name produce the corresponding error.
func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("census: malformed frame: %w", err)
	}
	if env.Type != "serviceMessage" {
		return nil, ErrNotServiceMessage
	}
	if len(env.Payload) == 0 {
		return nil, ErrMissingPayload
	}

	var p rawPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return nil, fmt.Errorf("census: malformed payload: %w", err)
	}
	if p.EventName == "" {
		return nil, ErrMissingEventName
	}

	if err := validateEnvelope(raw); err != nil {
		return nil, err
	}

	switch EventName(p.EventName) {
	case EventPlayerLogin:
		return PlayerLogin{
			CharacterID: p.CharacterID,
			WorldID:     p.worldID(),
			Timestamp:   p.timestamp(),
		}, nil

	case EventPlayerLogout:
		return PlayerLogout{
			CharacterID: p.CharacterID,
			WorldID:     p.worldID(),
			Timestamp:   p.timestamp(),
		}, nil

	case EventDeath:
		return Death{
			AttackerID:        orZero(p.AttackerCharacterID),
			AttackerLoadoutID: int16(parseInt(p.AttackerLoadoutID, -1)),
			KilledID:          orZero(p.CharacterID),
			KilledLoadoutID:   int16(parseInt(p.CharacterLoadoutID, -1)),
			WeaponID:          orZero(p.AttackerWeaponID),
			FireModeID:        int(parseInt(p.AttackerFireModeID, 0)),
			VehicleID:         int(parseInt(p.AttackerVehicleID, 0)),
			IsHeadshot:        p.IsHeadshot != "" && p.IsHeadshot != "0",
			WorldID:           p.worldID(),
			ZoneID:            p.zoneID(),
			Timestamp:         p.timestamp(),
		}, nil

	case EventGainExperience:
		return GainExperience{
			CharacterID:  p.CharacterID,
			ExperienceID: int(parseInt(p.ExperienceID, -1)),
			LoadoutID:    int16(parseInt(p.LoadoutID, -1)),
			Amount:       int(parseInt(p.Amount, 0)),
			OtherID:      orZero(p.OtherID),
			WorldID:      p.worldID(),
			ZoneID:       p.zoneID(),
			Timestamp:    p.timestamp(),
		}, nil

	case EventContinentLock:
		return ContinentLock{WorldID: p.worldID(), ZoneID: p.zoneID(), Timestamp: p.timestamp()}, nil

	case EventContinentUnlock:
		return ContinentUnlock{WorldID: p.worldID(), ZoneID: p.zoneID(), Timestamp: p.timestamp()}, nil

	case EventMetagameEvent:
		return MetagameEvent{
			MetagameEventID: int(parseInt(p.MetagameEventID, 0)),
			State:           p.MetagameEventState,
			WorldID:         p.worldID(),
			ZoneID:          p.zoneID(),
			Timestamp:       p.timestamp(),
		}, nil
	}

	return nil, &UnknownEventError{Name: p.EventName}
}

// orZero substitutes the census "no character" ID for empty fields so
// downstream code can rely on a non-empty key.
func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
