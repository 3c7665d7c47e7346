// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package census

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/samber/oops"
)

// DefaultRESTURL is the public census REST endpoint.
const DefaultRESTURL = "https://census.daybreakgames.com"

// Character is a resolved character profile.
type Character struct {
	ID        string
	Name      string
	FactionID int16
	WorldID   int16
}

// CharacterSource resolves full character profiles. Implementations are
// expected to be slow; callers must not hold state-store locks across a
// resolution.
type CharacterSource interface {
	Character(ctx context.Context, characterID string) (*Character, error)
}

// ErrCharacterNotFound is returned when the census API has no record of
// a character (deleted characters keep producing events briefly).
var ErrCharacterNotFound = oops.Errorf("census: character not found")

// RESTCharacterSource resolves characters from the census REST API.
type RESTCharacterSource struct {
	baseURL   string
	serviceID string
	client    *http.Client
}

// NewRESTCharacterSource creates a character source against the public
// census API.
func NewRESTCharacterSource(serviceID string) *RESTCharacterSource {
	return &RESTCharacterSource{
		baseURL:   DefaultRESTURL,
		serviceID: serviceID,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type characterResponse struct {
	CharacterList []struct {
		CharacterID string `json:"character_id"`
		Name        struct {
			First string `json:"first"`
		} `json:"name"`
		FactionID string `json:"faction_id"`
		WorldID   string `json:"world_id"`
	} `json:"character_list"`
	Returned int `json:"returned"`
}

// Character fetches a single character profile.
func (s *RESTCharacterSource) Character(ctx context.Context, characterID string) (*Character, error) {
	u := fmt.Sprintf("%s/s:%s/get/ps2:v2/character/?character_id=%s&c:resolve=world&c:show=character_id,name.first,faction_id,world_id",
		s.baseURL, s.serviceID, url.QueryEscape(characterID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, oops.Code("CENSUS_REQUEST_FAILED").With("character_id", characterID).Wrap(err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, oops.Code("CENSUS_REQUEST_FAILED").With("character_id", characterID).Wrap(err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return nil, oops.Code("CENSUS_REQUEST_FAILED").
			With("character_id", characterID).
			With("status", resp.StatusCode).
			Errorf("census: unexpected status %d", resp.StatusCode)
	}

	var body characterResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, oops.Code("CENSUS_DECODE_FAILED").With("character_id", characterID).Wrap(err)
	}

	if len(body.CharacterList) == 0 {
		return nil, ErrCharacterNotFound
	}

	c := body.CharacterList[0]
	return &Character{
		ID:        c.CharacterID,
		Name:      c.Name.First,
		FactionID: int16(parseInt(c.FactionID, int64(FactionUnknown))),
		WorldID:   int16(parseInt(c.WorldID, 0)),
	}, nil
}
