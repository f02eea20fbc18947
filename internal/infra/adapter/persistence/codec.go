// Package persistence holds the column encodings shared by the SQL quiz repositories.
// Subpackages postgres and sqlite implement repository.QuizRepository.
package persistence

import (
	"encoding/json"
	"fmt"

	"wiki-quiz/internal/domain/entity"
)

type keyEntitiesColumn struct {
	People        []string `json:"people"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
}

// EncodeKeyEntities serialises e for the key_entities column.
func EncodeKeyEntities(e entity.KeyEntities) ([]byte, error) {
	b, err := json.Marshal(keyEntitiesColumn{
		People:        nonNil(e.People),
		Organizations: nonNil(e.Organizations),
		Locations:     nonNil(e.Locations),
	})
	if err != nil {
		return nil, fmt.Errorf("encode key_entities: %w", err)
	}
	return b, nil
}

// DecodeKeyEntities reads a key_entities column. Missing buckets decode as empty slices.
func DecodeKeyEntities(b []byte) (entity.KeyEntities, error) {
	var col keyEntitiesColumn
	if len(b) > 0 {
		if err := json.Unmarshal(b, &col); err != nil {
			return entity.KeyEntities{}, fmt.Errorf("decode key_entities: %w", err)
		}
	}
	return entity.KeyEntities{
		People:        nonNil(col.People),
		Organizations: nonNil(col.Organizations),
		Locations:     nonNil(col.Locations),
	}, nil
}

// EncodeStrings serialises a string list column (sections, options). nil encodes as [].
func EncodeStrings(values []string) ([]byte, error) {
	b, err := json.Marshal(nonNil(values))
	if err != nil {
		return nil, fmt.Errorf("encode string list: %w", err)
	}
	return b, nil
}

// DecodeStrings reads a string list column; empty input yields an empty slice.
func DecodeStrings(b []byte) ([]string, error) {
	var values []string
	if len(b) > 0 {
		if err := json.Unmarshal(b, &values); err != nil {
			return nil, fmt.Errorf("decode string list: %w", err)
		}
	}
	return nonNil(values), nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
