package script

import (
	"encoding/json"
	"fmt"
)

// Content validation errors.
var (
	ErrNoStages       = fmt.Errorf("script: no stages")
	ErrNoScenes       = fmt.Errorf("script: first stage has no scenes")
	ErrNoPlayer       = fmt.Errorf("script: first stage has no player character")
	ErrDuplicateScene = fmt.Errorf("script: duplicate scene id")
)

// Parse decodes and validates a script document. Scene ids must be
// unique within their stage; a script violating that is rejected at load
// instead of producing undefined navigation later.
func Parse(raw []byte) (*Script, error) {
	var sc Script
	if err := json.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("script: decode: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the structural invariants of a loaded script.
func (sc *Script) Validate() error {
	if len(sc.Stages) == 0 {
		return ErrNoStages
	}
	if len(sc.Stages[0].Scenes) == 0 {
		return ErrNoScenes
	}
	if sc.Stages[0].PlayerCharacter() == nil {
		return ErrNoPlayer
	}
	for i := range sc.Stages {
		seen := make(map[string]bool, len(sc.Stages[i].Scenes))
		for j := range sc.Stages[i].Scenes {
			id := sc.Stages[i].Scenes[j].ID
			if seen[id] {
				return fmt.Errorf("%w: %q in stage %q", ErrDuplicateScene, id, sc.Stages[i].ID)
			}
			seen[id] = true
		}
	}
	return nil
}
