package session

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/kasuganosora/scriptrpg/game/combat"
	"github.com/kasuganosora/scriptrpg/game/gamelog"
	"github.com/kasuganosora/scriptrpg/game/player"
	"github.com/kasuganosora/scriptrpg/script"
	"github.com/kasuganosora/scriptrpg/store"
)

const storeTimeout = 5 * time.Second

// snapshot is the full session aggregate as persisted. Derived player
// stats are stored but never trusted; load recomputes them.
type snapshot struct {
	Script             json.RawMessage `json:"script"`
	StageID            string          `json:"stageId"`
	SceneID            string          `json:"sceneId"`
	Player             *player.State   `json:"player"`
	Growth             player.Growth   `json:"growth"`
	Log                []gamelog.Entry `json:"log"`
	Combat             combat.State    `json:"combat"`
	PendingSafeSceneID string          `json:"pendingSafeSceneId,omitempty"`
	AwaitingChoice     bool            `json:"awaitingPostCombatChoice,omitempty"`
	LastTownSceneID    string          `json:"lastTownSceneId,omitempty"`
	GameOver           bool            `json:"gameOver,omitempty"`
	Completed          bool            `json:"completed,omitempty"`
	SavedAt            int64           `json:"savedAt"`
}

// Save writes the whole session aggregate to the store. A failure is
// reported through the log and error field; in-memory state is intact.
func (e *Engine) Save() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""

	if e.script == nil {
		e.errMsg = "nothing to save"
		return e.viewLocked()
	}
	snap := snapshot{
		Script:             e.rawScript,
		StageID:            e.stageID,
		SceneID:            e.sceneID,
		Player:             e.player,
		Growth:             e.player.SnapshotGrowth(),
		Log:                e.log.Entries,
		Combat:             e.combat,
		PendingSafeSceneID: e.pendingSafeSceneID,
		AwaitingChoice:     e.awaitingChoice,
		LastTownSceneID:    e.lastTownSceneID,
		GameOver:           e.gameOver,
		Completed:          e.completed,
		SavedAt:            time.Now().UnixMilli(),
	}
	raw, err := json.Marshal(&snap)
	if err != nil {
		e.errMsg = "save failed"
		e.logger.Error("snapshot marshal failed", zap.Error(err))
		return e.viewLocked()
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := e.store.Set(ctx, store.KeySession, raw); err != nil {
		e.errMsg = "save failed"
		e.log.Add(gamelog.KindError, "Could not save the game.")
		e.logger.Error("session save failed", zap.Error(err))
		return e.viewLocked()
	}
	e.log.Add(gamelog.KindSystem, "Game saved.")
	return e.viewLocked()
}

// Load replaces the session with the stored snapshot. Player derived
// stats are recomputed rather than trusted, and the bounded log is
// restored. Delegation never survives a load; the player re-enables it.
func (e *Engine) Load() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	raw, ok, err := e.store.Get(ctx, store.KeySession)
	if err != nil {
		e.errMsg = "load failed"
		e.log.Add(gamelog.KindError, "Could not read the saved game.")
		e.logger.Error("session load failed", zap.Error(err))
		return e.viewLocked()
	}
	if !ok {
		e.errMsg = "no saved session"
		return e.viewLocked()
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		e.errMsg = "saved session is corrupt"
		e.logger.Error("snapshot unmarshal failed", zap.Error(err))
		return e.viewLocked()
	}
	sc, err := script.Parse(snap.Script)
	if err != nil {
		e.errMsg = "saved session is corrupt"
		e.logger.Error("saved script rejected", zap.Error(err))
		return e.viewLocked()
	}
	if snap.Player == nil || sc.Stage(snap.StageID) == nil {
		e.errMsg = "saved session is corrupt"
		return e.viewLocked()
	}

	e.cancelPacing()
	e.script = sc
	e.rawScript = append([]byte(nil), snap.Script...)
	e.stageID = snap.StageID
	e.sceneID = snap.SceneID
	e.player = snap.Player
	e.player.RestoreGrowth(snap.Growth)
	e.player.CalcDerivedStats()
	e.log = gamelog.New()
	e.log.Restore(snap.Log)
	e.combat = snap.Combat
	e.pendingSafeSceneID = snap.PendingSafeSceneID
	e.awaitingChoice = snap.AwaitingChoice
	e.lastTownSceneID = snap.LastTownSceneID
	e.delegating = false
	e.gameOver = snap.GameOver
	e.completed = snap.Completed
	e.shopOpen = false
	e.shopSceneID = ""
	e.shopErr = ""
	e.unknownItemID = ""

	// A fight saved mid-pause resumes on the player turn; a save taken
	// during a queued retreat re-queues it.
	if e.combat.Active && e.pendingSafeSceneID == "" {
		e.combat.Turn = combat.TurnPlayer
	}
	if e.pendingSafeSceneID != "" {
		e.queueSafeTransitionLocked()
	}
	e.log.Add(gamelog.KindSystem, "Game loaded.")
	return e.viewLocked()
}

// Reset wipes both stored keys and restarts the loaded script from the
// beginning. The log survives with a marker entry.
func (e *Engine) Reset() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := e.store.Remove(ctx, store.KeySession); err != nil {
		e.logger.Error("session key remove failed", zap.Error(err))
	}
	if err := e.store.Remove(ctx, store.KeyScript); err != nil {
		e.logger.Error("script key remove failed", zap.Error(err))
	}

	e.cancelPacing()
	if e.script == nil {
		return e.viewLocked()
	}
	e.initSessionLocked()
	e.log.Add(gamelog.KindSystem, "The story starts over.")
	first := e.stage().Scenes[0].ID
	e.advanceLocked(&first, true)
	return e.viewLocked()
}

// ClearSession resets in-memory state only; stored saves are kept.
func (e *Engine) ClearSession() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""

	e.cancelPacing()
	if e.script == nil {
		return e.viewLocked()
	}
	e.initSessionLocked()
	e.log.Add(gamelog.KindSystem, "Session cleared.")
	first := e.stage().Scenes[0].ID
	e.advanceLocked(&first, true)
	return e.viewLocked()
}

// persistScriptLocked stores the raw script for recovery tools. Best
// effort only.
func (e *Engine) persistScriptLocked() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := e.store.Set(ctx, store.KeyScript, e.rawScript); err != nil {
		e.logger.Warn("script persist failed", zap.Error(err))
	}
}
