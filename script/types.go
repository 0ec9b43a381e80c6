package script

// SceneType classifies a scene beat.
type SceneType string

const (
	SceneNarration      SceneType = "NARRATION"
	SceneLocationChange SceneType = "LOCATION_CHANGE"
	SceneTown           SceneType = "TOWN"
	SceneDialogue       SceneType = "DIALOGUE"
	SceneCombatNormal   SceneType = "COMBAT_NORMAL"
	SceneItemGet        SceneType = "ITEM_GET"
	SceneChoice         SceneType = "CHOICE"
	SceneCombatBoss     SceneType = "COMBAT_BOSS"
)

// CharacterType classifies a character template.
type CharacterType string

const (
	CharPlayer        CharacterType = "PLAYER"
	CharNPC           CharacterType = "NPC"
	CharMonsterNormal CharacterType = "MONSTER_NORMAL"
	CharMonsterBoss   CharacterType = "MONSTER_BOSS"
)

// WorldSettings describe the loaded adventure.
type WorldSettings struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	MainConflict string `json:"mainConflict,omitempty"`
	KeyLocations string `json:"keyLocations,omitempty"`
}

// Character is a static template for the player, NPCs, and monsters.
// Monster combat stats are optional; the combat engine fills in
// role-scaled defaults when they are absent.
type Character struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Type         CharacterType `json:"type"`
	Description  string        `json:"description"`
	DialogueSeed string        `json:"dialogueSeed,omitempty"`
	HP           int           `json:"hp,omitempty"`
	Attack       int           `json:"attack,omitempty"`
	Defense      int           `json:"defense,omitempty"`
	Skills       []string      `json:"skills,omitempty"`
}

// CombatDetails declares the enemies of a combat scene.
type CombatDetails struct {
	EnemyCharacterIDs []string `json:"enemyCharacterIds"`
	Reward            string   `json:"reward,omitempty"`
}

// SceneChoice is a branching option within a CHOICE scene.
type SceneChoice struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	NextSceneID string `json:"nextSceneId"`
}

// Scene is a single addressable beat. NextSceneID == "" marks the end of
// the branch (the document's null).
type Scene struct {
	ID              string         `json:"id"`
	StageID         string         `json:"stageId,omitempty"`
	Title           string         `json:"title,omitempty"`
	Type            SceneType      `json:"type"`
	Content         string         `json:"content"`
	CharacterIDs    []string       `json:"characterIds,omitempty"`
	NextSceneID     *string        `json:"nextSceneId"`
	NewLocationName string         `json:"newLocationName,omitempty"`
	CombatDetails   *CombatDetails `json:"combatDetails,omitempty"`
	Item            string         `json:"item,omitempty"`
	Choices         []SceneChoice  `json:"choices,omitempty"`
}

// IsCombat reports whether the scene dispatches into the combat engine.
func (s *Scene) IsCombat() bool {
	return s.Type == SceneCombatNormal || s.Type == SceneCombatBoss
}

// Next returns the follow-up scene id, or "" when the branch ends.
func (s *Scene) Next() string {
	if s.NextSceneID == nil {
		return ""
	}
	return *s.NextSceneID
}

// Choice returns the choice with the given id, or nil.
func (s *Scene) Choice(id string) *SceneChoice {
	for i := range s.Choices {
		if s.Choices[i].ID == id {
			return &s.Choices[i]
		}
	}
	return nil
}

// Stage groups characters and scenes. Scenes only reference characters
// within their own stage.
type Stage struct {
	ID                 string      `json:"id"`
	Title              string      `json:"title,omitempty"`
	SettingDescription string      `json:"settingDescription,omitempty"`
	Characters         []Character `json:"characters"`
	Scenes             []Scene     `json:"scenes"`
}

// Scene returns the scene with the given id, or nil.
func (st *Stage) Scene(id string) *Scene {
	for i := range st.Scenes {
		if st.Scenes[i].ID == id {
			return &st.Scenes[i]
		}
	}
	return nil
}

// Character returns the character with the given id, or nil.
func (st *Stage) Character(id string) *Character {
	for i := range st.Characters {
		if st.Characters[i].ID == id {
			return &st.Characters[i]
		}
	}
	return nil
}

// PlayerCharacter returns the stage's player template, or nil.
func (st *Stage) PlayerCharacter() *Character {
	for i := range st.Characters {
		if st.Characters[i].Type == CharPlayer {
			return &st.Characters[i]
		}
	}
	return nil
}

// Script is the root of the content graph. Immutable once loaded.
type Script struct {
	WorldSettings WorldSettings `json:"worldSettings"`
	Stages        []Stage       `json:"stages"`
}

// Stage returns the stage with the given id, or nil.
func (sc *Script) Stage(id string) *Stage {
	for i := range sc.Stages {
		if sc.Stages[i].ID == id {
			return &sc.Stages[i]
		}
	}
	return nil
}

// IsLastStage reports whether the given stage id is the final stage.
func (sc *Script) IsLastStage(stageID string) bool {
	if len(sc.Stages) == 0 {
		return false
	}
	return sc.Stages[len(sc.Stages)-1].ID == stageID
}

// FindSafeScene locates a defeat-recovery destination in script order:
// the first TOWN scene of any stage, else the first non-combat scene.
// Returns "" when the script has no safe scene at all.
func (sc *Script) FindSafeScene() string {
	for i := range sc.Stages {
		for j := range sc.Stages[i].Scenes {
			if sc.Stages[i].Scenes[j].Type == SceneTown {
				return sc.Stages[i].Scenes[j].ID
			}
		}
		for j := range sc.Stages[i].Scenes {
			if !sc.Stages[i].Scenes[j].IsCombat() {
				return sc.Stages[i].Scenes[j].ID
			}
		}
	}
	return ""
}
