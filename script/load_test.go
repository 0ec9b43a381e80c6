package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScript = `{
  "worldSettings": {"title": "Testland", "description": "a test"},
  "stages": [{
    "id": "stage1",
    "characters": [
      {"id": "hero", "name": "Hero", "type": "PLAYER", "description": ""},
      {"id": "slime", "name": "Slime", "type": "MONSTER_NORMAL", "description": "", "hp": 5, "defense": 3}
    ],
    "scenes": [
      {"id": "s1", "type": "TOWN", "content": "A quiet town.", "nextSceneId": "s2", "newLocationName": "Town"},
      {"id": "s2", "type": "COMBAT_NORMAL", "content": "Ambush!", "nextSceneId": null,
       "combatDetails": {"enemyCharacterIds": ["slime"]}}
    ]
  }]
}`

func TestParse_Valid(t *testing.T) {
	sc, err := Parse([]byte(minimalScript))
	require.NoError(t, err)
	require.Len(t, sc.Stages, 1)

	st := &sc.Stages[0]
	assert.Equal(t, "Hero", st.PlayerCharacter().Name)
	assert.NotNil(t, st.Scene("s2"))
	assert.Nil(t, st.Scene("missing"))

	combat := st.Scene("s2")
	assert.True(t, combat.IsCombat())
	assert.Equal(t, "", combat.Next(), "null nextSceneId ends the branch")
	assert.Equal(t, "s2", st.Scene("s1").Next())
}

func TestParse_NoStages(t *testing.T) {
	_, err := Parse([]byte(`{"worldSettings":{"title":"x","description":""},"stages":[]}`))
	require.ErrorIs(t, err, ErrNoStages)
}

func TestParse_FirstStageWithoutScenes(t *testing.T) {
	raw := `{"worldSettings":{"title":"x","description":""},
	  "stages":[{"id":"st","characters":[{"id":"p","name":"P","type":"PLAYER","description":""}],"scenes":[]}]}`
	_, err := Parse([]byte(raw))
	require.ErrorIs(t, err, ErrNoScenes)
}

func TestParse_DuplicateSceneIDs(t *testing.T) {
	raw := `{"worldSettings":{"title":"x","description":""},
	  "stages":[{"id":"st",
	    "characters":[{"id":"p","name":"P","type":"PLAYER","description":""}],
	    "scenes":[
	      {"id":"dup","type":"NARRATION","content":"a","nextSceneId":null},
	      {"id":"dup","type":"NARRATION","content":"b","nextSceneId":null}
	    ]}]}`
	_, err := Parse([]byte(raw))
	require.ErrorIs(t, err, ErrDuplicateScene)
}

func TestParse_Garbage(t *testing.T) {
	_, err := Parse([]byte(`not json`))
	require.Error(t, err)
}

func TestFindSafeScene(t *testing.T) {
	tests := []struct {
		name   string
		scenes []Scene
		want   string
	}{
		{
			name: "town wins over earlier narration",
			scenes: []Scene{
				{ID: "n1", Type: SceneNarration},
				{ID: "t1", Type: SceneTown},
			},
			want: "t1",
		},
		{
			name: "no town falls back to first non-combat",
			scenes: []Scene{
				{ID: "c1", Type: SceneCombatNormal},
				{ID: "n1", Type: SceneNarration},
			},
			want: "n1",
		},
		{
			name: "all combat yields nothing",
			scenes: []Scene{
				{ID: "c1", Type: SceneCombatNormal},
				{ID: "c2", Type: SceneCombatBoss},
			},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := &Script{Stages: []Stage{{ID: "st", Scenes: tt.scenes}}}
			if got := sc.FindSafeScene(); got != tt.want {
				t.Errorf("FindSafeScene() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCatalogLookups(t *testing.T) {
	it, ok := ItemDef(ItemIDSmallPotion)
	require.True(t, ok)
	assert.Equal(t, ItemConsumable, it.Type)
	assert.Equal(t, 30, it.Effects.HP)

	_, ok = ItemDef("nope")
	assert.False(t, ok)

	sk, ok := SkillDef(SkillIDPowerStrike)
	require.True(t, ok)
	assert.Equal(t, TargetEnemySingle, sk.TargetType)
}
