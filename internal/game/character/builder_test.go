package character

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ashfall-games/wasteland/internal/gamerr"
	"github.com/ashfall-games/wasteland/internal/rules"
)

const backgroundsDoc = `
Backgrounds:
  - name: Vault Dweller
    starting_equipment:
      Ghoul:
        - Tattered Jumpsuit
        - 30 caps
      Human:
        - Vault Jumpsuit
        - Pip-Boy
        - 50 caps
  - name: Wastelander
    starting_equipment:
      Any:
        - Canteen
        - 25 caps
`

// loadDataset builds a dataset from a real rules directory so starting
// equipment buckets carry their document order.
func loadDataset(t *testing.T) *rules.Dataset {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "backgrounds.yaml"), []byte(backgroundsDoc), 0o644))
	return rules.Load(dir, zap.NewNop())
}

func TestBuildRequiresName(t *testing.T) {
	_, err := Build("c-1", "p-1", CreationInput{Name: "  "}, loadDataset(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, gamerr.ErrValidation)
}

func TestBuildStartingHP(t *testing.T) {
	d := loadDataset(t)

	ch, err := Build("c-1", "p-1", CreationInput{
		Name:    "Piper",
		Special: Special{S: 5, P: 5, E: 8, C: 5, I: 5, A: 5, L: 5},
	}, d)
	require.NoError(t, err)
	assert.Equal(t, 13, ch.MaxHP)
	assert.Equal(t, 13, ch.HP)
	assert.Equal(t, 1, ch.Level)

	// Endurance 1 still yields a living character.
	ch, err = Build("c-2", "p-2", CreationInput{
		Name:    "Frail",
		Special: Special{S: 1, P: 1, E: 1, C: 1, I: 1, A: 1, L: 1},
	}, d)
	require.NoError(t, err)
	assert.Equal(t, 6, ch.MaxHP)
}

func TestBuildClampsSpecialToBounds(t *testing.T) {
	ch, err := Build("c-1", "p-1", CreationInput{
		Name:    "Piper",
		Special: Special{S: 0, P: 15, E: 5, C: 5, I: 5, A: 5, L: 5},
	}, loadDataset(t))
	require.NoError(t, err)
	assert.Equal(t, 1, ch.Special.S)
	assert.Equal(t, 10, ch.Special.P)
}

func TestBuildStartingEquipmentMatchesRaceBucket(t *testing.T) {
	ch, err := Build("c-1", "p-1", CreationInput{
		Name:       "Piper",
		Race:       "Human",
		Background: "Vault Dweller",
		Special:    Special{S: 5, P: 5, E: 5, C: 5, I: 5, A: 5, L: 5},
	}, loadDataset(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"Vault Jumpsuit", "Pip-Boy"}, ch.Inventory)
	assert.Equal(t, 50, ch.Caps, "caps entries become currency, not items")
}

func TestBuildStartingEquipmentFallsBackToFirstBucket(t *testing.T) {
	// No bucket mentions "synth"; the first bucket in document order wins.
	ch, err := Build("c-1", "p-1", CreationInput{
		Name:       "Nick",
		Race:       "Synth",
		Background: "Vault Dweller",
		Special:    Special{S: 5, P: 5, E: 5, C: 5, I: 5, A: 5, L: 5},
	}, loadDataset(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"Tattered Jumpsuit"}, ch.Inventory)
	assert.Equal(t, 30, ch.Caps)
}

func TestBuildUnknownBackgroundGrantsNothing(t *testing.T) {
	ch, err := Build("c-1", "p-1", CreationInput{
		Name:       "Drifter",
		Background: "Nonexistent",
		Special:    Special{S: 5, P: 5, E: 5, C: 5, I: 5, A: 5, L: 5},
	}, loadDataset(t))
	require.NoError(t, err)
	assert.Empty(t, ch.Inventory)
	assert.Zero(t, ch.Caps)
}

func TestBuildCustomBackground(t *testing.T) {
	ch, err := Build("c-1", "p-1", CreationInput{
		Name:       "Piper",
		Background: "Custom Background",
		Special:    Special{S: 5, P: 5, E: 5, C: 5, I: 5, A: 5, L: 5},
		CustomBackground: &CustomBackground{
			Equipment:    []string{" Typewriter ", ""},
			SkillBonuses: map[string]int{"Speech": 2, "Sneak": 1},
		},
	}, loadDataset(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"Typewriter"}, ch.Inventory)
	assert.Equal(t, 2, ch.BackgroundSkillBonuses["Speech"])
	assert.Equal(t, 1, ch.BackgroundSkillBonuses["Sneak"])
}

func TestBuildCustomBackgroundIgnoredForOtherBackgrounds(t *testing.T) {
	ch, err := Build("c-1", "p-1", CreationInput{
		Name:       "Piper",
		Background: "Wastelander",
		Special:    Special{S: 5, P: 5, E: 5, C: 5, I: 5, A: 5, L: 5},
		CustomBackground: &CustomBackground{
			Equipment: []string{"Typewriter"},
		},
	}, loadDataset(t))
	require.NoError(t, err)
	assert.NotContains(t, ch.Inventory, "Typewriter")
}

func TestBuildTruncatesPerks(t *testing.T) {
	perks := make([]string, MaxPerks+3)
	for i := range perks {
		perks[i] = "Toughness"
	}
	ch, err := Build("c-1", "p-1", CreationInput{
		Name:    "Piper",
		Perks:   perks,
		Special: Special{S: 5, P: 5, E: 5, C: 5, I: 5, A: 5, L: 5},
	}, loadDataset(t))
	require.NoError(t, err)
	assert.Len(t, ch.Perks, MaxPerks)
}
