package inventory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/skirmish/internal/game/inventory"
)

func TestItemDef_Validate_RejectsEmptyID(t *testing.T) {
	d := &inventory.ItemDef{Name: "Jellopy", Kind: inventory.KindEtc}
	assert.Error(t, d.Validate())
}

func TestItemDef_Validate_RejectsInvalidKind(t *testing.T) {
	d := &inventory.ItemDef{ID: "jellopy", Name: "Jellopy", Kind: "junk"}
	assert.Error(t, d.Validate())
}

func TestItemDef_Validate_RejectsNegativeEffect(t *testing.T) {
	d := &inventory.ItemDef{
		ID: "bad", Name: "Bad", Kind: inventory.KindConsumable,
		Effect: &inventory.Effect{HP: -5},
	}
	assert.Error(t, d.Validate())
}

func TestItemDef_Usable(t *testing.T) {
	potion := &inventory.ItemDef{Kind: inventory.KindConsumable, Effect: &inventory.Effect{HP: 50}}
	assert.True(t, potion.Usable())
	noEffect := &inventory.ItemDef{Kind: inventory.KindConsumable}
	assert.False(t, noEffect.Usable())
	sword := &inventory.ItemDef{Kind: inventory.KindEquipment, Effect: &inventory.Effect{HP: 1}}
	assert.False(t, sword.Usable())
}

func TestLoadItems_ParsesListFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "consumables.yaml"), []byte(`
items:
  - id: red_potion
    name: Red Potion
    kind: consumable
    price: 50
    effect:
      hp: 50
  - id: blue_potion
    name: Blue Potion
    kind: consumable
    effect:
      sp: 30
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0644))

	items, err := inventory.LoadItems(dir)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "red_potion", items[0].ID)
	require.NotNil(t, items[0].Effect)
	assert.Equal(t, 50, items[0].Effect.HP)
	assert.Equal(t, 30, items[1].Effect.SP)
}

func TestLoadItems_InvalidItemFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yml"), []byte(`
items:
  - id: ""
    name: Nameless
    kind: etc
`), 0644))
	_, err := inventory.LoadItems(dir)
	assert.Error(t, err)
}

func TestLoadItems_MissingDir(t *testing.T) {
	_, err := inventory.LoadItems(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := inventory.NewRegistry()
	d := &inventory.ItemDef{ID: "apple", Name: "Apple", Kind: inventory.KindConsumable}
	require.NoError(t, r.RegisterItem(d))
	assert.Error(t, r.RegisterItem(d), "duplicate ids are rejected")

	got, ok := r.Item("apple")
	require.True(t, ok)
	assert.Same(t, d, got)

	_, ok = r.Item("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestNewRegistryFromDir_DuplicateAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	body := []byte("items:\n  - id: apple\n    name: Apple\n    kind: consumable\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), body, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), body, 0644))
	_, err := inventory.NewRegistryFromDir(dir)
	assert.Error(t, err)
}
