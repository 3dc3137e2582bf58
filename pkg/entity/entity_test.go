package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_Valid(t *testing.T) {
	assert.True(t, KindItem.Valid())
	assert.True(t, KindNPC.Valid())
	assert.True(t, KindLocation.Valid())
	assert.False(t, Kind("monster").Valid())
	assert.False(t, Kind("").Valid())
}

func TestRarity_Valid(t *testing.T) {
	for _, r := range []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegendary} {
		assert.True(t, r.Valid(), "rarity %q", r)
	}
	assert.False(t, Rarity("mythic").Valid())
	assert.False(t, Rarity("").Valid())
}

func TestDraft_Validate(t *testing.T) {
	valid := Draft{
		ID:          "pending",
		Name:        "Rusty Dagger",
		Rarity:      RarityCommon,
		Description: "A pitted blade.",
		Category:    "weapon",
	}

	tests := []struct {
		name    string
		mutate  func(*Draft)
		wantErr string
	}{
		{"valid", func(d *Draft) {}, ""},
		{"missing name", func(d *Draft) { d.Name = "" }, "name"},
		{"invalid rarity", func(d *Draft) { d.Rarity = "mythic" }, "rarity"},
		{"missing description", func(d *Draft) { d.Description = "" }, "description"},
		{"missing category", func(d *Draft) { d.Category = "" }, "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
