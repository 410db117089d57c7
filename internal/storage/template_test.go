package storage

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalizedText_AcceptsBothShapes(t *testing.T) {
	var obj LocalizedText
	require.NoError(t, json.Unmarshal([]byte(`{"en":"Stardust","ru":"Звёздная пыль"}`), &obj))
	assert.Equal(t, LocalizedText{En: "Stardust", Ru: "Звёздная пыль"}, obj)

	var plain LocalizedText
	require.NoError(t, json.Unmarshal([]byte(`"Stardust"`), &plain))
	assert.Equal(t, LocalizedText{En: "Stardust"}, plain)
}

func TestTaskTemplate_RequiresBothLanguages(t *testing.T) {
	task := TaskTemplate{Slug: "daily_login", Title: LocalizedText{En: "Daily login"}}

	err := task.Validate()
	require.Error(t, err)
	assert.Equal(t, "title.ru is required", err.Error())

	task.Title.Ru = "Ежедневный вход"
	assert.NoError(t, task.Validate())
}

func TestArtifactTemplate_InvalidRarity(t *testing.T) {
	a := ArtifactTemplate{Slug: "void_shard", Name: "Void shard", Rarity: "MYTHIC", BaseChance: 0.1}

	err := a.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid rarity")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "rarity", verr.Field)
}

func TestArtifactTemplate_BaseChanceRange(t *testing.T) {
	a := ArtifactTemplate{Slug: "void_shard", Name: "Void shard", Rarity: RarityRare, BaseChance: 1.5}
	assert.Error(t, a.Validate())
}

func TestPayload_TextareaStringIsNormalized(t *testing.T) {
	var a ArtifactTemplate
	body := `{"id":7,"createdAt":"2025-01-01T00:00:00Z","slug":"s","name":"n","rarity":"EPIC","baseChance":0.2,"effects":"{\"luck\":1.5}"}`
	require.NoError(t, json.Unmarshal([]byte(body), &a))
	require.NoError(t, a.Validate())

	out, err := json.Marshal(a.Stripped())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.NotContains(t, m, "id")
	assert.NotContains(t, m, "createdAt")
	assert.Equal(t, map[string]any{"luck": 1.5}, m["effects"])
}

func TestPayload_RejectsBrokenJSONText(t *testing.T) {
	task := TaskTemplate{
		Slug:      "t",
		Title:     LocalizedText{En: "a", Ru: "б"},
		Condition: Payload(`"{broken"`),
	}
	err := task.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "condition")
}

func TestPayload_Effects(t *testing.T) {
	p := Payload(`[{"type":"multiplier","target":"stardust","value":1.5},{"type":"portal","to":"x"}]`)

	effects, err := p.Effects()
	require.NoError(t, err)
	require.Len(t, effects, 2)
	assert.Equal(t, EffectMultiplier, effects[0].Type)
	assert.Equal(t, 1.5, effects[0].Value)
	assert.NotNil(t, effects[1].Raw)

	bad := ArtifactTemplate{Slug: "s", Name: "n", Rarity: RarityCommon, Effects: Payload(`[{"type":"chance","value":2}]`)}
	assert.Error(t, bad.Validate())
}

func TestArtifactSortFields_Rarity(t *testing.T) {
	list := []ArtifactTemplate{
		{Slug: "l", Rarity: RarityLegendary},
		{Slug: "c", Rarity: RarityCommon},
		{Slug: "e", Rarity: RarityEpic},
	}
	less := ArtifactSortFields["rarity"]
	sort.SliceStable(list, func(i, j int) bool { return less(list[i], list[j]) < 0 })

	assert.Equal(t, []string{"c", "e", "l"}, []string{list[0].Slug, list[1].Slug, list[2].Slug})
}

func TestInvite_Validate(t *testing.T) {
	assert.Error(t, Invite{Email: "not-an-email", Name: "Bob"}.Validate())
	assert.Error(t, Invite{Email: "a@b.io"}.Validate())
	assert.NoError(t, Invite{Email: "a@b.io", Name: "Bob"}.Validate())
}

func TestValidateOTP(t *testing.T) {
	assert.NoError(t, ValidateOTP("123456"))
	assert.Error(t, ValidateOTP("12345"))
	assert.Error(t, ValidateOTP("12a456"))
	assert.Error(t, ValidateOTP(""))
}
