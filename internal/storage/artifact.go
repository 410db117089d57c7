package storage

import (
	"cmp"
	"strings"
)

type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityUncommon  Rarity = "UNCOMMON"
	RarityRare      Rarity = "RARE"
	RarityEpic      Rarity = "EPIC"
	RarityLegendary Rarity = "LEGENDARY"
)

var rarityRank = map[Rarity]int{
	RarityCommon:    1,
	RarityUncommon:  2,
	RarityRare:      3,
	RarityEpic:      4,
	RarityLegendary: 5,
}

// Rank — порядок редкости; для неизвестного значения 0.
func (r Rarity) Rank() int {
	return rarityRank[r]
}

func (r Rarity) Valid() bool {
	_, ok := rarityRank[r]
	return ok
}

type ArtifactTemplate struct {
	ServerFields
	Slug                 string  `json:"slug"`
	Name                 string  `json:"name"`
	Description          string  `json:"description,omitempty"`
	Rarity               Rarity  `json:"rarity"`
	Image                string  `json:"image,omitempty"`
	BaseChance           float64 `json:"baseChance"`
	Effects              Payload `json:"effects,omitempty"`
	Limited              bool    `json:"limited"`
	LimitedCount         int     `json:"limitedCount,omitempty"`
	LimitedDuration      int     `json:"limitedDuration,omitempty"`
	LimitedDurationType  string  `json:"limitedDurationType,omitempty"`
	LimitedDurationValue int     `json:"limitedDurationValue,omitempty"`
	Active               bool    `json:"active"`
}

func (a ArtifactTemplate) Key() string { return a.Slug }

func (a ArtifactTemplate) WithKey(slug string) ArtifactTemplate {
	a.Slug = slug
	return a
}

func (a ArtifactTemplate) Validate() error {
	if err := requireSlug(a.Slug); err != nil {
		return err
	}
	if err := requireText("name", a.Name); err != nil {
		return err
	}
	if !a.Rarity.Valid() {
		return invalid("rarity", "Invalid rarity %q: must be one of COMMON, UNCOMMON, RARE, EPIC, LEGENDARY", a.Rarity)
	}
	if a.BaseChance < 0 || a.BaseChance > 1 {
		return invalid("baseChance", "baseChance must be between 0 and 1")
	}
	if a.Limited && a.LimitedCount < 0 {
		return invalid("limitedCount", "limitedCount must not be negative")
	}
	return checkEffects("effects", a.Effects)
}

func (a ArtifactTemplate) Stripped() ArtifactTemplate {
	a.ServerFields = ServerFields{}
	a.Effects = a.Effects.Normalized()
	return a
}

// ArtifactSortFields — компараторы для сортировки списка артефактов.
var ArtifactSortFields = map[string]func(a, b ArtifactTemplate) int{
	"baseChance": func(a, b ArtifactTemplate) int {
		return cmp.Compare(a.BaseChance, b.BaseChance)
	},
	"name": func(a, b ArtifactTemplate) int {
		return strings.Compare(a.Name, b.Name)
	},
	"rarity": func(a, b ArtifactTemplate) int {
		return cmp.Compare(a.Rarity.Rank(), b.Rarity.Rank())
	},
}
