package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Payload хранит вложенный JSON (effects, condition, modifiers и т.п.) как есть.
// Форма редактора присылает его либо объектом, либо строкой с JSON внутри
// (содержимое textarea). Normalized превращает второй вариант в первый.
type Payload json.RawMessage

func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return json.RawMessage(p).MarshalJSON()
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	if p == nil {
		return fmt.Errorf("storage.Payload: UnmarshalJSON on nil pointer")
	}
	*p = append((*p)[0:0], data...)
	return nil
}

func (p Payload) IsEmpty() bool {
	trimmed := bytes.TrimSpace(p)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// text возвращает JSON-текст, если payload пришёл строкой.
func (p Payload) text() (string, bool) {
	trimmed := bytes.TrimSpace(p)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}

// Check проверяет, что payload разбирается как JSON.
func (p Payload) Check(field string) error {
	if p.IsEmpty() {
		return nil
	}
	if s, ok := p.text(); ok {
		if s == "" || json.Valid([]byte(s)) {
			return nil
		}
		return invalid(field, "%s: %s", field, ErrInvalidPayload)
	}
	if !json.Valid(p) {
		return invalid(field, "%s: %s", field, ErrInvalidPayload)
	}
	return nil
}

func (p Payload) Normalized() Payload {
	if s, ok := p.text(); ok {
		if s == "" {
			return nil
		}
		if json.Valid([]byte(s)) {
			return Payload(s)
		}
	}
	return p
}

// Effect — известные виды эффектов. Неизвестные типы сохраняются в Raw.
type Effect struct {
	Type   EffectType      `json:"type"`
	Target string          `json:"target,omitempty"`
	Value  float64         `json:"value"`
	Raw    json.RawMessage `json:"-"`
}

type EffectType string

const (
	EffectMultiplier EffectType = "multiplier"
	EffectFlat       EffectType = "flat"
	EffectChance     EffectType = "chance"
	EffectUnlock     EffectType = "unlock"
)

func (t EffectType) Known() bool {
	switch t {
	case EffectMultiplier, EffectFlat, EffectChance, EffectUnlock:
		return true
	}
	return false
}

// Effects разбирает payload как список эффектов. Объект (словарь) эффектов
// не является списком — тогда возвращается nil без ошибки.
func (p Payload) Effects() ([]Effect, error) {
	norm := bytes.TrimSpace(p.Normalized())
	if len(norm) == 0 || norm[0] != '[' {
		return nil, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(norm, &raws); err != nil {
		return nil, err
	}

	effects := make([]Effect, 0, len(raws))
	for _, raw := range raws {
		var e Effect
		if err := json.Unmarshal(raw, &e); err != nil || !e.Type.Known() {
			effects = append(effects, Effect{Type: e.Type, Raw: raw})
			continue
		}
		effects = append(effects, e)
	}
	return effects, nil
}

func (e Effect) validate(field string, idx int) error {
	if e.Raw != nil {
		return nil
	}
	switch e.Type {
	case EffectMultiplier:
		if e.Value <= 0 {
			return invalid(field, "%s[%d]: multiplier must be positive", field, idx)
		}
	case EffectChance:
		if e.Value < 0 || e.Value > 1 {
			return invalid(field, "%s[%d]: chance must be between 0 and 1", field, idx)
		}
	}
	return nil
}

func checkEffects(field string, p Payload) error {
	if err := p.Check(field); err != nil {
		return err
	}
	effects, err := p.Effects()
	if err != nil {
		return invalid(field, "%s: %s", field, ErrInvalidPayload)
	}
	for i, e := range effects {
		if err := e.validate(field, i); err != nil {
			return err
		}
	}
	return nil
}
