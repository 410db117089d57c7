package storage

// Шаблоны заданий, улучшений, событий, пакетов, комиссий и игровые константы.

type TaskTemplate struct {
	ServerFields
	Slug        string        `json:"slug"`
	Title       LocalizedText `json:"title"`
	Description LocalizedText `json:"description"`
	Reward      Payload       `json:"reward,omitempty"`
	Condition   Payload       `json:"condition,omitempty"`
	Icon        string        `json:"icon,omitempty"`
	SortOrder   int           `json:"sortOrder"`
	Active      bool          `json:"active"`
}

func (t TaskTemplate) Key() string { return t.Slug }

func (t TaskTemplate) WithKey(slug string) TaskTemplate {
	t.Slug = slug
	return t
}

func (t TaskTemplate) Validate() error {
	if err := requireSlug(t.Slug); err != nil {
		return err
	}
	if err := t.Title.validate("title"); err != nil {
		return err
	}
	if err := t.Reward.Check("reward"); err != nil {
		return err
	}
	return t.Condition.Check("condition")
}

func (t TaskTemplate) Stripped() TaskTemplate {
	t.ServerFields = ServerFields{}
	t.Reward = t.Reward.Normalized()
	t.Condition = t.Condition.Normalized()
	return t
}

type UpgradeTemplate struct {
	ServerFields
	Slug            string        `json:"slug"`
	Name            LocalizedText `json:"name"`
	Description     LocalizedText `json:"description"`
	Category        string        `json:"category,omitempty"`
	Icon            string        `json:"icon,omitempty"`
	Stability       float64       `json:"stability"`
	Instability     float64       `json:"instability"`
	MaxLevel        int           `json:"maxLevel"`
	BasePrice       float64       `json:"basePrice"`
	EffectPerLevel  float64       `json:"effectPerLevel"`
	PriceMultiplier float64       `json:"priceMultiplier"`
	Currency        string        `json:"currency,omitempty"`
	Resource        string        `json:"resource,omitempty"`
	Modifiers       Payload       `json:"modifiers,omitempty"`
	Conditions      Payload       `json:"conditions,omitempty"`
	DelayedUntil    string        `json:"delayedUntil,omitempty"`
	Active          bool          `json:"active"`
}

func (u UpgradeTemplate) Key() string { return u.Slug }

func (u UpgradeTemplate) WithKey(slug string) UpgradeTemplate {
	u.Slug = slug
	return u
}

func (u UpgradeTemplate) Validate() error {
	if err := requireSlug(u.Slug); err != nil {
		return err
	}
	if err := u.Name.validate("name"); err != nil {
		return err
	}
	if u.MaxLevel < 0 {
		return invalid("maxLevel", "maxLevel must not be negative")
	}
	if u.BasePrice < 0 {
		return invalid("basePrice", "basePrice must not be negative")
	}
	if err := checkEffects("modifiers", u.Modifiers); err != nil {
		return err
	}
	if err := u.Conditions.Check("conditions"); err != nil {
		return err
	}
	return checkTimestamp("delayedUntil", u.DelayedUntil)
}

func (u UpgradeTemplate) Stripped() UpgradeTemplate {
	u.ServerFields = ServerFields{}
	u.Modifiers = u.Modifiers.Normalized()
	u.Conditions = u.Conditions.Normalized()
	return u
}

type EventTemplate struct {
	ServerFields
	Slug          string        `json:"slug"`
	Name          LocalizedText `json:"name"`
	Description   LocalizedText `json:"description"`
	Type          string        `json:"type,omitempty"`
	TriggerConfig Payload       `json:"triggerConfig,omitempty"`
	Effects       Payload       `json:"effects,omitempty"`
	Frequency     Payload       `json:"frequency,omitempty"`
	Conditions    Payload       `json:"conditions,omitempty"`
	Active        bool          `json:"active"`
}

func (e EventTemplate) Key() string { return e.Slug }

func (e EventTemplate) WithKey(slug string) EventTemplate {
	e.Slug = slug
	return e
}

func (e EventTemplate) Validate() error {
	if err := requireSlug(e.Slug); err != nil {
		return err
	}
	if err := e.Name.validate("name"); err != nil {
		return err
	}
	if err := e.TriggerConfig.Check("triggerConfig"); err != nil {
		return err
	}
	if err := checkEffects("effects", e.Effects); err != nil {
		return err
	}
	if err := e.Frequency.Check("frequency"); err != nil {
		return err
	}
	return e.Conditions.Check("conditions")
}

func (e EventTemplate) Stripped() EventTemplate {
	e.ServerFields = ServerFields{}
	e.TriggerConfig = e.TriggerConfig.Normalized()
	e.Effects = e.Effects.Normalized()
	e.Frequency = e.Frequency.Normalized()
	e.Conditions = e.Conditions.Normalized()
	return e
}

type PackageTemplate struct {
	ServerFields
	Slug         string        `json:"slug"`
	Name         LocalizedText `json:"name"`
	Description  LocalizedText `json:"description"`
	Category     string        `json:"category,omitempty"`
	ActionType   string        `json:"actionType,omitempty"`
	ActionTarget string        `json:"actionTarget,omitempty"`
	ActionData   Payload       `json:"actionData,omitempty"`
	CostCurrency string        `json:"costCurrency,omitempty"`
	Price        float64       `json:"price"`
	Icon         string        `json:"icon,omitempty"`
	SortOrder    int           `json:"sortOrder"`
	LabelKey     string        `json:"labelKey,omitempty"`
	IsPromoted   bool          `json:"isPromoted"`
	ValidUntil   string        `json:"validUntil,omitempty"`
	Status       bool          `json:"status"`
}

func (p PackageTemplate) Key() string { return p.Slug }

func (p PackageTemplate) WithKey(slug string) PackageTemplate {
	p.Slug = slug
	return p
}

func (p PackageTemplate) Validate() error {
	if err := requireSlug(p.Slug); err != nil {
		return err
	}
	if err := p.Name.validate("name"); err != nil {
		return err
	}
	if p.Price < 0 {
		return invalid("price", "price must not be negative")
	}
	if err := p.ActionData.Check("actionData"); err != nil {
		return err
	}
	return checkTimestamp("validUntil", p.ValidUntil)
}

func (p PackageTemplate) Stripped() PackageTemplate {
	p.ServerFields = ServerFields{}
	p.ActionData = p.ActionData.Normalized()
	return p
}

type CommissionTemplate struct {
	ServerFields
	Slug         string  `json:"slug"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	FromCurrency string  `json:"fromCurrency"`
	ToCurrency   string  `json:"toCurrency"`
	Rate         float64 `json:"rate"`
	Active       bool    `json:"active"`
}

func (c CommissionTemplate) Key() string { return c.Slug }

func (c CommissionTemplate) WithKey(slug string) CommissionTemplate {
	c.Slug = slug
	return c
}

func (c CommissionTemplate) Validate() error {
	if err := requireSlug(c.Slug); err != nil {
		return err
	}
	if err := requireText("name", c.Name); err != nil {
		return err
	}
	if err := requireText("fromCurrency", c.FromCurrency); err != nil {
		return err
	}
	if err := requireText("toCurrency", c.ToCurrency); err != nil {
		return err
	}
	if c.Rate < 0 || c.Rate > 1 {
		return invalid("rate", "rate must be between 0 and 1")
	}
	return nil
}

func (c CommissionTemplate) Stripped() CommissionTemplate {
	c.ServerFields = ServerFields{}
	return c
}

type GameConstant struct {
	ServerFields
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Value       Payload `json:"value"`
	Description string  `json:"description,omitempty"`
	Active      bool    `json:"active"`
}

func (g GameConstant) Key() string { return g.Slug }

func (g GameConstant) WithKey(slug string) GameConstant {
	g.Slug = slug
	return g
}

func (g GameConstant) Validate() error {
	if err := requireSlug(g.Slug); err != nil {
		return err
	}
	if err := requireText("name", g.Name); err != nil {
		return err
	}
	if g.Value.IsEmpty() {
		return required("value")
	}
	return g.Value.Check("value")
}

func (g GameConstant) Stripped() GameConstant {
	g.ServerFields = ServerFields{}
	g.Value = g.Value.Normalized()
	return g
}
