package editor

import (
	"fmt"
	"log/slog"
	"time"

	"nebulahunt-admin/internal/storage"
)

var (
	Artifacts = Entity{Name: "artifacts", Title: "artifact templates", Path: "/artifact-templates", Toggle: TogglePut}
	Tasks     = Entity{Name: "tasks", Title: "task templates", Path: "/task-templates", Toggle: TogglePut}
	Upgrades  = Entity{Name: "upgrades", Title: "upgrade templates", Path: "/upgrade-templates", Toggle: TogglePut}
	Events    = Entity{
		Name:   "events",
		Title:  "event templates",
		Path:   "/event-templates",
		Toggle: ToggleActivate,
		Import: ImportSequential,
	}
	Packages    = Entity{Name: "packages", Title: "package templates", Path: "/package-templates", Toggle: TogglePut}
	Commissions = Entity{Name: "commissions", Title: "commission rates", Path: "/commission-templates", Toggle: ToggleActivate}
	Constants   = Entity{Name: "game-constants", Title: "game constants", Path: "/game-constants", Toggle: TogglePut}
)

type Settings struct {
	MessageTTL time.Duration
}

// Factory создаёт редактор сущности для одной сессии.
// Parse проверяет импорт без обращения к бэкенду и возвращает число шаблонов.
type Factory struct {
	Entity Entity
	New    func(api Backend, log *slog.Logger, s Settings) Workflow
	Parse  func(input []byte) (int, error)
}

func factory[T storage.Record[T]](entity Entity, sortFields map[string]func(a, b T) int) Factory {
	return Factory{
		Entity: entity,
		New: func(api Backend, log *slog.Logger, s Settings) Workflow {
			opts := []Option[T]{WithMessageTTL[T](s.MessageTTL)}
			if sortFields != nil {
				opts = append(opts, WithSortFields(sortFields))
			}
			return New[T](entity, api, log, opts...)
		},
		Parse: func(input []byte) (int, error) {
			items, err := ParseImport[T](input)
			return len(items), err
		},
	}
}

// Catalog — все редакторы панели в порядке вкладок.
func Catalog() []Factory {
	return []Factory{
		factory(Artifacts, storage.ArtifactSortFields),
		factory[storage.TaskTemplate](Tasks, nil),
		factory[storage.UpgradeTemplate](Upgrades, nil),
		factory[storage.EventTemplate](Events, nil),
		factory[storage.PackageTemplate](Packages, nil),
		factory[storage.CommissionTemplate](Commissions, nil),
		factory[storage.GameConstant](Constants, nil),
	}
}

// Lookup ищет фабрику по имени сущности из URL или командной строки.
func Lookup(name string) (Factory, error) {
	for _, f := range Catalog() {
		if f.Entity.Name == name {
			return f, nil
		}
	}
	return Factory{}, fmt.Errorf("%w: %q", ErrUnknownEntity, name)
}
