// Package shared holds the state passed to all CLI commands.
package shared

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"freshkeep"
	"freshkeep/config"
	"freshkeep/logger"
)

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// ConfigPath overrides the config file.
	// When empty, resolution falls through to FRESHKEEP_CONFIG → ~/.config/freshkeep/config.yaml.
	ConfigPath string
}

// App is the opened store plus everything built from the configuration.
type App struct {
	Config *config.Config
	Log    *zap.Logger
	Store  *freshkeep.Store
	Conv   *freshkeep.Converter
}

// Open loads the configuration, opens the database and makes sure the unit
// catalog (defaults plus configured custom units) is seeded.
func (c *Context) Open(ctx context.Context) (*App, error) {
	cfg, err := config.Load(config.Path(c.ConfigPath))
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if dir := filepath.Dir(cfg.Database); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	store, err := freshkeep.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	custom, err := cfg.CustomUnits()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	added, err := store.SeedUnits(ctx, append(freshkeep.DefaultUnits(), custom...)...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if added > 0 {
		log.Debug("seeded units", zap.Int("added", added), zap.String("database", cfg.Database))
	}
	return &App{
		Config: cfg,
		Log:    log,
		Store:  store,
		Conv:   freshkeep.NewConverter(store, log),
	}, nil
}

func (a *App) Close() {
	_ = a.Store.Close()
	_ = a.Log.Sync()
}

// Unit resolves an abbreviation ("oz", "ML") or a unit ID.
func (a *App) Unit(ctx context.Context, ref string) (freshkeep.Unit, error) {
	u, err := a.Store.UnitByAbbreviation(ctx, ref)
	if errors.Is(err, freshkeep.ErrUnitNotFound) {
		return a.Store.Unit(ctx, ref)
	}
	return u, err
}

// Inventory opens a stored storage area. Areas are only created by
// `area add`.
func (a *App) Inventory(ctx context.Context, id string) (*freshkeep.Inventory, error) {
	infos, err := a.Store.Inventories(ctx)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.ID != id {
			continue
		}
		inv := freshkeep.NewInventory(id, info.Name, a.Conv).WithLogger(a.Log)
		inv.ParentID = info.ParentID
		if err := inv.WithStore(ctx, a.Store); err != nil {
			return nil, err
		}
		return inv, nil
	}
	return nil, fmt.Errorf("%w: %q (create it with `freshkeep area add`)", freshkeep.ErrUnknownArea, id)
}

// Item finds an item by ID or case-insensitive name.
func Item(inv *freshkeep.Inventory, ref string) (freshkeep.Item, error) {
	if item, ok := inv.Item(ref); ok {
		return item, nil
	}
	for _, item := range inv.Items() {
		if strings.EqualFold(item.Name, ref) {
			return item, nil
		}
	}
	return freshkeep.Item{}, fmt.Errorf("%w: %q in %s", freshkeep.ErrUnknownItem, ref, inv.ID)
}

// Areas opens every stored storage area and links sub-areas to their parents.
func (a *App) Areas(ctx context.Context) (map[string]*freshkeep.Inventory, error) {
	infos, err := a.Store.Inventories(ctx)
	if err != nil {
		return nil, err
	}
	areas := make(map[string]*freshkeep.Inventory, len(infos))
	for _, info := range infos {
		inv := freshkeep.NewInventory(info.ID, info.Name, a.Conv).WithLogger(a.Log)
		inv.ParentID = info.ParentID
		if err := inv.WithStore(ctx, a.Store); err != nil {
			return nil, err
		}
		areas[info.ID] = inv
	}
	for _, info := range infos {
		parent, ok := areas[info.ParentID]
		if !ok {
			continue
		}
		if err := parent.AddSub(areas[info.ID]); err != nil {
			a.Log.Warn("storage area left unlinked", zap.String("area", info.ID), zap.Error(err))
		}
	}
	return areas, nil
}
