// Package gamedata loads the god catalog, the bot personas and the persona
// scripts, either from the content embedded in the binary or from the
// directories named in configuration.
package gamedata

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pantheon/content"
	"github.com/cory-johannsen/pantheon/internal/config"
	"github.com/cory-johannsen/pantheon/internal/game/ai"
	"github.com/cory-johannsen/pantheon/internal/game/dice"
	"github.com/cory-johannsen/pantheon/internal/game/god"
	"github.com/cory-johannsen/pantheon/internal/scripting"
)

// Data is everything a match engine and its bots need.
type Data struct {
	Catalog  *god.Catalog
	Personas *ai.Registry
	Scripts  *scripting.Manager
}

// Close releases the script VMs.
func (d *Data) Close() {
	d.Scripts.Close()
}

type location struct {
	fsys fs.FS
	dir  string
}

func locate(cfg config.ContentConfig) (gods, personas, scripts location) {
	if cfg.Embedded() {
		return location{content.FS, content.GodsDir},
			location{content.FS, content.PersonasDir},
			location{content.FS, content.ScriptsDir}
	}
	return location{os.DirFS(cfg.GodsDir), "."},
		location{os.DirFS(cfg.PersonasDir), "."},
		location{os.DirFS(cfg.ScriptsDir), "."}
}

// Load reads all game data described by cfg.
//
// Precondition: src and logger must be non-nil.
// Postcondition: Returns fully loaded Data or the first load error.
func Load(cfg config.ContentConfig, src dice.Source, logger *zap.Logger) (*Data, error) {
	start := time.Now()
	gods, personas, scripts := locate(cfg)

	cat, err := god.LoadCatalog(gods.fsys, gods.dir)
	if err != nil {
		return nil, fmt.Errorf("loading god templates: %w", err)
	}
	reg, err := ai.LoadPersonas(personas.fsys, personas.dir)
	if err != nil {
		return nil, fmt.Errorf("loading personas: %w", err)
	}
	mgr := scripting.NewManager(src, logger)
	if err := mgr.LoadGlobal(scripts.fsys, scripts.dir, scripting.DefaultInstructionLimit); err != nil {
		mgr.Close()
		return nil, fmt.Errorf("loading persona scripts: %w", err)
	}
	// A subdirectory named after a persona replaces the global scripts for
	// that persona's bots.
	for _, id := range reg.IDs() {
		dir := path.Join(scripts.dir, id)
		if info, err := fs.Stat(scripts.fsys, dir); err != nil || !info.IsDir() {
			continue
		}
		if err := mgr.LoadScope(id, scripts.fsys, dir, scripting.DefaultInstructionLimit); err != nil {
			mgr.Close()
			return nil, fmt.Errorf("loading scripts for persona %q: %w", id, err)
		}
	}

	logger.Info("game data loaded",
		zap.Bool("embedded", cfg.Embedded()),
		zap.Strings("personas", reg.IDs()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &Data{Catalog: cat, Personas: reg, Scripts: mgr}, nil
}
