package gamedata_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	lua "github.com/yuin/gopher-lua"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/pantheon/content"
	"github.com/cory-johannsen/pantheon/internal/config"
	"github.com/cory-johannsen/pantheon/internal/game/dice"
	"github.com/cory-johannsen/pantheon/internal/game/god"
	"github.com/cory-johannsen/pantheon/internal/gamedata"
)

func TestLoad_Embedded(t *testing.T) {
	data, err := gamedata.Load(config.ContentConfig{}, dice.NewSeededSource(1), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer data.Close()

	for _, k := range god.Kinds() {
		_, ok := data.Catalog.Template(k)
		assert.True(t, ok, "template for %s", k)
	}
	assert.Equal(t, []string{"berserker", "patient", "random", "saboteur", "tactician"}, data.Personas.IDs())
}

// copyDir writes every file of an embedded content dir to a temp dir.
func copyDir(t *testing.T, dir string) string {
	t.Helper()
	out := t.TempDir()
	entries, err := content.FS.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		b, err := content.FS.ReadFile(dir + "/" + e.Name())
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(out, e.Name()), b, 0o644))
	}
	return out
}

func TestLoad_FromDirectories(t *testing.T) {
	cfg := config.ContentConfig{
		GodsDir:     copyDir(t, content.GodsDir),
		PersonasDir: copyDir(t, content.PersonasDir),
		ScriptsDir:  copyDir(t, content.ScriptsDir),
	}
	require.NoError(t, os.Remove(filepath.Join(cfg.PersonasDir, "random.yaml")))

	data, err := gamedata.Load(cfg, dice.NewSeededSource(1), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer data.Close()
	assert.NotContains(t, data.Personas.IDs(), "random")
}

func TestLoad_MissingDirectory(t *testing.T) {
	cfg := config.ContentConfig{
		GodsDir:     filepath.Join(t.TempDir(), "absent"),
		PersonasDir: t.TempDir(),
		ScriptsDir:  t.TempDir(),
	}
	_, err := gamedata.Load(cfg, dice.NewSeededSource(1), zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading god templates")
}

func TestLoad_PersonaScope(t *testing.T) {
	cfg := config.ContentConfig{
		GodsDir:     copyDir(t, content.GodsDir),
		PersonasDir: copyDir(t, content.PersonasDir),
		ScriptsDir:  copyDir(t, content.ScriptsDir),
	}
	scope := filepath.Join(cfg.ScriptsDir, "tactician")
	require.NoError(t, os.Mkdir(scope, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scope, "override.lua"),
		[]byte(`function tactician_adjust(kind, role, score) return 42 end`), 0o644))

	data, err := gamedata.Load(cfg, dice.NewSeededSource(1), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer data.Close()

	args := []lua.LValue{lua.LString("odin"), lua.LString("attacker"), lua.LNumber(2)}
	ret, err := data.Scripts.CallHook("tactician", "tactician_adjust", args...)
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(42), ret)

	ret, err = data.Scripts.CallHook("berserker", "tactician_adjust", args...)
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(3), ret, "personas without a scope use the global scripts")
}
