// Package content embeds the default game data: god templates, bot personas
// and the Lua scripts personas may reference.
package content

import "embed"

// FS holds gods/*.yaml, personas/*.yaml and scripts/*.lua.
//
//go:embed gods/*.yaml personas/*.yaml scripts/*.lua
var FS embed.FS

// Directory names inside FS.
const (
	GodsDir     = "gods"
	PersonasDir = "personas"
	ScriptsDir  = "scripts"
)
