package preset

import "embed"

// builtinPresetsFS embeds the built-in presets directory.
//
//go:embed presets/*.yml
var builtinPresetsFS embed.FS
