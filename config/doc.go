// Package config loads gr settings from TOML files and watches them for
// changes.
//
// A configuration file looks like this:
//
//	[cache]
//	max_textures = 256
//	max_texture_bytes = 16777216
//
//	[aa]
//	enabled = true
//	max_offscreen_size = 256
//	prefer_msaa = false
//
//	[log]
//	level = "info"
//
// Missing keys keep their defaults; unknown keys are rejected.
package config
