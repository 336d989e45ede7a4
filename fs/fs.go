// Package appfs embeds the static files the binaries depend on.
package appfs

import "embed"

//go:embed migrations all:assets
var FS embed.FS
