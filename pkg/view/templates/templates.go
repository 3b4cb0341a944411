package templates

import "embed"

//go:embed layout pages partials
var Templates embed.FS
