// Package locales embeds the org message bundles.
package locales

import "embed"

//go:embed *.json
var FS embed.FS
