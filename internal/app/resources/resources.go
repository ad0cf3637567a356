// internal/app/resources/resources.go

// Package resources embeds the template partials shared across features:
// the flash banner and the site footer. Feature pages pull these in with
// {{template "flash_banner" .}} and {{template "site_footer" .}}.
package resources

import (
	"embed"
	"sync"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

var registerOnce sync.Once

// LoadSharedTemplates registers the shared partial set with the template
// engine. Called from the Startup hook, before the engine boots.
func LoadSharedTemplates() {
	registerOnce.Do(func() {
		templates.Register(templates.Set{
			Name:     "shared",
			FS:       FS,
			Patterns: []string{"templates/*.gohtml"},
		})
	})
}
