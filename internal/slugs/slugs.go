// Package slugs provides the slug helpers used for generated file names.
//
// Directory names under the generation root are entity names verbatim; slugs
// are only used where arbor invents a name of its own, such as archive
// destinations.
package slugs

import (
	"strings"
	"time"

	goslug "github.com/gosimple/slug"
)

// ArchiveTimeLayout is the UTC timestamp suffix of archive directory names.
const ArchiveTimeLayout = "20060102T150405Z"

// ComponentSlug converts a string to a slug safe for a single path component.
func ComponentSlug(s string) string {
	slugged := goslug.Make(s)
	if slugged == "" {
		slugged = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
	}
	if slugged == "" {
		slugged = "entity"
	}
	return slugged
}

// ArchiveName returns "<slug(name)>-<UTC timestamp>".
func ArchiveName(name string, at time.Time) string {
	return ComponentSlug(name) + "-" + at.UTC().Format(ArchiveTimeLayout)
}
