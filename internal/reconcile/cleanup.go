package reconcile

import (
	"fmt"
	"path"

	"github.com/go-git/go-billy/v5/util"

	"github.com/aidanlsb/arbor/internal/paths"
	"github.com/aidanlsb/arbor/internal/slugs"
)

// Cleanup describes what happened to a removed entity's directory.
type Cleanup struct {
	Mode       CleanupMode `json:"mode"`
	Path       string      `json:"path,omitempty"`
	Found      bool        `json:"found"`
	ArchivedTo string      `json:"archived_to,omitempty"`
}

// Archive moves the directory for segments under the archive dir as
// "<slug(name)>-<UTC timestamp>". A missing directory is not an error.
func (r *Reconciler) Archive(segments []string, name string) (Cleanup, error) {
	p := paths.Join("", segments)
	c := Cleanup{Mode: CleanupArchive, Path: p}

	exists, err := r.dirExists(p)
	if err != nil || !exists {
		return c, err
	}
	c.Found = true

	if err := r.fs.MkdirAll(r.archiveDir, dirPerm); err != nil {
		return c, fmt.Errorf("create archive dir: %w", err)
	}
	dest := path.Join(r.archiveDir, slugs.ArchiveName(name, r.now()))
	if err := r.fs.Rename(p, dest); err != nil {
		return c, fmt.Errorf("archive %s: %w", p, err)
	}
	c.ArchivedTo = dest
	return c, nil
}

// Delete removes the directory for segments and everything below it.
func (r *Reconciler) Delete(segments []string) (Cleanup, error) {
	p := paths.Join("", segments)
	c := Cleanup{Mode: CleanupDelete, Path: p}

	exists, err := r.dirExists(p)
	if err != nil || !exists {
		return c, err
	}
	c.Found = true

	if err := util.RemoveAll(r.fs, p); err != nil {
		return c, fmt.Errorf("delete %s: %w", p, err)
	}
	return c, nil
}

// Preserve leaves the directory in place and only reports whether it exists.
func (r *Reconciler) Preserve(segments []string) (Cleanup, error) {
	p := paths.Join("", segments)
	exists, err := r.dirExists(p)
	return Cleanup{Mode: CleanupPreserve, Path: p, Found: exists}, err
}

// Clean applies mode to the directory for segments.
func (r *Reconciler) Clean(mode CleanupMode, segments []string, name string) (Cleanup, error) {
	switch mode {
	case CleanupArchive:
		return r.Archive(segments, name)
	case CleanupDelete:
		return r.Delete(segments)
	case CleanupPreserve:
		return r.Preserve(segments)
	}
	return Cleanup{Mode: mode}, fmt.Errorf("unknown cleanup mode %q", mode)
}
