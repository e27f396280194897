// Package refresh repopulates the local metric file directory from a
// remote object store.
//
// The rest of the service only relies on the postcondition: after a
// successful refresh the data directory exists and holds one file per
// remote object under the configured prefix. Zero remote objects leave an
// existing but empty directory.
package refresh

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/xtxerr/metricsd/internal/errors"
	"github.com/xtxerr/metricsd/internal/logging"
	"golang.org/x/sync/errgroup"
)

var log = logging.Component("refresh")

// ObjectStore lists and fetches remote objects. Implementations must be
// safe for concurrent Download calls.
type ObjectStore interface {
	// List returns the keys of all objects under prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Download writes the object at key to w.
	Download(ctx context.Context, key string, w io.Writer) error
}

// Refresher wipes and repopulates a local directory from an ObjectStore.
type Refresher struct {
	store  ObjectStore
	dir    string
	prefix string
}

// New creates a Refresher writing into dir from objects under prefix.
func New(store ObjectStore, dir, prefix string) *Refresher {
	return &Refresher{store: store, dir: dir, prefix: prefix}
}

// Refresh deletes the local directory, recreates it, and downloads the
// remote objects under the prefix, one concurrent task per distinct base
// name. It returns the number of files written.
//
// There is no partial-failure recovery: a failed download aborts the
// refresh and may leave the directory incompletely populated.
func (r *Refresher) Refresh(ctx context.Context) (int, error) {
	if err := os.RemoveAll(r.dir); err != nil {
		return 0, fmt.Errorf("remove data dir: %v: %w", err, errors.ErrRefresh)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return 0, fmt.Errorf("create data dir: %v: %w", err, errors.ErrRefresh)
	}

	keys, err := r.store.List(ctx, r.prefix)
	if err != nil {
		return 0, fmt.Errorf("list objects: %v: %w", err, errors.ErrRefresh)
	}

	// Objects under different "directories" can share a base name. The
	// last key in listing order wins, matching how the catalog resolves
	// duplicate file names, and keeps concurrent tasks from writing the
	// same local path.
	byName := make(map[string]string)
	var names []string
	for _, key := range keys {
		name := path.Base(key)
		if name == "" || name == "." || strings.HasSuffix(key, "/") {
			// Directory placeholder objects carry no data.
			continue
		}
		if _, seen := byName[name]; !seen {
			names = append(names, name)
		} else {
			log.Warn("duplicate object base name, keeping later key", "name", name, "key", key)
		}
		byName[name] = key
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		key := byName[name]
		local := filepath.Join(r.dir, name)
		g.Go(func() error {
			return r.download(ctx, key, local)
		})
	}

	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("download: %v: %w", err, errors.ErrRefresh)
	}

	log.Info("data files refreshed", "dir", r.dir, "files", len(names))
	return len(names), nil
}

// download fetches one object into a local file.
func (r *Refresher) download(ctx context.Context, key, local string) error {
	f, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("create %s: %w", local, err)
	}

	if err := r.store.Download(ctx, key, f); err != nil {
		f.Close()
		os.Remove(local)
		return fmt.Errorf("fetch %s: %w", key, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", local, err)
	}

	log.Debug("downloaded", "key", key, "path", local)
	return nil
}
