// Package catalog discovers metric backing files and derives the
// metric-name to file-path mapping from their naming convention.
//
// A file named "signups_2024_plot.parquet" backs the metric "signups":
// the metric name is the token before the first underscore. The mapping
// is recomputed on every scan and never persisted.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xtxerr/metricsd/internal/errors"
)

// Scan lists all entries in dir, non-recursively. No filtering is applied;
// a non-data file in the directory surfaces later as that entry's load
// failure, not here.
func Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}

// BuildMapping derives metric names from file paths. The metric name is
// the leading token before the first underscore in the base name. A later
// path with the same prefix overwrites the earlier entry (last write wins).
func BuildMapping(paths []string) (map[string]string, error) {
	mapping := make(map[string]string, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		i := strings.Index(name, "_")
		if i <= 0 {
			return nil, fmt.Errorf("%s: %w", name, errors.ErrNoCatalogName)
		}
		mapping[name[:i]] = p
	}
	return mapping, nil
}

// Names returns the metric names of a mapping in sorted order.
func Names(mapping map[string]string) []string {
	names := make([]string, 0, len(mapping))
	for name := range mapping {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
