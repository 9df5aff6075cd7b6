package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"screend/internal/common/fsutil"
	"screend/pkg/types"
)

// SourceName is the file name of a tenant's active source document.
const SourceName = "source.pdf"

// IntakeDirName is the per-tenant folder uploads land in before activation.
const IntakeDirName = "incoming"

// PublicDirName is the per-tenant folder holding published artifacts.
const PublicDirName = "public"

var tenantIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidID reports whether id is acceptable as a tenant directory name.
func ValidID(id string) bool {
	return tenantIDPattern.MatchString(id)
}

// LoadDir scans a data directory whose immediate subdirectories are tenants.
// ID is the directory name; directories with names outside the allowed
// pattern are skipped. Each tenant's intake and public folders are created
// if missing.
func LoadDir(dir string) ([]types.Tenant, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var tenants []types.Tenant
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id := e.Name()
		if !ValidID(id) {
			continue
		}
		tdir := filepath.Join(abs, id)
		for _, sub := range []string{IntakeDirName, PublicDirName} {
			if err := fsutil.EnsureDir(filepath.Join(tdir, sub)); err != nil {
				return nil, fmt.Errorf("tenant %s: %w", id, err)
			}
		}
		src := filepath.Join(tdir, SourceName)
		tenants = append(tenants, types.Tenant{
			ID:         id,
			Name:       id,
			Dir:        tdir,
			SourcePath: src,
			HasSource:  fsutil.PathExists(src),
		})
	}
	return tenants, nil
}
