package pipeline

import (
	"os"
	"sort"

	"screend/pkg/types"
)

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func sortTenants(ts []types.Tenant) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].ID < ts[j].ID })
}

func sortTenantStatuses(ts []types.TenantStatus) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].ID < ts[j].ID })
}
