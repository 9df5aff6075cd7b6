package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"screend/internal/common/fsutil"
	"screend/internal/registry"
)

// StoreSource replaces tenant's active source document with the contents of
// r. The upload lands in the tenant's intake folder first and is moved onto
// the source path atomically, so a concurrent render never reads a partial
// document. Triggers a render pass.
func (p *Pipeline) StoreSource(tenant string, r io.Reader) error {
	ts, err := p.state(tenant)
	if err != nil {
		return err
	}
	intake := filepath.Join(ts.tenant.Dir, registry.IntakeDirName)
	if err := fsutil.EnsureDir(intake); err != nil {
		return err
	}
	tmp := filepath.Join(intake, "upload."+uuid.NewString()+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create upload temp: %w", err)
	}
	_, cpErr := io.Copy(f, r)
	if cpErr == nil {
		cpErr = f.Sync()
	}
	if err := f.Close(); cpErr == nil {
		cpErr = err
	}
	if cpErr != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write upload: %w", cpErr)
	}
	if err := fsutil.ReplaceFile(tmp, ts.tenant.SourcePath); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	p.log.Info().Str("tenant", tenant).Msg("source document updated")
	return p.Notify(tenant)
}

// Activate promotes a document already present in the tenant's intake folder
// to the active source. The intake copy is left in place. Triggers a render
// pass.
func (p *Pipeline) Activate(tenant, file string) error {
	ts, err := p.state(tenant)
	if err != nil {
		return err
	}
	if file == "" || file != filepath.Base(file) || strings.HasPrefix(file, ".") {
		return fmt.Errorf("invalid file name %q", file)
	}
	src := filepath.Join(ts.tenant.Dir, registry.IntakeDirName, file)
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("intake document: %w", err)
	}
	defer in.Close()
	if err := p.StoreSource(tenant, in); err != nil {
		return err
	}
	p.log.Info().Str("tenant", tenant).Str("file", file).Msg("intake document activated")
	return nil
}

// IntakeFiles lists documents waiting in the tenant's intake folder.
func (p *Pipeline) IntakeFiles(tenant string) ([]string, error) {
	ts, err := p.state(tenant)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(ts.tenant.Dir, registry.IntakeDirName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || strings.HasSuffix(e.Name(), ".tmp") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
