package raster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// commandRasterizer drives a pdftoppm-compatible binary. Each call execs a
// fresh process under the caller's context deadline; there is no long-lived
// handle to babysit, which makes crash recovery trivial (the next render
// simply execs again).
type commandRasterizer struct {
	bin string
}

// NewCommand returns a Rasterizer backed by the given pdftoppm-style binary.
// If bin is empty, the binary is discovered lazily on first use.
func NewCommand(bin string) Rasterizer {
	return &commandRasterizer{bin: strings.TrimSpace(bin)}
}

// candidate install locations checked after PATH lookup.
var discoverPaths = []string{
	"/usr/bin/pdftoppm",
	"/usr/local/bin/pdftoppm",
	"/opt/homebrew/bin/pdftoppm",
}

// DiscoverBin locates a usable rasterizer binary, or returns "".
func DiscoverBin() string {
	if p, err := exec.LookPath("pdftoppm"); err == nil {
		return p
	}
	for _, p := range discoverPaths {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}

func (c *commandRasterizer) resolveBin() (string, error) {
	if c.bin != "" {
		return c.bin, nil
	}
	if p := DiscoverBin(); p != "" {
		// cache for subsequent renders; a stale path just fails the exec
		// and the next call re-resolves
		c.bin = p
		return p, nil
	}
	return "", errors.New("rasterizer binary not found (install poppler-utils or set --raster-bin)")
}

func (c *commandRasterizer) Rasterize(ctx context.Context, sourcePath, outputPath string, opts Options) error {
	bin, err := c.resolveBin()
	if err != nil {
		return err
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	// pdftoppm appends ".png" to the given prefix.
	prefix := strings.TrimSuffix(outputPath, ".png")
	args := []string{
		"-png",
		"-singlefile",
		"-f", "1", "-l", "1",
	}
	if opts.Width > 0 {
		args = append(args, "-scale-to-x", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		args = append(args, "-scale-to-y", strconv.Itoa(opts.Height))
	}
	args = append(args, sourcePath, prefix)

	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		// remove any partial output so a retry starts clean
		_ = os.Remove(prefix + ".png")
		if ctx.Err() != nil {
			return fmt.Errorf("rasterize %s: %w", filepath.Base(sourcePath), ctx.Err())
		}
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("rasterize %s: %s", filepath.Base(sourcePath), msg)
	}
	if prefix+".png" != outputPath {
		if err := os.Rename(prefix+".png", outputPath); err != nil {
			return fmt.Errorf("rename output: %w", err)
		}
	}
	fi, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("rasterizer produced no output: %w", err)
	}
	if fi.Size() == 0 {
		_ = os.Remove(outputPath)
		return errors.New("rasterizer produced empty output")
	}
	return nil
}
