// Package raster wraps the external document rasterizer behind a small
// interface. The daemon never draws pixels itself; it shells out to a
// poppler-style converter and treats the produced file as an opaque artifact.
package raster

import "context"

// Options fixes the target geometry for every render. Display updates are
// not latency-critical, so there is no per-request variation.
type Options struct {
	Width  int
	Height int
	// Background is the solid fill composited behind the document so a
	// transparent canvas can never flash through on screen. Backends that
	// produce inherently opaque output may ignore it.
	Background string
}

// Rasterizer turns a source document into a single raster image file at
// outputPath. Implementations must be safe to retry: output goes to a fresh
// path chosen by the caller, and a failed call must not leave a partial file
// behind at outputPath.
type Rasterizer interface {
	// Rasterize renders the first page of the document at sourcePath into
	// outputPath (PNG). It must honor ctx cancellation and deadlines.
	Rasterize(ctx context.Context, sourcePath, outputPath string, opts Options) error
}
