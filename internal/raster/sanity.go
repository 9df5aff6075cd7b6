package raster

import "os"

// SanityReport describes runtime checks for the external rasterizer.
type SanityReport struct {
	BinFound bool   `json:"bin_found"`
	BinPath  string `json:"bin_path,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SanityCheck validates that a rasterizer binary is available. It does not
// mutate state and is safe to call at any time.
func SanityCheck(configured string) SanityReport {
	var r SanityReport
	bin := configured
	if bin == "" {
		bin = DiscoverBin()
	}
	if bin == "" {
		r.Error = "rasterizer binary not found"
		return r
	}
	fi, err := os.Stat(bin)
	switch {
	case err != nil:
		r.BinPath = bin
		r.Error = err.Error()
	case fi.IsDir():
		r.BinPath = bin
		r.Error = "rasterizer path is a directory"
	default:
		r.BinFound = true
		r.BinPath = bin
	}
	return r
}
