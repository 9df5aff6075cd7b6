package raster

import (
	"context"
	"os"
	"sync"
	"time"
)

// Stub is an in-process Rasterizer for tests and dry runs. It writes
// Payload to the output path after an optional delay, or fails with Err.
type Stub struct {
	mu      sync.Mutex
	calls   []StubCall
	Payload []byte
	Delay   time.Duration
	Err     error
	// FailFor lists source paths that should fail even when Err is nil.
	FailFor map[string]error
}

// StubCall records one Rasterize invocation.
type StubCall struct {
	SourcePath string
	OutputPath string
	Opts       Options
}

func NewStub() *Stub {
	return &Stub{Payload: []byte("png-bytes")}
}

func (s *Stub) Rasterize(ctx context.Context, sourcePath, outputPath string, opts Options) error {
	s.mu.Lock()
	s.calls = append(s.calls, StubCall{SourcePath: sourcePath, OutputPath: outputPath, Opts: opts})
	delay, failErr, payload := s.Delay, s.Err, s.Payload
	if failErr == nil && s.FailFor != nil {
		failErr = s.FailFor[sourcePath]
	}
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if failErr != nil {
		return failErr
	}
	return os.WriteFile(outputPath, payload, 0o644)
}

// Calls returns a copy of the recorded invocations.
func (s *Stub) Calls() []StubCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StubCall, len(s.calls))
	copy(out, s.calls)
	return out
}
