package e2e

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"screend/internal/httpapi"
	"screend/internal/pipeline"
	"screend/internal/raster"
	"screend/internal/registry"
	"screend/pkg/types"
)

// createTenantDirs builds a temporary data directory with one subdirectory
// per tenant id, each already holding a source document.
func createTenantDirs(t *testing.T, ids ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, id := range ids {
		td := filepath.Join(dir, id)
		if err := os.MkdirAll(td, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", td, err)
		}
		if err := os.WriteFile(filepath.Join(td, registry.SourceName), []byte("%PDF-1.4"), 0o644); err != nil {
			t.Fatalf("write source: %v", err)
		}
	}
	return dir
}

// startServer wires registry, pipeline and HTTP mux into an httptest server
// using the in-process stub rasterizer and a short debounce window.
func startServer(t *testing.T, dataDir string) (*httptest.Server, *pipeline.Pipeline) {
	t.Helper()
	tenants, err := registry.LoadDir(dataDir)
	if err != nil {
		t.Fatalf("load tenants: %v", err)
	}
	pipe := pipeline.NewWithConfig(pipeline.PipelineConfig{
		Tenants:    tenants,
		Rasterizer: raster.NewStub(),
		Debounce:   20 * time.Millisecond,
	})
	srv := httptest.NewServer(httpapi.NewMux(pipe))
	t.Cleanup(srv.Close)
	return srv, pipe
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func uploadPDF(t *testing.T, url string, payload []byte) int {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("pdf", "doc.pdf")
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if _, err := fw.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	mw.Close()
	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

// waitForVersion polls the tenant status endpoint until the published version
// reaches want or the deadline passes.
func waitForVersion(t *testing.T, base, tenant string, want uint64) types.TenantStatus {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	var st types.TenantStatus
	for time.Now().Before(deadline) {
		if code := getJSON(t, base+"/tenants/"+tenant+"/status", &st); code == http.StatusOK && st.Version >= want {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("tenant %s never reached version %d (last: %+v)", tenant, want, st)
	return st
}
