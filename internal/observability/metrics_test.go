package observability

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveFetch_CountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(FetchCounter(OutcomeOK))
	ObserveFetch(OutcomeOK, 20*time.Millisecond)
	if got := testutil.ToFloat64(FetchCounter(OutcomeOK)) - before; got != 1 {
		t.Fatalf("ok fetches delta = %v; want 1", got)
	}
	if n := testutil.CollectAndCount(fetchLat); n != 1 {
		t.Fatalf("expected a single latency histogram, got %d", n)
	}
}

func TestObserveStore_NilIsOK(t *testing.T) {
	okBefore := testutil.ToFloat64(StoreCounter("get", OutcomeOK))
	errBefore := testutil.ToFloat64(StoreCounter("get", OutcomeError))

	ObserveStore("get", nil)
	ObserveStore("get", errors.New("disk I/O error"))
	ObserveStore("get", nil)

	if got := testutil.ToFloat64(StoreCounter("get", OutcomeOK)) - okBefore; got != 2 {
		t.Fatalf("ok delta = %v; want 2", got)
	}
	if got := testutil.ToFloat64(StoreCounter("get", OutcomeError)) - errBefore; got != 1 {
		t.Fatalf("error delta = %v; want 1", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	if err := WriteTextfile(""); err != nil {
		t.Fatalf("empty path must be a no-op, got %v", err)
	}

	ObserveStore("save", nil)
	path := filepath.Join(t.TempDir(), "cdt.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), `cdt_store_operations_total{op="save",outcome="ok"}`) {
		t.Fatalf("textfile misses store counter:\n%s", b)
	}

	if err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "cdt.prom")); err == nil {
		t.Fatalf("expected error for unwritable path")
	}
}
