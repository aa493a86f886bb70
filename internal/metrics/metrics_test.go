package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.ChunksSent.Inc()
	if got := testutil.ToFloat64(a.ChunksSent); got != 1 {
		t.Errorf("a.ChunksSent = %v, want 1", got)
	}
	if got := testutil.ToFloat64(b.ChunksSent); got != 0 {
		t.Errorf("b.ChunksSent = %v, want 0", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.Fragments.Add(3)
	m.ChunksDropped.WithLabelValues("not_active").Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		"urduscribe_transcript_fragments_total 3",
		`urduscribe_chunks_dropped_total{reason="not_active"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
