package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/icp-engine/internal/config"
	"github.com/sells-group/icp-engine/internal/memo"
)

// scriptedCompleter serves canned responses and counts calls.
type scriptedCompleter struct {
	response string
	err      error
	calls    atomic.Int64
	lastUser string
}

func (s *scriptedCompleter) Complete(_ context.Context, _, userPrompt string, _ bool) (string, error) {
	s.calls.Add(1)
	s.lastUser = userPrompt
	return s.response, s.err
}

func testScraperCfg() config.ScraperConfig {
	return config.ScraperConfig{
		TimeoutSecs:      5,
		MaxParagraphs:    5,
		MaxContentLength: 1000,
		MaxRedirects:     5,
		UserAgent:        "test-agent",
	}
}

func newTestScraper(llm *scriptedCompleter) *Scraper {
	return New(memo.New(5*time.Minute), llm, testScraperCfg())
}

func TestAnalyzeDomain_HappyPath(t *testing.T) {
	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`<html><head><title>Acme</title><meta name="description" content="Anvil maker."></head><body><h1>Acme</h1><p>Acme manufactures precision anvils for discerning customers.</p></body></html>`))
	}))
	defer srv.Close()

	llm := &scriptedCompleter{response: `{"name": "Acme Corp", "description": "Makes anvils.", "industry": "Manufacturing"}`}
	s := newTestScraper(llm)

	got := s.AnalyzeDomain(context.Background(), srv.URL)
	assert.Equal(t, "Acme Corp", got.Name)
	assert.Equal(t, "Makes anvils.", got.Description)
	assert.Equal(t, "Manufacturing", got.Industry)
	assert.Equal(t, int64(1), fetches.Load())
	assert.Contains(t, llm.lastUser, "Anvil maker.")
}

func TestAnalyzeDomain_CachedWithinTTL(t *testing.T) {
	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		_, _ = w.Write([]byte(`<html><head><title>Acme</title></head><body><p>Enough text to pass the paragraph length filter here.</p></body></html>`))
	}))
	defer srv.Close()

	llm := &scriptedCompleter{response: `{"name": "Acme", "description": "d", "industry": "Tech"}`}
	s := newTestScraper(llm)

	first := s.AnalyzeDomain(context.Background(), srv.URL)
	second := s.AnalyzeDomain(context.Background(), srv.URL)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), fetches.Load(), "second call must not refetch")
	assert.Equal(t, int64(1), llm.calls.Load(), "second call must not re-complete")
}

func TestAnalyzeDomain_ClientErrorPageStillAnalyzed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<html><head><title>Acme 404</title></head><body><p>Our storefront moved but the company is alive and well.</p></body></html>`))
	}))
	defer srv.Close()

	llm := &scriptedCompleter{response: `{"name": "Acme", "description": "Storefront.", "industry": "Retail"}`}
	s := newTestScraper(llm)

	got := s.AnalyzeDomain(context.Background(), srv.URL)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, int64(1), llm.calls.Load())
	assert.Contains(t, llm.lastUser, "Acme 404")
}

func TestAnalyzeDomain_ServerErrorFallsBackToGuess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	llm := &scriptedCompleter{response: `{"name": "Guessed Inc", "description": "Probably software.", "industry": "Technology"}`}
	s := newTestScraper(llm)

	got := s.AnalyzeDomain(context.Background(), srv.URL)
	assert.Equal(t, "Guessed Inc", got.Name)
	// Only the domain-guess completion ran; the page was never summarized.
	assert.Equal(t, int64(1), llm.calls.Load())
}

func TestAnalyzeDomain_TerminalFallbackNeverFails(t *testing.T) {
	llm := &scriptedCompleter{err: eris.New("llm down")}
	s := newTestScraper(llm)

	got := s.AnalyzeDomain(context.Background(), "unreachable.invalid")
	assert.Equal(t, "unreachable.invalid", got.Name)
	assert.Equal(t, "Company at unreachable.invalid", got.Description)
	assert.Equal(t, "Technology", got.Industry)
}

func TestAnalyzeDomain_TerminalFallbackNotCached(t *testing.T) {
	llm := &scriptedCompleter{err: eris.New("llm down")}
	s := newTestScraper(llm)

	s.AnalyzeDomain(context.Background(), "unreachable.invalid")
	s.AnalyzeDomain(context.Background(), "unreachable.invalid")

	// Both attempts went through the full ladder; synthetic results are
	// never memoized.
	assert.Equal(t, int64(2), llm.calls.Load())
}

func TestAnalyzeDomain_BackfillsMissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Acme</title><meta name="description" content="Meta description here."></head><body><p>Plenty of descriptive words about this business right here.</p></body></html>`))
	}))
	defer srv.Close()

	llm := &scriptedCompleter{response: `{}`}
	s := newTestScraper(llm)

	got := s.AnalyzeDomain(context.Background(), srv.URL)
	assert.True(t, strings.HasPrefix(got.Name, "http://127.0.0.1"), "name defaults to the domain")
	assert.Equal(t, "Meta description here.", got.Description)
	assert.Equal(t, "Technology", got.Industry)
}

func TestFetch_RedirectLimit(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	llm := &scriptedCompleter{err: eris.New("no guess either")}
	s := newTestScraper(llm)

	_, err := s.fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redirects")
}
