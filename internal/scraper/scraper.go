// Package scraper turns a raw domain into a structured CompanyInfo. It
// fetches the site, extracts title/meta/heading/paragraph text, and asks
// the LLM to summarize; when fetching fails it degrades through an
// LLM-only guess down to a synthetic value, so AnalyzeDomain never fails.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/icp-engine/internal/config"
	"github.com/sells-group/icp-engine/internal/llm"
	"github.com/sells-group/icp-engine/internal/memo"
	"github.com/sells-group/icp-engine/internal/model"
)

// maxBodyBytes caps how much of a page is read before parsing.
const maxBodyBytes = 512 * 1024

// defaultIndustry is the industry assigned when the model omits one.
const defaultIndustry = "Technology"

const analyzeSystemPrompt = `You are an expert at analyzing companies and understanding their business models.
Based on website content, extract key information about what the company does, who they serve, and their industry.
Always return valid JSON.`

const analyzeUserPrompt = `Analyze this company website and provide a structured summary in JSON format:

Website: %s
Title: %s
Meta Description: %s
Main Heading: %s
Content: %s

Return a JSON response with the following structure:
{
  "name": "Company name",
  "description": "Clear 2-3 sentence description of what the company does",
  "industry": "Primary industry/vertical",
  "additionalContext": "Any relevant additional context about their target market or unique value proposition"
}`

const guessSystemPrompt = `You are an expert at analyzing companies. Based on a domain name, make educated guesses about the company. Always respond in JSON format.`

const guessUserPrompt = `Based on the domain "%s", provide your best estimate in JSON format:

{
  "name": "Likely company name",
  "description": "What this company likely does (2-3 sentences)",
  "industry": "Most likely industry",
  "additionalContext": "Additional context or assumptions"
}

Return valid JSON only.`

// Scraper analyzes company domains, memoizing results per domain.
type Scraper struct {
	cache  *memo.Cache
	llm    llm.Completer
	client *http.Client
	cfg    config.ScraperConfig
}

// New creates a Scraper. The HTTP client follows at most cfg.MaxRedirects
// redirects and times out after cfg.TimeoutSecs.
func New(cache *memo.Cache, completer llm.Completer, cfg config.ScraperConfig) *Scraper {
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Scraper{
		cache: cache,
		llm:   completer,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return eris.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		cfg: cfg,
	}
}

// AnalyzeDomain resolves a domain to a CompanyInfo. Results are cached per
// domain; a cache hit short-circuits all network and LLM work. The return
// value is always usable: on total failure it degrades to a synthetic
// CompanyInfo built from the domain string alone.
func (s *Scraper) AnalyzeDomain(ctx context.Context, domain string) model.CompanyInfo {
	cacheKey := memo.KeyPrefixCompany + domain
	if cached := s.cache.Get(cacheKey); cached != nil {
		zap.L().Debug("cache hit for domain", zap.String("domain", domain))
		return cached.(model.CompanyInfo)
	}

	info, err := s.analyze(ctx, domain)
	if err == nil {
		s.cache.Set(cacheKey, info)
		return info
	}

	zap.L().Warn("error scraping domain, using AI fallback",
		zap.String("domain", domain),
		zap.Error(err),
	)

	info, err = s.guessFromDomain(ctx, domain)
	if err == nil {
		s.cache.Set(cacheKey, info)
		return info
	}

	// Terminal fallback: never fails.
	return model.CompanyInfo{
		Name:        domain,
		Description: "Company at " + domain,
		Industry:    defaultIndustry,
	}
}

// analyze fetches and parses the site, then summarizes via the LLM.
func (s *Scraper) analyze(ctx context.Context, domain string) (model.CompanyInfo, error) {
	page, err := s.fetch(ctx, domain)
	if err != nil {
		return model.CompanyInfo{}, err
	}

	prompt := fmt.Sprintf(analyzeUserPrompt,
		domain,
		page.Title,
		page.MetaDescription,
		page.Heading,
		page.BodyText(s.cfg.MaxContentLength),
	)

	resp, err := s.llm.Complete(ctx, analyzeSystemPrompt, prompt, true)
	if err != nil {
		return model.CompanyInfo{}, err
	}

	var parsed model.CompanyInfo
	if err := llm.DecodeJSON(resp, &parsed); err != nil {
		return model.CompanyInfo{}, eris.Wrap(err, "scraper: parse summary")
	}

	// Backfill anything the model omitted.
	if parsed.Name == "" {
		parsed.Name = domain
	}
	if parsed.Description == "" {
		if page.MetaDescription != "" {
			parsed.Description = page.MetaDescription
		} else {
			parsed.Description = "No description available"
		}
	}
	if parsed.Industry == "" {
		parsed.Industry = defaultIndustry
	}
	return parsed, nil
}

// fetch issues the GET and extracts page content. Responses of 500 and
// above are hard failures; 4xx pages are still parsed, since error pages
// often carry usable markup.
func (s *Scraper) fetch(ctx context.Context, domain string) (PageContent, error) {
	targetURL := domain
	if !strings.HasPrefix(domain, "http") {
		targetURL = "https://" + domain
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return PageContent{}, eris.Wrap(err, "scraper: create request")
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return PageContent{}, eris.Wrap(err, "scraper: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return PageContent{}, eris.Errorf("scraper: status %d from %s", resp.StatusCode, targetURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return PageContent{}, eris.Wrap(err, "scraper: read body")
	}

	maxParagraphs := s.cfg.MaxParagraphs
	if maxParagraphs <= 0 {
		maxParagraphs = 5
	}
	page, err := extractContent(string(body), maxParagraphs)
	if err != nil {
		return PageContent{}, eris.Wrap(err, "scraper: parse markup")
	}
	return page, nil
}

// guessFromDomain asks the model to infer company attributes from the
// domain string alone, with no page content.
func (s *Scraper) guessFromDomain(ctx context.Context, domain string) (model.CompanyInfo, error) {
	resp, err := s.llm.Complete(ctx, guessSystemPrompt, fmt.Sprintf(guessUserPrompt, domain), true)
	if err != nil {
		return model.CompanyInfo{}, err
	}

	var parsed model.CompanyInfo
	if err := llm.DecodeJSON(resp, &parsed); err != nil {
		return model.CompanyInfo{}, eris.Wrap(err, "scraper: parse fallback")
	}
	if parsed.Name == "" {
		parsed.Name = domain
	}
	if parsed.Description == "" {
		parsed.Description = "Company at " + domain
	}
	if parsed.Industry == "" {
		parsed.Industry = defaultIndustry
	}
	return parsed, nil
}
