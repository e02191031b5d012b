// Package trends gathers live travel-trend context from the Serper web
// search API. Search is strictly best-effort: any failure (missing key,
// quota, timeout) degrades to "search unavailable" and the model falls
// back to its own knowledge.
package trends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const serperSearchURL = "https://google.serper.dev/search"

// Result is the merged search context handed to the prompt builder.
// Available=false means every query failed and Context is empty.
type Result struct {
	Context   string
	Available bool
}

// Service provides trend context for a destination/audience pair.
type Service interface {
	FetchTravelTrends(ctx context.Context, destination, gender, age string) Result
}

// SearchResponse mirrors the Serper payload fields we consume.
type SearchResponse struct {
	Organic   []OrganicResult `json:"organic"`
	AnswerBox *AnswerBox      `json:"answerBox,omitempty"`
}

type OrganicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type AnswerBox struct {
	Answer string `json:"answer"`
}

type SerperClient struct {
	apiKey     string
	searchURL  string
	httpClient *http.Client
	timeout    time.Duration
	numResults int
	cache      *cache.Cache
	logger     *zap.Logger
}

func NewSerperClient(apiKey string, timeout time.Duration, numResults int, logger *zap.Logger) *SerperClient {
	return &SerperClient{
		apiKey:     apiKey,
		searchURL:  serperSearchURL,
		httpClient: &http.Client{},
		timeout:    timeout,
		numResults: numResults,
		cache:      cache.New(10*time.Minute, 15*time.Minute),
		logger:     logger,
	}
}

// FetchTravelTrends runs the trend queries in parallel and merges the
// results into a single context block. Never returns an error; an
// unavailable search is a degraded mode, not a failure.
func (s *SerperClient) FetchTravelTrends(ctx context.Context, destination, gender, age string) Result {
	if s.apiKey == "" {
		s.logger.Warn("Serper API key not configured, falling back to model knowledge only")
		return Result{}
	}

	cacheKey := fmt.Sprintf("trends:%s|%s|%s", destination, gender, age)
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.(Result)
	}

	now := time.Now()
	queries := []string{
		fmt.Sprintf("%s travel recommendations %d trending spots %s", destination, now.Year(), age),
		fmt.Sprintf("%s popular destinations restaurants %s", destination, gender),
	}

	responses := make([]*SearchResponse, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, query := range queries {
		g.Go(func() error {
			resp, err := s.search(gctx, query)
			if err != nil {
				// Per-query failures are folded into the unavailable path,
				// never propagated.
				s.logger.Warn("Trend search query failed",
					zap.String("query", query),
					zap.Error(err))
				return nil
			}
			responses[i] = resp
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for _, r := range responses {
		if r != nil {
			succeeded++
		}
	}
	if succeeded == 0 {
		s.logger.Warn("All trend searches failed, falling back to model knowledge only")
		return Result{}
	}

	result := Result{
		Context:   buildSearchContext(queries, responses, now),
		Available: true,
	}
	s.cache.Set(cacheKey, result, cache.DefaultExpiration)

	s.logger.Info("Trend search completed",
		zap.Int("queries_succeeded", succeeded),
		zap.Int("context_length", len(result.Context)))
	return result
}

func (s *SerperClient) search(ctx context.Context, query string) (*SearchResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{"q": query, "num": s.numResults})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, s.searchURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("serper quota exceeded")
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("serper authentication failed")
	default:
		return nil, fmt.Errorf("serper returned status %d", resp.StatusCode)
	}

	var search SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("failed to decode serper response: %w", err)
	}
	return &search, nil
}

func buildSearchContext(queries []string, responses []*SearchResponse, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n\n=== Live web search results (as of %s) ===\n\n", now.Format("January 2, 2006"))

	for i, resp := range responses {
		if resp == nil || len(resp.Organic) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\nSearch query %d: %s\n", i+1, queries[i])
		if resp.AnswerBox != nil && resp.AnswerBox.Answer != "" {
			fmt.Fprintf(&b, "AI summary: %s\n\n", resp.AnswerBox.Answer)
		}
		b.WriteString("Related information:\n")
		for j, item := range resp.Organic {
			fmt.Fprintf(&b, "%d. %s\n", j+1, item.Title)
			fmt.Fprintf(&b, "   URL: %s\n", item.Link)
			fmt.Fprintf(&b, "   Snippet: %s\n\n", item.Snippet)
		}
	}

	b.WriteString("\n=== End of search results ===\n\n")
	b.WriteString("Based on the latest search results above, recommend places that are actually open and popular right now.\n")
	return b.String()
}
