package recommend

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-tripstream/internal/app/ai"
	"github.com/FACorreiaa/go-tripstream/internal/app/domain/images"
	"github.com/FACorreiaa/go-tripstream/internal/app/domain/trends"
	"github.com/FACorreiaa/go-tripstream/internal/app/models"
	"github.com/FACorreiaa/go-tripstream/internal/app/observability/metrics"
	"github.com/FACorreiaa/go-tripstream/internal/pkg/partialjson"
)

// Emitter delivers one event line to the client. Implementations must be
// safe for concurrent use: image events arrive from resolver goroutines
// and may race with the stream close.
type Emitter interface {
	Emit(event models.StreamEvent) error
}

// StreamParams is the resolved input of one recommendation run: identity
// already expanded from the profile store when a userId was supplied,
// count already clamped.
type StreamParams struct {
	Destination   string
	Gender        string
	Age           string
	Count         int
	SkipSearch    bool
	SearchContext string
	Previous      []string
}

// BatchResult is the outcome of the atomic variant, ready for emission.
type BatchResult struct {
	SearchAvailable bool
	SearchContext   string
	HasMore         bool
	Recommendations []models.Recommendation
}

type Service struct {
	ai     ai.StreamClient
	trends trends.Service
	images images.Resolver
	logger *zap.Logger
}

func NewService(client ai.StreamClient, trendsSvc trends.Service, resolver images.Resolver, logger *zap.Logger) *Service {
	return &Service{ai: client, trends: trendsSvc, images: resolver, logger: logger}
}

// resolveSearch reuses the caller-provided context on skipSearch requests
// and otherwise fetches fresh trend context.
func (s *Service) resolveSearch(ctx context.Context, params StreamParams) trends.Result {
	if params.SkipSearch && params.SearchContext != "" {
		s.logger.Info("Reusing previous search context",
			zap.Int("context_length", len(params.SearchContext)))
		return trends.Result{Context: params.SearchContext, Available: true}
	}
	metrics.Get().SearchRequestsTotal.Add(ctx, 1)
	return s.trends.FetchTravelTrends(ctx, params.Destination, params.Gender, params.Age)
}

// cleanStreamBuffer strips code fence markers anywhere in the accumulated
// buffer. Mid-arrival the closing fence may not exist yet, so markers are
// removed wherever they appear rather than only at the edges.
func cleanStreamBuffer(buffer string) string {
	if strings.Contains(buffer, "```json") {
		buffer = strings.ReplaceAll(buffer, "```json", "")
	}
	if strings.Contains(buffer, "```") {
		buffer = strings.ReplaceAll(buffer, "```", "")
	}
	return strings.TrimSpace(buffer)
}

// Stream runs the chunked variant: metadata first, then field and
// field_chunk events as the model's array materializes, image events as
// resolutions land, and a final complete event. Returns an error only
// when the stream has to terminate early; the complete event is not
// emitted in that case.
func (s *Service) Stream(ctx context.Context, params StreamParams, emit Emitter) error {
	search := s.resolveSearch(ctx, params)

	// The context is echoed back so the client can reuse it on load-more
	// requests; a reused context is not echoed again.
	echoContext := search.Context
	if params.SkipSearch {
		echoContext = ""
	}
	// Count is unknown until the upstream stream ends, so hasMore is
	// always true in this variant.
	if err := emit.Emit(models.NewMetadataEvent(search.Available, echoContext, true)); err != nil {
		return errors.Wrap(err, "failed to emit metadata")
	}

	now := time.Now()
	systemPrompt := BuildSystemPrompt(search.Available, now)
	userPrompt := BuildUserPrompt(params.Destination, params.Gender, params.Age,
		params.Count, search.Context, search.Available, params.Previous, now)

	tracker := NewTracker(params.Previous, true)
	var buffer strings.Builder

	for token, err := range s.ai.StreamGenerate(ctx, systemPrompt, userPrompt) {
		if err != nil {
			return errors.Wrap(err, "model stream failed")
		}
		buffer.WriteString(token)

		parsed, _, parseErr := partialjson.Parse(cleanStreamBuffer(buffer.String()))
		if parseErr != nil {
			// An unparsable buffer is a routine mid-stream state.
			continue
		}

		events, jobs := tracker.Observe(parsed)
		for _, event := range events {
			if err := emit.Emit(event); err != nil {
				return errors.Wrap(err, "client stream closed")
			}
		}
		for _, job := range jobs {
			s.dispatchImage(ctx, job, emit)
		}
	}

	if tracker.Completed() < params.Count {
		s.logger.Warn("Stream produced fewer recommendations than requested",
			zap.Int("requested", params.Count),
			zap.Int("completed", tracker.Completed()))
	}
	s.logger.Info("Recommendation stream finished",
		zap.Int("completed", tracker.Completed()),
		zap.Int("suppressed", tracker.Suppressed()))

	m := metrics.Get()
	m.RecommendationsCompleted.Add(ctx, int64(tracker.Completed()))
	m.DuplicatesSuppressedTotal.Add(ctx, int64(tracker.Suppressed()))

	return errors.Wrap(emit.Emit(models.NewCompleteEvent()), "failed to emit complete")
}

// dispatchImage resolves an image without blocking the token loop. A
// resolution landing after the stream closed is discarded by the emitter.
func (s *Service) dispatchImage(ctx context.Context, job ImageJob, emit Emitter) {
	metrics.Get().ImageLookupsTotal.Add(ctx, 1)
	go func() {
		imageURL := s.images.Resolve(ctx, job.Query)
		if err := emit.Emit(models.NewImageEvent(job.Index, imageURL)); err != nil {
			s.logger.Debug("Discarded image event after stream close",
				zap.Int("index", job.Index))
		}
	}()
}

// GenerateBatch runs the atomic variant: the full model response is
// collected, strictly parsed, deduplicated and enriched with inline
// image URLs. A response without a valid JSON array is fatal.
func (s *Service) GenerateBatch(ctx context.Context, params StreamParams) (*BatchResult, error) {
	search := s.resolveSearch(ctx, params)

	now := time.Now()
	systemPrompt := BuildSystemPrompt(search.Available, now)
	userPrompt := BuildUserPrompt(params.Destination, params.Gender, params.Age,
		params.Count, search.Context, search.Available, params.Previous, now)

	text, err := s.ai.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, errors.Wrap(err, "model generation failed")
	}

	parsed, err := parseRecommendationArray(text)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Parsed batch response", zap.Int("recommendations", len(parsed)))

	gate := NewTracker(params.Previous, false)
	recommendations := make([]models.Recommendation, 0, len(parsed))
	for _, rec := range parsed {
		if gate.Duplicate(rec.Title) {
			continue
		}
		if rec.Link == "" {
			rec.Link = SearchLink(rec.Title)
		}
		recommendations = append(recommendations, rec)
	}
	if suppressed := len(parsed) - len(recommendations); suppressed > 0 {
		s.logger.Info("Suppressed duplicate recommendations", zap.Int("count", suppressed))
		metrics.Get().DuplicatesSuppressedTotal.Add(ctx, int64(suppressed))
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range recommendations {
		g.Go(func() error {
			metrics.Get().ImageLookupsTotal.Add(gctx, 1)
			query := recommendations[i].ImageSearchQuery
			if query == "" {
				query = recommendations[i].Title
			}
			recommendations[i].ImageURL = s.images.Resolve(gctx, query)
			return nil
		})
	}
	_ = g.Wait()

	metrics.Get().RecommendationsCompleted.Add(ctx, int64(len(recommendations)))

	echoContext := search.Context
	if params.SkipSearch {
		echoContext = ""
	}
	return &BatchResult{
		SearchAvailable: search.Available,
		SearchContext:   echoContext,
		HasMore:         len(recommendations) == params.Count,
		Recommendations: recommendations,
	}, nil
}

// parseRecommendationArray extracts the outermost JSON array from the
// final response text and strictly parses it.
func parseRecommendationArray(text string) ([]models.Recommendation, error) {
	cleaned := cleanStreamBuffer(text)

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start < 0 || end < start {
		return nil, errors.Wrap(models.ErrMalformedResponse, "no JSON array in model response")
	}

	var recommendations []models.Recommendation
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &recommendations); err != nil {
		return nil, errors.Wrapf(models.ErrMalformedResponse, "invalid recommendation array: %v", err)
	}
	return recommendations, nil
}
