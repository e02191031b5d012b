package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripstream/internal/app/domain/users"
	"github.com/FACorreiaa/go-tripstream/internal/app/models"
	"github.com/FACorreiaa/go-tripstream/internal/app/observability/metrics"
)

var errStreamClosed = errors.New("stream closed")

type Handler struct {
	service *Service
	users   users.Store
	logger  *zap.Logger
}

func NewHandler(service *Service, userStore users.Store, logger *zap.Logger) *Handler {
	return &Handler{service: service, users: userStore, logger: logger}
}

// resolveParams binds and validates the request, expands a userId into
// stored demographics, and clamps the count. On failure the response has
// already been written and ok is false.
func (h *Handler) resolveParams(c *gin.Context) (StreamParams, bool) {
	var req models.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields"})
		return StreamParams{}, false
	}

	gender, age := req.Gender, req.Age
	if req.UserID != "" {
		profile, err := h.users.Get(c.Request.Context(), req.UserID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
				return StreamParams{}, false
			}
			h.logger.Error("Profile lookup failed", zap.String("userId", req.UserID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
			return StreamParams{}, false
		}
		gender, age = profile.Gender, profile.Age
	}
	if gender == "" || age == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields"})
		return StreamParams{}, false
	}

	return StreamParams{
		Destination:   req.Destination,
		Gender:        gender,
		Age:           age,
		Count:         req.ClampedCount(),
		SkipSearch:    req.SkipSearch,
		SearchContext: req.SearchContext,
		Previous:      req.PreviousRecommendations,
	}, true
}

func streamHeaders(c *gin.Context) {
	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
}

// StreamRecommendations handles POST /api/recommend, the chunked variant.
func (h *Handler) StreamRecommendations(c *gin.Context) {
	ctx, span := otel.Tracer("recommend").Start(c.Request.Context(), "StreamRecommendations")
	defer span.End()

	m := metrics.Get()
	m.RecommendationRequestsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("mode", "chunked")))

	params, ok := h.resolveParams(c)
	if !ok {
		return
	}
	span.SetAttributes(
		attribute.String("destination", params.Destination),
		attribute.Int("count", params.Count),
	)
	h.logger.Info("Recommendation stream requested",
		zap.String("destination", params.Destination),
		zap.Int("count", params.Count),
		zap.Bool("skipSearch", params.SkipSearch))

	streamHeaders(c)
	emitter := newNDJSONEmitter(c.Writer)
	defer emitter.Close()

	start := time.Now()
	if err := h.service.Stream(ctx, params, emitter); err != nil {
		// Streaming has committed; the contract is closure without a
		// complete event, not an HTTP status.
		h.logger.Error("Recommendation stream aborted", zap.Error(err))
	}
	m.RecommendationStreamSeconds.Record(ctx, time.Since(start).Seconds())
}

// BatchRecommendations handles POST /api/recommend/batch, the atomic
// variant: one recommendation event per record, images resolved inline.
func (h *Handler) BatchRecommendations(c *gin.Context) {
	ctx, span := otel.Tracer("recommend").Start(c.Request.Context(), "BatchRecommendations")
	defer span.End()

	metrics.Get().RecommendationRequestsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("mode", "batch")))

	params, ok := h.resolveParams(c)
	if !ok {
		return
	}

	result, err := h.service.GenerateBatch(ctx, params)
	if err != nil {
		h.logger.Error("Batch recommendation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
		return
	}

	streamHeaders(c)
	emitter := newNDJSONEmitter(c.Writer)
	defer emitter.Close()

	if err := emitter.Emit(models.NewMetadataEvent(result.SearchAvailable, result.SearchContext, result.HasMore)); err != nil {
		return
	}
	for i, rec := range result.Recommendations {
		if err := emitter.Emit(models.NewRecommendationEvent(i, rec)); err != nil {
			return
		}
	}
	_ = emitter.Emit(models.NewCompleteEvent())
}

// ndjsonEmitter serializes events as newline-delimited JSON with a flush
// per line. Emissions after Close (late image resolutions) are refused
// with errStreamClosed instead of writing to a dead connection.
type ndjsonEmitter struct {
	mu     sync.Mutex
	writer gin.ResponseWriter
	closed bool
}

func newNDJSONEmitter(writer gin.ResponseWriter) *ndjsonEmitter {
	return &ndjsonEmitter{writer: writer}
}

func (e *ndjsonEmitter) Emit(event models.StreamEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errStreamClosed
	}

	line, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := e.writer.Write(append(line, '\n')); err != nil {
		e.closed = true
		return err
	}
	e.writer.Flush()

	metrics.Get().StreamEventsTotal.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("event_type", event.Type)))
	return nil
}

func (e *ndjsonEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}
