package recommend

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripstream/internal/app/domain/trends"
	"github.com/FACorreiaa/go-tripstream/internal/app/models"
	"github.com/FACorreiaa/go-tripstream/internal/app/observability/metrics"
)

type fakeStreamClient struct {
	chunks []string
	err    error
	full   string

	mu          sync.Mutex
	lastSystem  string
	lastUser    string
	streamCalls int
	served      int
}

func (f *fakeStreamClient) StreamGenerate(_ context.Context, system, user string) iter.Seq2[string, error] {
	f.mu.Lock()
	f.lastSystem = system
	f.lastUser = user
	f.streamCalls++
	f.mu.Unlock()
	return func(yield func(string, error) bool) {
		for _, chunk := range f.chunks {
			if !yield(chunk, nil) {
				return
			}
			f.mu.Lock()
			f.served++
			f.mu.Unlock()
		}
		if f.err != nil {
			yield("", f.err)
		}
	}
}

func (f *fakeStreamClient) Generate(_ context.Context, system, user string) (string, error) {
	f.mu.Lock()
	f.lastSystem = system
	f.lastUser = user
	f.mu.Unlock()
	return f.full, f.err
}

type fakeTrends struct {
	result trends.Result
	calls  int
}

func (f *fakeTrends) FetchTravelTrends(context.Context, string, string, string) trends.Result {
	f.calls++
	return f.result
}

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, query string) string {
	return "https://img.example/" + strings.ReplaceAll(query, " ", "-")
}

// captureEmitter records events; it never closes so late image events
// are observable in tests.
type captureEmitter struct {
	mu     sync.Mutex
	events []models.StreamEvent
}

func (c *captureEmitter) Emit(event models.StreamEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureEmitter) snapshot() []models.StreamEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.StreamEvent(nil), c.events...)
}

func (c *captureEmitter) countType(eventType string) int {
	n := 0
	for _, ev := range c.snapshot() {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

func newTestService(client *fakeStreamClient, search trends.Result) (*Service, *fakeTrends) {
	metrics.InitAppMetrics()
	trendsSvc := &fakeTrends{result: search}
	return NewService(client, trendsSvc, fakeResolver{}, zap.NewNop()), trendsSvc
}

func baseParams() StreamParams {
	return StreamParams{Destination: "Paris", Gender: "female", Age: "20s", Count: 3}
}

func TestStreamSplitChunkScenario(t *testing.T) {
	client := &fakeStreamClient{chunks: []string{
		`[{"title":"Eiffel T`,
		`ower","location":"Paris","description":"Iconic landmark","activities":["Photo"],"priceRange":"Free","bestTime":"Evening","link":"https://x"}]`,
	}}
	svc, _ := newTestService(client, trends.Result{Context: "ctx", Available: true})
	emitter := &captureEmitter{}

	require.NoError(t, svc.Stream(context.Background(), baseParams(), emitter))

	events := emitter.snapshot()
	require.NotEmpty(t, events)
	assert.Equal(t, models.EventTypeMetadata, events[0].Type, "metadata must be first")
	assert.True(t, *events[0].SearchAvailable)

	var header *models.StreamEvent
	for i := range events {
		if events[i].Field == models.FieldHeader {
			header = &events[i]
		}
	}
	require.NotNil(t, header, "header must be emitted once the record completes")
	assert.Equal(t, "Eiffel Tower", header.Data.(models.FieldPayload).Title)
	assert.Equal(t, 0, *header.Index)

	assert.Equal(t, 1, emitter.countType(models.EventTypeComplete))
	last := events[len(events)-1]
	if last.Type != models.EventTypeImage {
		assert.Equal(t, models.EventTypeComplete, last.Type)
	}

	// The image resolution is fire-and-forget and may land after complete.
	require.Eventually(t, func() bool {
		return emitter.countType(models.EventTypeImage) == 1
	}, time.Second, 5*time.Millisecond)

	for _, ev := range emitter.snapshot() {
		if ev.Type == models.EventTypeImage {
			assert.Equal(t, "https://img.example/Eiffel-Tower", ev.Data.(models.FieldPayload).ImageURL)
		}
	}
}

func TestStreamEmptyUpstream(t *testing.T) {
	client := &fakeStreamClient{}
	svc, _ := newTestService(client, trends.Result{})
	emitter := &captureEmitter{}

	require.NoError(t, svc.Stream(context.Background(), baseParams(), emitter))

	events := emitter.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, models.EventTypeMetadata, events[0].Type)
	assert.False(t, *events[0].SearchAvailable)
	assert.Equal(t, models.EventTypeComplete, events[1].Type)
}

func TestStreamIgnoresCodeFences(t *testing.T) {
	client := &fakeStreamClient{chunks: []string{
		"```json\n[",
		`{"title":"Louvre","location":"Paris","description":"Museum","activities":["Mona Lisa"],"priceRange":"$20","bestTime":"Morning","link":"https://x"}`,
		"]\n```",
	}}
	svc, _ := newTestService(client, trends.Result{Context: "ctx", Available: true})
	emitter := &captureEmitter{}

	require.NoError(t, svc.Stream(context.Background(), baseParams(), emitter))
	headerCount := 0
	for _, ev := range emitter.snapshot() {
		if ev.Field == models.FieldHeader {
			headerCount++
		}
	}
	assert.Equal(t, 1, headerCount)
}

func TestStreamDedupSuppression(t *testing.T) {
	record := `[{"title":"Louvre","location":"Paris","description":"Museum","activities":["Art"],"priceRange":"$20","bestTime":"Morning","link":"https://x"}]`
	client := &fakeStreamClient{chunks: []string{record}}
	svc, _ := newTestService(client, trends.Result{})
	params := baseParams()
	params.Previous = []string{"Louvre"}
	emitter := &captureEmitter{}

	require.NoError(t, svc.Stream(context.Background(), params, emitter))

	for _, ev := range emitter.snapshot() {
		assert.NotEqual(t, models.FieldHeader, ev.Field)
		assert.NotEqual(t, models.EventTypeImage, ev.Type)
	}
	assert.Equal(t, 1, emitter.countType(models.EventTypeComplete))
}

var errClientGone = errors.New("client disconnected")

// disconnectingEmitter accepts a fixed number of events and then behaves
// like a closed client connection.
type disconnectingEmitter struct {
	mu      sync.Mutex
	allowed int
	events  []models.StreamEvent
}

func (d *disconnectingEmitter) Emit(event models.StreamEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.events) >= d.allowed {
		return errClientGone
	}
	d.events = append(d.events, event)
	return nil
}

func TestStreamStopsWhenClientDisconnects(t *testing.T) {
	client := &fakeStreamClient{chunks: []string{
		`[{"title":"Louvre","location":"Paris","description":"A grand`,
		` museum","activities":["Art"],"priceRange":"$20","bestTime":"Morning","link":"https://x"}`,
		`]`,
	}}
	svc, _ := newTestService(client, trends.Result{})
	// Metadata goes through, the first field chunk hits the dead connection.
	emitter := &disconnectingEmitter{allowed: 1}

	err := svc.Stream(context.Background(), baseParams(), emitter)
	require.Error(t, err)
	assert.ErrorIs(t, err, errClientGone)

	emitter.mu.Lock()
	events := append([]models.StreamEvent(nil), emitter.events...)
	emitter.mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventTypeMetadata, events[0].Type)

	client.mu.Lock()
	served := client.served
	client.mu.Unlock()
	assert.Equal(t, 1, served, "token loop must stop at the failed emit, not drain the model stream")
}

func TestStreamSkipSearchReusesContext(t *testing.T) {
	client := &fakeStreamClient{}
	svc, trendsSvc := newTestService(client, trends.Result{Context: "fresh", Available: true})
	params := baseParams()
	params.SkipSearch = true
	params.SearchContext = "previous context"
	emitter := &captureEmitter{}

	require.NoError(t, svc.Stream(context.Background(), params, emitter))

	assert.Zero(t, trendsSvc.calls, "skipSearch with a provided context must not hit the search API")
	metadata := emitter.snapshot()[0]
	assert.True(t, *metadata.SearchAvailable)
	assert.Empty(t, metadata.SearchContext, "a reused context is not echoed back")
	assert.Contains(t, client.lastUser, "previous context")
}

func TestStreamPromptUsesClampedCount(t *testing.T) {
	client := &fakeStreamClient{}
	svc, _ := newTestService(client, trends.Result{})
	params := baseParams()
	params.Count = 21
	emitter := &captureEmitter{}

	require.NoError(t, svc.Stream(context.Background(), params, emitter))
	assert.Contains(t, client.lastUser, "exactly 21 recommendations")
	assert.Contains(t, client.lastSystem, "JSON array")
}

func TestGenerateBatch(t *testing.T) {
	client := &fakeStreamClient{full: "```json\n" + `[
		{"title":"Louvre","location":"Paris","description":"Museum","activities":["Art"],"priceRange":"$20","bestTime":"Morning","imageSearchQuery":"Louvre Paris","link":"https://louvre.fr"},
		{"title":"Dup","location":"Paris","description":"Seen","activities":["X"],"priceRange":"$1","bestTime":"Any","link":""},
		{"title":"Montmartre","location":"Paris","description":"Hill","activities":["Walk"],"priceRange":"Free","bestTime":"Sunset","link":""}
	]` + "\n```"}
	svc, _ := newTestService(client, trends.Result{Context: "ctx", Available: true})
	params := baseParams()
	params.Previous = []string{"Dup"}

	result, err := svc.GenerateBatch(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 2)
	assert.False(t, result.HasMore, "two of three requested records means no more pages")

	first := result.Recommendations[0]
	assert.Equal(t, "https://louvre.fr", first.Link, "a model link is preserved in batch mode")
	assert.Equal(t, "https://img.example/Louvre-Paris", first.ImageURL)

	second := result.Recommendations[1]
	assert.Equal(t, SearchLink("Montmartre"), second.Link, "an empty link falls back to a search URL")
	assert.Equal(t, "https://img.example/Montmartre", second.ImageURL)
}

func TestGenerateBatchMalformed(t *testing.T) {
	client := &fakeStreamClient{full: "Sorry, I cannot respond with JSON today."}
	svc, _ := newTestService(client, trends.Result{})

	_, err := svc.GenerateBatch(context.Background(), baseParams())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrMalformedResponse)
}
