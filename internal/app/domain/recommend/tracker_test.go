package recommend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-tripstream/internal/app/models"
	"github.com/FACorreiaa/go-tripstream/internal/pkg/partialjson"
)

func mustParse(t *testing.T, input string) any {
	t.Helper()
	parsed, _, err := partialjson.Parse(input)
	require.NoError(t, err)
	return parsed
}

const completeRecord = `[{"title":"Shibuya Sky","location":"Tokyo, Shibuya","description":"Open-air rooftop with a glass corner.","activities":["Sunset timelapse","Sky Edge photo"],"priceRange":"entry $18","bestTime":"evening","imageSearchQuery":"Shibuya Sky Tokyo","link":"https://model-made-this-up.example"}]`

func TestTrackerDiffMonotonicity(t *testing.T) {
	tracker := NewTracker(nil, true)

	events, _ := tracker.Observe(mustParse(t, `[{"title":"Shibuya Sky","description":"Open-air`))
	require.Len(t, events, 1)
	assert.Equal(t, models.EventTypeFieldChunk, events[0].Type)
	assert.Equal(t, models.FieldDescription, events[0].Field)

	var accumulated strings.Builder
	accumulated.WriteString(events[0].Data.(models.ChunkPayload).Chunk)

	events, _ = tracker.Observe(mustParse(t, `[{"title":"Shibuya Sky","description":"Open-air rooftop`))
	require.Len(t, events, 1)
	accumulated.WriteString(events[0].Data.(models.ChunkPayload).Chunk)

	assert.Equal(t, "Open-air rooftop", accumulated.String(),
		"concatenated chunks must equal the latest parsed value")
}

func TestTrackerRewriteTolerated(t *testing.T) {
	tracker := NewTracker(nil, true)

	events, _ := tracker.Observe(mustParse(t, `[{"description":"Iconic l"}]`))
	require.Len(t, events, 1)

	// A value that no longer extends the emitted prefix is skipped.
	events, _ = tracker.Observe(mustParse(t, `[{"description":"Different text"}]`))
	assert.Empty(t, events)

	// A later tick that extends the original prefix resumes diffing.
	events, _ = tracker.Observe(mustParse(t, `[{"description":"Iconic landmark"}]`))
	require.Len(t, events, 1)
	assert.Equal(t, "andmark", events[0].Data.(models.ChunkPayload).Chunk)
}

func TestTrackerCompletionExactlyOnce(t *testing.T) {
	tracker := NewTracker(nil, true)

	events, jobs := tracker.Observe(mustParse(t, completeRecord))
	require.Len(t, jobs, 1)
	assert.Equal(t, "Shibuya Sky Tokyo", jobs[0].Query)
	assert.Equal(t, 1, tracker.Completed())

	types := make([]string, 0, len(events))
	fields := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
		fields = append(fields, ev.Field)
	}
	assert.Contains(t, fields, models.FieldHeader)
	assert.Contains(t, fields, models.FieldActivities)
	assert.Contains(t, fields, models.FieldLink)
	assert.Contains(t, types, models.EventTypeFieldChunk)

	// The processed slot is frozen: later ticks, even with revised text,
	// must be silent.
	revised := strings.Replace(completeRecord, "Shibuya Sky", "Somewhere Else", 1)
	events, jobs = tracker.Observe(mustParse(t, revised))
	assert.Empty(t, events)
	assert.Empty(t, jobs)
	assert.Equal(t, 1, tracker.Completed())
}

func TestTrackerLinkNormalized(t *testing.T) {
	tracker := NewTracker(nil, true)

	events, _ := tracker.Observe(mustParse(t, completeRecord))
	var link string
	for _, ev := range events {
		if ev.Field == models.FieldLink {
			link = ev.Data.(models.FieldPayload).Link
		}
	}
	assert.Equal(t, "https://www.google.com/search?q=Shibuya+Sky", link,
		"model-provided links are replaced with a search URL")
}

func TestTrackerDedupMarksProcessed(t *testing.T) {
	tracker := NewTracker([]string{"Shibuya Sky", "Eiffel Tower"}, true)

	events, jobs := tracker.Observe(mustParse(t, completeRecord))
	for _, ev := range events {
		assert.NotEqual(t, models.FieldHeader, ev.Field, "suppressed record must not emit a header")
		assert.NotEqual(t, models.FieldActivities, ev.Field)
	}
	assert.Empty(t, jobs)
	assert.Equal(t, 0, tracker.Completed())
	assert.Equal(t, 1, tracker.Suppressed())

	// Suppression is terminal, not a retry loop.
	events, jobs = tracker.Observe(mustParse(t, completeRecord))
	assert.Empty(t, events)
	assert.Empty(t, jobs)
	assert.Equal(t, 1, tracker.Suppressed())
}

func TestTrackerHeaderOnlyAtCompletion(t *testing.T) {
	tracker := NewTracker(nil, true)

	partial := `[{"title":"Shibuya Sky","location":"Tokyo","description":"Rooftop.","activities":["Photo"],"priceRange":"entry $18","bestTime":"evening"}]`
	events, jobs := tracker.Observe(mustParse(t, partial))
	for _, ev := range events {
		assert.NotEqual(t, models.FieldHeader, ev.Field, "header must wait for the full record")
	}
	assert.Empty(t, jobs)
	assert.Equal(t, 0, tracker.Completed())

	events, jobs = tracker.Observe(mustParse(t, completeRecord))
	var sawHeader bool
	for _, ev := range events {
		if ev.Field == models.FieldHeader {
			sawHeader = true
			payload := ev.Data.(models.FieldPayload)
			assert.Equal(t, "Shibuya Sky", payload.Title)
			assert.Equal(t, "Tokyo, Shibuya", payload.Location)
		}
	}
	assert.True(t, sawHeader)
	assert.Len(t, jobs, 1)
}

func TestTrackerAtomicModeEmitsNothing(t *testing.T) {
	tracker := NewTracker(nil, false)

	events, jobs := tracker.Observe(mustParse(t, completeRecord))
	assert.Empty(t, events)
	assert.Empty(t, jobs)
	assert.Equal(t, 1, tracker.Completed())
}

func TestTrackerIgnoresNonArray(t *testing.T) {
	tracker := NewTracker(nil, true)

	events, jobs := tracker.Observe(mustParse(t, `{"title":"not an array"}`))
	assert.Empty(t, events)
	assert.Empty(t, jobs)

	events, jobs = tracker.Observe(nil)
	assert.Empty(t, events)
	assert.Empty(t, jobs)
}
