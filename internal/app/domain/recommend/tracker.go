// Package recommend implements the recommendation streaming pipeline:
// prompt construction, incremental extraction of the model's JSON array,
// per-index field completion tracking, deduplication and event emission.
package recommend

import (
	"fmt"
	"net/url"

	"github.com/FACorreiaa/go-tripstream/internal/app/models"
)

// candidate is one array element as reconstructed from a partial parse.
// Any field may still be empty or truncated mid-stream.
type candidate struct {
	Title            string
	Location         string
	Description      string
	Activities       []string
	PriceRange       string
	BestTime         string
	ImageSearchQuery string
	Link             string
}

// complete reports whether every field required by the completion
// invariant is present in the current parse state.
func (c *candidate) complete() bool {
	return c.Title != "" && c.Location != "" && c.Description != "" &&
		len(c.Activities) > 0 && c.PriceRange != "" && c.BestTime != "" && c.Link != ""
}

// imageQuery returns the query used for image resolution.
func (c *candidate) imageQuery() string {
	if c.ImageSearchQuery != "" {
		return c.ImageSearchQuery
	}
	if c.Title != "" {
		return c.Title
	}
	return "travel"
}

// fieldState remembers what has already been emitted for one index so
// that each tick only produces deltas.
type fieldState struct {
	headerSent     bool
	activitiesSent bool
	linkSent       bool
	imageStarted   bool

	description string
	priceRange  string
	bestTime    string
}

// ImageJob asks the controller to resolve an image for a completed index.
type ImageJob struct {
	Index int
	Query string
}

// Tracker drives field-level diffing and record completion for one
// request. It is owned by a single stream and is not safe for concurrent
// use.
type Tracker struct {
	chunked   bool
	previous  map[string]struct{}
	states    map[int]*fieldState
	processed map[int]struct{}

	completed  int
	suppressed int
}

// NewTracker builds a tracker for one stream. previousTitles feeds the
// dedup gate; chunked selects whether field_chunk deltas are emitted.
func NewTracker(previousTitles []string, chunked bool) *Tracker {
	previous := make(map[string]struct{}, len(previousTitles))
	for _, title := range previousTitles {
		previous[title] = struct{}{}
	}
	return &Tracker{
		chunked:   chunked,
		previous:  previous,
		states:    make(map[int]*fieldState),
		processed: make(map[int]struct{}),
	}
}

// Completed returns how many records reached completion and were emitted.
func (t *Tracker) Completed() int { return t.completed }

// Suppressed returns how many completed records the dedup gate dropped.
func (t *Tracker) Suppressed() int { return t.suppressed }

// Duplicate is the dedup gate: exact title match, no normalization.
func (t *Tracker) Duplicate(title string) bool {
	_, ok := t.previous[title]
	return ok
}

// Observe diffs the latest partial parse against emitted state and
// returns the events due on this tick, plus image jobs for any index
// that just completed. Non-array and nil values are no-op ticks.
func (t *Tracker) Observe(parsed any) ([]models.StreamEvent, []ImageJob) {
	items, ok := parsed.([]any)
	if !ok {
		return nil, nil
	}

	var events []models.StreamEvent
	var jobs []ImageJob

	for i, item := range items {
		if _, done := t.processed[i]; done {
			continue
		}
		rec := decodeCandidate(item)
		if rec == nil {
			continue
		}

		state := t.states[i]
		if state == nil {
			state = &fieldState{}
			t.states[i] = state
		}

		if t.chunked {
			events = append(events, t.diffChunks(i, rec, state)...)

			// The link is rebuilt as a destination search URL; whatever
			// the model produced is discarded.
			if rec.Link != "" && !state.linkSent {
				events = append(events, models.NewFieldEvent(i, models.FieldLink,
					models.FieldPayload{Link: SearchLink(rec.Title)}))
				state.linkSent = true
			}
		}

		if !rec.complete() {
			continue
		}

		if t.Duplicate(rec.Title) {
			// Suppressed records still freeze the slot so the index is
			// never retried.
			t.processed[i] = struct{}{}
			t.suppressed++
			continue
		}

		if t.chunked {
			if !state.headerSent {
				events = append(events, models.NewFieldEvent(i, models.FieldHeader,
					models.FieldPayload{Title: rec.Title, Location: rec.Location}))
				state.headerSent = true

				if !state.imageStarted {
					state.imageStarted = true
					jobs = append(jobs, ImageJob{Index: i, Query: rec.imageQuery()})
				}
			}
			if !state.activitiesSent {
				events = append(events, models.NewFieldEvent(i, models.FieldActivities,
					models.FieldPayload{Activities: rec.Activities}))
				state.activitiesSent = true
			}
		}

		t.processed[i] = struct{}{}
		t.completed++
	}
	return events, jobs
}

// diffChunks emits append-only deltas for the character-streamed fields.
// A value that does not strictly extend the emitted prefix is left alone
// until a later tick extends it again.
func (t *Tracker) diffChunks(index int, rec *candidate, state *fieldState) []models.StreamEvent {
	var events []models.StreamEvent

	if chunk, ok := extension(state.description, rec.Description); ok {
		events = append(events, models.NewChunkEvent(index, models.FieldDescription, chunk))
		state.description = rec.Description
	}
	if chunk, ok := extension(state.priceRange, rec.PriceRange); ok {
		events = append(events, models.NewChunkEvent(index, models.FieldPriceRange, chunk))
		state.priceRange = rec.PriceRange
	}
	if chunk, ok := extension(state.bestTime, rec.BestTime); ok {
		events = append(events, models.NewChunkEvent(index, models.FieldBestTime, chunk))
		state.bestTime = rec.BestTime
	}
	return events
}

// extension returns the appended suffix when curr strictly extends prev.
func extension(prev, curr string) (string, bool) {
	if len(curr) <= len(prev) || curr[:len(prev)] != prev {
		return "", false
	}
	return curr[len(prev):], true
}

// SearchLink builds the normalized external link for a title.
func SearchLink(title string) string {
	return fmt.Sprintf("https://www.google.com/search?q=%s", url.QueryEscape(title))
}

// decodeCandidate converts one leniently parsed array element into a
// candidate. Unexpected shapes yield nil and the element is skipped.
func decodeCandidate(item any) *candidate {
	obj, ok := item.(map[string]any)
	if !ok {
		return nil
	}
	rec := &candidate{
		Title:            stringField(obj, "title"),
		Location:         stringField(obj, "location"),
		Description:      stringField(obj, "description"),
		PriceRange:       stringField(obj, "priceRange"),
		BestTime:         stringField(obj, "bestTime"),
		ImageSearchQuery: stringField(obj, "imageSearchQuery"),
		Link:             stringField(obj, "link"),
	}
	if raw, ok := obj["activities"].([]any); ok {
		for _, entry := range raw {
			if s, ok := entry.(string); ok && s != "" {
				rec.Activities = append(rec.Activities, s)
			}
		}
	}
	return rec
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
