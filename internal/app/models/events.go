package models

// Stream event discriminators. Every line on the wire is one JSON object
// carrying exactly one of these in its "type" field.
const (
	EventTypeMetadata       = "metadata"
	EventTypeField          = "field"
	EventTypeFieldChunk     = "field_chunk"
	EventTypeRecommendation = "recommendation"
	EventTypeImage          = "image"
	EventTypeComplete       = "complete"
)

// Streamed field names carried by field / field_chunk events.
const (
	FieldHeader      = "header"
	FieldDescription = "description"
	FieldPriceRange  = "priceRange"
	FieldBestTime    = "bestTime"
	FieldActivities  = "activities"
	FieldLink        = "link"
	FieldImage       = "image"
	FieldDetails     = "details"
)

// StreamEvent is the tagged wire envelope. Index is a pointer so that
// index 0 survives serialization while metadata/complete events omit it.
type StreamEvent struct {
	Type  string `json:"type"`
	Index *int   `json:"index,omitempty"`
	Field string `json:"field,omitempty"`

	SearchAvailable *bool  `json:"searchAvailable,omitempty"`
	SearchContext   string `json:"searchContext,omitempty"`
	HasMore         *bool  `json:"hasMore,omitempty"`

	Data any `json:"data,omitempty"`
}

// FieldPayload is the fixed payload shape of atomic field events.
type FieldPayload struct {
	Title      string   `json:"title,omitempty"`
	Location   string   `json:"location,omitempty"`
	Activities []string `json:"activities,omitempty"`
	PriceRange string   `json:"priceRange,omitempty"`
	BestTime   string   `json:"bestTime,omitempty"`
	Link       string   `json:"link,omitempty"`
	ImageURL   string   `json:"imageUrl,omitempty"`
}

// ChunkPayload is the payload of field_chunk events: an append-only text
// delta for character-level progressive rendering.
type ChunkPayload struct {
	Chunk      string `json:"chunk"`
	IsComplete bool   `json:"isComplete"`
}

func NewMetadataEvent(searchAvailable bool, searchContext string, hasMore bool) StreamEvent {
	return StreamEvent{
		Type:            EventTypeMetadata,
		SearchAvailable: &searchAvailable,
		SearchContext:   searchContext,
		HasMore:         &hasMore,
	}
}

func NewFieldEvent(index int, field string, payload FieldPayload) StreamEvent {
	return StreamEvent{
		Type:  EventTypeField,
		Index: &index,
		Field: field,
		Data:  payload,
	}
}

func NewChunkEvent(index int, field, chunk string) StreamEvent {
	return StreamEvent{
		Type:  EventTypeFieldChunk,
		Index: &index,
		Field: field,
		Data:  ChunkPayload{Chunk: chunk},
	}
}

func NewImageEvent(index int, imageURL string) StreamEvent {
	return StreamEvent{
		Type:  EventTypeImage,
		Index: &index,
		Field: FieldImage,
		Data:  FieldPayload{ImageURL: imageURL},
	}
}

func NewRecommendationEvent(index int, rec Recommendation) StreamEvent {
	return StreamEvent{
		Type:  EventTypeRecommendation,
		Index: &index,
		Data:  rec,
	}
}

func NewCompleteEvent() StreamEvent {
	return StreamEvent{Type: EventTypeComplete}
}
