package partialjson

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const referenceDoc = `[
  {
    "title": "Shibuya Sky",
    "location": "Tokyo, Shibuya",
    "description": "Open-air observation deck with a 360 view.",
    "activities": ["Sunset timelapse", "Rooftop photos"],
    "priceRange": "Admission 2,500 yen",
    "bestTime": "Autumn, evening",
    "rating": 4.7,
    "openNow": true,
    "closedOn": null
  },
  {
    "title": "Le Moulin de la Galette",
    "location": "Paris, Montmartre",
    "description": "Historic windmill restaurant \"painted by Renoir\".",
    "activities": ["Lunch", "Gallery walk"],
    "priceRange": "Mains 25€",
    "bestTime": "Spring, noon",
    "rating": 4.2,
    "openNow": false,
    "closedOn": "Monday"
  }
]`

func TestParseCompleteDocument(t *testing.T) {
	val, state, err := Parse(referenceDoc)
	require.NoError(t, err)
	assert.Equal(t, StateComplete, state)

	arr, ok := val.([]any)
	require.True(t, ok, "top-level value should be an array")
	require.Len(t, arr, 2)

	first, ok := arr[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Shibuya Sky", first["title"])
	assert.Equal(t, 4.7, first["rating"])
	assert.Equal(t, true, first["openNow"])
	assert.Nil(t, first["closedOn"])

	second := arr[1].(map[string]any)
	assert.Equal(t, `Historic windmill restaurant "painted by Renoir".`, second["description"])
	assert.Equal(t, "Mains 25€", second["priceRange"])
}

// Every byte-prefix of a valid document must either yield a lenient value
// or report incomplete; none may error or panic.
func TestParseEveryPrefixNeverFails(t *testing.T) {
	for cut := 0; cut <= len(referenceDoc); cut++ {
		val, state, err := Parse(referenceDoc[:cut])
		require.NoErrorf(t, err, "prefix of length %d", cut)
		if cut == len(referenceDoc) {
			assert.Equal(t, StateComplete, state)
			continue
		}
		if state == StateIncomplete && val != nil {
			_, isArr := val.([]any)
			assert.Truef(t, isArr, "prefix of length %d produced %T", cut, val)
		}
	}
}

func TestParseMatchesEncodingJSONOnCompleteInput(t *testing.T) {
	var want any
	require.NoError(t, json.Unmarshal([]byte(referenceDoc), &want))

	got, state, err := Parse(referenceDoc)
	require.NoError(t, err)
	require.Equal(t, StateComplete, state)
	assert.Equal(t, want, got)
}

func TestParseIdempotent(t *testing.T) {
	first, state1, err1 := Parse(referenceDoc)
	second, state2, err2 := Parse(referenceDoc)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, state1, state2)
	assert.Equal(t, first, second)
}

func TestParseUnterminatedString(t *testing.T) {
	val, state, err := Parse(`[{"title": "Eiffel T`)
	require.NoError(t, err)
	assert.Equal(t, StateIncomplete, state)

	arr := val.([]any)
	require.Len(t, arr, 1)
	rec := arr[0].(map[string]any)
	assert.Equal(t, "Eiffel T", rec["title"])
}

func TestParsePartialKeyDropped(t *testing.T) {
	val, state, err := Parse(`[{"title": "A", "desc`)
	require.NoError(t, err)
	assert.Equal(t, StateIncomplete, state)

	rec := val.([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"title": "A"}, rec)
}

func TestParsePartialLiteralAndNumber(t *testing.T) {
	val, state, err := Parse(`[{"ok": tru`)
	require.NoError(t, err)
	assert.Equal(t, StateIncomplete, state)
	rec := val.([]any)[0].(map[string]any)
	_, present := rec["ok"]
	assert.False(t, present, "half-written literal must not surface a value")

	val, state, err = Parse(`[1, 2, -`)
	require.NoError(t, err)
	assert.Equal(t, StateIncomplete, state)
	assert.Equal(t, []any{1.0, 2.0}, val)

	val, _, err = Parse(`[1.5e`)
	require.NoError(t, err)
	assert.Equal(t, []any{1.5}, val)
}

func TestParseTrailingComma(t *testing.T) {
	val, state, err := Parse(`[1, 2,`)
	require.NoError(t, err)
	assert.Equal(t, StateIncomplete, state)
	assert.Equal(t, []any{1.0, 2.0}, val)

	val, state, err = Parse(`[1, 2,]`)
	require.NoError(t, err)
	assert.Equal(t, StateComplete, state)
	assert.Equal(t, []any{1.0, 2.0}, val)
}

func TestParseTruncatedEscapeDropped(t *testing.T) {
	val, _, err := Parse(`["abc\`)
	require.NoError(t, err)
	assert.Equal(t, []any{"abc"}, val)

	val, _, err = Parse(`["abc\u00`)
	require.NoError(t, err)
	assert.Equal(t, []any{"abc"}, val)
}

func TestParseUnpairedSurrogate(t *testing.T) {
	// A lone surrogate in a closed document decodes to U+FFFD, exactly as
	// encoding/json decodes it; the document is complete, not stuck.
	var want any
	require.NoError(t, json.Unmarshal([]byte(`["\udc00"]`), &want))

	val, state, err := Parse(`["\udc00"]`)
	require.NoError(t, err)
	assert.Equal(t, StateComplete, state)
	assert.Equal(t, want, val)
	assert.Equal(t, []any{"�"}, val)

	val, state, err = Parse(`["\ud83d note"]`)
	require.NoError(t, err)
	assert.Equal(t, StateComplete, state)
	assert.Equal(t, []any{"� note"}, val)

	// A high surrogate at the cut point still waits for its pair.
	_, state, err = Parse(`["\ud83d`)
	require.NoError(t, err)
	assert.Equal(t, StateIncomplete, state)

	_, state, err = Parse(`["\ud83d\ud`)
	require.NoError(t, err)
	assert.Equal(t, StateIncomplete, state)

	val, state, err = Parse("[\"\\ud83d\\ude00\"]")
	require.NoError(t, err)
	assert.Equal(t, StateComplete, state)
	assert.Equal(t, []any{"\U0001F600"}, val)
}

func TestParseMalformed(t *testing.T) {
	for _, in := range []string{
		`[1 2]`,
		`{"a" 1}`,
		`{1: 2}`,
		`[}`,
		`[1] trailing`,
		`[truthy]`,
	} {
		_, _, err := Parse(in)
		assert.Errorf(t, err, "input %q", in)
	}
}

func TestParseEmptyInput(t *testing.T) {
	val, state, err := Parse("")
	require.NoError(t, err)
	assert.Nil(t, val)
	assert.Equal(t, StateIncomplete, state)

	val, state, err = Parse("   \n")
	require.NoError(t, err)
	assert.Nil(t, val)
	assert.Equal(t, StateIncomplete, state)
}
