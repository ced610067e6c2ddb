package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeClient returns a canned reply or error.
type fakeClient struct {
	reply string
	err   error
	calls int
}

func (f *fakeClient) CreateVisionMessage(_ context.Context, _, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestGuessLocation_MissingCredential(t *testing.T) {
	g := NewGuesser("", "", zap.NewNop())

	guess, err := g.GuessLocation(context.Background(), []byte("img"), "image/jpeg")

	assert.Nil(t, guess)
	assert.True(t, errors.Is(err, ErrAnalysisFailed))
}

func TestGuessLocation_TransportError(t *testing.T) {
	fc := &fakeClient{err: errors.New("connection reset")}
	g := NewGuesserWithClient(fc, zap.NewNop())

	guess, err := g.GuessLocation(context.Background(), []byte("img"), "image/jpeg")

	assert.Nil(t, guess)
	assert.True(t, errors.Is(err, ErrAnalysisFailed))
}

func TestGuessLocation_FullGuess(t *testing.T) {
	fc := &fakeClient{reply: `{
		"location_name": "Kyoto, Japan",
		"latitude": 35.0116,
		"longitude": 135.7681,
		"confidence": 85,
		"reasoning": "Torii gates and momiji foliage."
	}`}
	g := NewGuesserWithClient(fc, zap.NewNop())

	guess, err := g.GuessLocation(context.Background(), []byte("img"), "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "Kyoto, Japan", guess.LocationName)
	require.NotNil(t, guess.Latitude)
	require.NotNil(t, guess.Longitude)
	assert.InDelta(t, 35.0116, *guess.Latitude, 1e-9)
	assert.InDelta(t, 135.7681, *guess.Longitude, 1e-9)
	assert.Equal(t, 85, guess.Confidence)
}

func TestGuessLocation_NoCoordinates(t *testing.T) {
	fc := &fakeClient{reply: `{
		"location_name": "Paris, France",
		"latitude": null,
		"longitude": null,
		"confidence": 72,
		"reasoning": "Eiffel Tower visible"
	}`}
	g := NewGuesserWithClient(fc, zap.NewNop())

	guess, err := g.GuessLocation(context.Background(), []byte("img"), "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "Paris, France", guess.LocationName)
	assert.Nil(t, guess.Latitude)
	assert.Nil(t, guess.Longitude)
	assert.Equal(t, 72, guess.Confidence)
	assert.Equal(t, "Eiffel Tower visible", guess.Reasoning)
}

func TestGuessLocation_FencedReply(t *testing.T) {
	fc := &fakeClient{reply: "Here is my guess:\n```json\n" +
		`{"location_name": "Oslo, Norway", "confidence": 40, "reasoning": "Fjord skyline."}` +
		"\n```"}
	g := NewGuesserWithClient(fc, zap.NewNop())

	guess, err := g.GuessLocation(context.Background(), []byte("img"), "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "Oslo, Norway", guess.LocationName)
}

func TestGuessLocation_MalformedReply(t *testing.T) {
	fc := &fakeClient{reply: "I am not sure where this is."}
	g := NewGuesserWithClient(fc, zap.NewNop())

	guess, err := g.GuessLocation(context.Background(), []byte("img"), "image/jpeg")

	assert.Nil(t, guess)
	assert.True(t, errors.Is(err, ErrAnalysisFailed))
}

func TestGuessLocation_EveryCallIsFresh(t *testing.T) {
	fc := &fakeClient{reply: `{"location_name": "Rome, Italy", "confidence": 60, "reasoning": "Colosseum."}`}
	g := NewGuesserWithClient(fc, zap.NewNop())

	_, err := g.GuessLocation(context.Background(), []byte("img"), "image/jpeg")
	require.NoError(t, err)
	_, err = g.GuessLocation(context.Background(), []byte("img"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, 2, fc.calls)
}

func TestParseGuess_RequiredFields(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"missing location_name", `{"confidence": 50, "reasoning": "x"}`},
		{"missing confidence", `{"location_name": "A", "reasoning": "x"}`},
		{"missing reasoning", `{"location_name": "A", "confidence": 50}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseGuess(tc.in)
			assert.Error(t, err)
		})
	}
}

func TestParseGuess_ConfidenceClamped(t *testing.T) {
	guess, err := parseGuess(`{"location_name": "A", "confidence": 140, "reasoning": "x"}`)
	require.NoError(t, err)
	assert.Equal(t, 100, guess.Confidence)

	guess, err = parseGuess(`{"location_name": "A", "confidence": -3, "reasoning": "x"}`)
	require.NoError(t, err)
	assert.Equal(t, 0, guess.Confidence)
}

func TestCleanJSON(t *testing.T) {
	in := "```json\n{\"a\": 1}\n```"
	assert.Equal(t, `{"a": 1}`, cleanJSON(in))

	in = "Sure! {\"a\": 1} hope that helps"
	assert.Equal(t, `{"a": 1}`, cleanJSON(in))
}
