// Package ai asks a multimodal model to guess where a photo was taken from
// visual cues alone. It is the explicit fallback for images without EXIF GPS.
package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrAnalysisFailed is the single surfaced failure of the AI collaborator:
// missing credential, transport error, or a response that cannot be parsed
// into the structured guess shape. Callers match it with errors.Is.
var ErrAnalysisFailed = errors.New("ai location analysis failed")

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5-20250929"

const guessPrompt = `Look at this photo and guess where it was taken based on visual cues
(architecture, vegetation, signage, landmarks, terrain).

Respond with ONLY a JSON object in exactly this shape:
{
  "location_name": "<your best guess, e.g. \"Paris, France\">",
  "latitude": <number or null if you cannot estimate coordinates>,
  "longitude": <number or null if you cannot estimate coordinates>,
  "confidence": <integer 0-100>,
  "reasoning": "<one or two sentences naming the cues you used>"
}

Omit latitude/longitude (use null) rather than guessing random coordinates
when you are not reasonably sure.`

// Guess is the structured location estimate returned by the model.
// Latitude and Longitude are nil when the model declined to estimate
// coordinates; LocationName, Confidence and Reasoning are always set.
type Guess struct {
	LocationName string
	Latitude     *float64
	Longitude    *float64
	Confidence   int
	Reasoning    string
}

// Client is the slice of the Anthropic API the guesser needs. It exists so
// tests can substitute a fake without touching the SDK.
type Client interface {
	CreateVisionMessage(ctx context.Context, prompt, mediaType, imageB64 string) (string, error)
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client sdk.Client
	model  string
}

func newSDKClient(apiKey, model string) Client {
	return &sdkClient{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *sdkClient) CreateVisionMessage(ctx context.Context, prompt, mediaType, imageB64 string) (string, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: 1024,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(
				sdk.NewImageBlockBase64(mediaType, imageB64),
				sdk.NewTextBlock(prompt),
			),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "anthropic: create message")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

// Guesser runs visual location guesses against a Client.
type Guesser struct {
	client Client
	log    *zap.Logger
}

// NewGuesser builds a Guesser. An empty apiKey yields a Guesser whose calls
// fail with ErrAnalysisFailed before any network request is attempted.
func NewGuesser(apiKey, model string, log *zap.Logger) *Guesser {
	g := &Guesser{log: log}
	if apiKey != "" {
		if model == "" {
			model = DefaultModel
		}
		g.client = newSDKClient(apiKey, model)
	}
	return g
}

// NewGuesserWithClient builds a Guesser over an explicit Client.
func NewGuesserWithClient(client Client, log *zap.Logger) *Guesser {
	return &Guesser{client: client, log: log}
}

// GuessLocation sends the image to the model and parses its structured
// guess. Every invocation is a fresh call; results are never cached.
func (g *Guesser) GuessLocation(ctx context.Context, imageData []byte, mediaType string) (*Guess, error) {
	if g.client == nil {
		return nil, eris.Wrap(ErrAnalysisFailed, "anthropic API key not configured")
	}
	if mediaType == "" {
		mediaType = "image/jpeg"
	}

	encoded := base64.StdEncoding.EncodeToString(imageData)
	text, err := g.client.CreateVisionMessage(ctx, guessPrompt, mediaType, encoded)
	if err != nil {
		g.log.Warn("ai guess request failed", zap.Error(err))
		return nil, eris.Wrap(ErrAnalysisFailed, err.Error())
	}

	guess, err := parseGuess(text)
	if err != nil {
		g.log.Warn("ai guess response unusable", zap.Error(err), zap.String("text", text))
		return nil, eris.Wrap(ErrAnalysisFailed, err.Error())
	}

	g.log.Info("ai location guess",
		zap.String("location", guess.LocationName),
		zap.Int("confidence", guess.Confidence),
		zap.Bool("has_coordinates", guess.Latitude != nil && guess.Longitude != nil),
	)
	return guess, nil
}

// parseGuess decodes the model's JSON reply. location_name, confidence and
// reasoning are required; coordinates are optional.
func parseGuess(text string) (*Guess, error) {
	var raw struct {
		LocationName string   `json:"location_name"`
		Latitude     *float64 `json:"latitude"`
		Longitude    *float64 `json:"longitude"`
		Confidence   *int     `json:"confidence"`
		Reasoning    string   `json:"reasoning"`
	}

	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return nil, eris.Wrap(err, "parse guess JSON")
	}
	if raw.LocationName == "" {
		return nil, eris.New("guess missing location_name")
	}
	if raw.Confidence == nil {
		return nil, eris.New("guess missing confidence")
	}
	if raw.Reasoning == "" {
		return nil, eris.New("guess missing reasoning")
	}

	conf := *raw.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 100 {
		conf = 100
	}

	return &Guess{
		LocationName: raw.LocationName,
		Latitude:     raw.Latitude,
		Longitude:    raw.Longitude,
		Confidence:   conf,
		Reasoning:    raw.Reasoning,
	}, nil
}

// cleanJSON strips markdown code fences and any prose around the JSON
// object so the reply survives models that narrate before answering.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
