// Package gemini scores assessments with a Gemini model.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"google.golang.org/genai"

	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/internal/infrastructure/adapter"
)

const serviceName = "gemini"

const systemInstruction = "You are a credit analyst for Kenyan mobile-money users. " +
	"Answer with a JSON object holding score (300-850), limit (KES) and reason (one sentence)."

// ErrEmptyReply is returned when the model answers without text.
var ErrEmptyReply = errors.New("gemini returned an empty reply")

// generator is the part of *genai.Models the client uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config selects the model.
type Config struct {
	APIKey string
	Model  string
}

// Client implements port.ScoringClient.
type Client struct {
	models   generator
	model    string
	breaker  *gobreaker.CircuitBreaker
	observer adapter.Observer
	logger   *slog.Logger
}

// NewClient connects to the Gemini API.
func NewClient(ctx context.Context, cfg Config, observer adapter.Observer, logger *slog.Logger) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newClient(gc.Models, cfg.Model, observer, logger), nil
}

func newClient(models generator, modelName string, observer adapter.Observer, logger *slog.Logger) *Client {
	return &Client{
		models:   models,
		model:    modelName,
		breaker:  adapter.NewBreaker(adapter.DefaultBreakerConfig(serviceName), observer, logger),
		observer: observer,
		logger:   logger.With("adapter", serviceName),
	}
}

// Score asks the model for a score. The caller's context bounds the call.
func (c *Client) Score(ctx context.Context, prompt string) (model.ScoreReply, error) {
	started := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), generationConfig())
		if err != nil {
			return nil, err
		}
		text := resp.Text()
		if strings.TrimSpace(text) == "" {
			return nil, ErrEmptyReply
		}
		return text, nil
	})
	c.observer.ExternalCall(serviceName, "generate", time.Since(started), err)
	if err != nil {
		c.logger.WarnContext(ctx, "scoring call failed", "error", err)
		return model.ScoreReply{}, fmt.Errorf("gemini generate: %w", err)
	}
	return ParseReply(out.(string))
}

func generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0.2)),
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"score":  {Type: genai.TypeInteger},
				"limit":  {Type: genai.TypeNumber},
				"reason": {Type: genai.TypeString},
			},
			Required: []string{"score", "limit", "reason"},
		},
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
	}
}

type reply struct {
	Score  *float64         `json:"score"`
	Limit  *decimal.Decimal `json:"limit"`
	Reason string           `json:"reason"`
}

var (
	// ErrReplyNotObject is returned for a reply that is not a JSON object.
	ErrReplyNotObject = errors.New("scoring reply is not a JSON object")
	// ErrScoreOutOfRange is returned for a score no int32 can hold.
	ErrScoreOutOfRange = errors.New("scoring reply score out of range")
)

// ParseReply decodes a model answer, repairing fences, trailing commas and
// similar damage first. Missing fields stay nil.
func ParseReply(text string) (model.ScoreReply, error) {
	body := stripFence(text)
	if !strings.HasPrefix(body, "{") {
		return model.ScoreReply{}, ErrReplyNotObject
	}
	repaired, err := jsonrepair.RepairJSON(body)
	if err != nil {
		return model.ScoreReply{}, fmt.Errorf("repair reply: %w", err)
	}
	var r reply
	if err := json.Unmarshal([]byte(repaired), &r); err != nil {
		return model.ScoreReply{}, fmt.Errorf("decode reply: %w", err)
	}

	out := model.ScoreReply{Limit: r.Limit, Reason: strings.TrimSpace(r.Reason)}
	if r.Score != nil {
		rounded := math.Round(*r.Score)
		if rounded < math.MinInt32 || rounded > math.MaxInt32 {
			return model.ScoreReply{}, fmt.Errorf("%w: %g", ErrScoreOutOfRange, *r.Score)
		}
		s := int(rounded)
		out.Score = &s
	}
	return out, nil
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(text), "```")
}
