package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/goactions/internal/cache"
	"github.com/hyperifyio/goactions/internal/deadline"
	"github.com/hyperifyio/goactions/internal/items"
	"github.com/hyperifyio/goactions/internal/llm"
)

// ErrModelOutput is returned when the model reply is not the expected JSON.
var ErrModelOutput = errors.New("model returned no usable JSON")

const systemMessage = "You extract action items from meeting notes. Respond with strict JSON only, no narration. " +
	"The JSON schema is {\"items\": [{\"action\": string, \"assignee\": string, \"deadline\": string}]}. " +
	"action is the task as stated in the notes. assignee is the responsible person, or \"General\" when nobody is named. " +
	"deadline is an ISO date (YYYY-MM-DD) resolved against today's date, or \"No deadline\". " +
	"Keep the order in which tasks appear. Return {\"items\": []} when there are none."

// LLM asks an OpenAI-compatible chat model for the action items.
type LLM struct {
	Client llm.Client
	Model  string
	Cache  *cache.ResponseCache
	// Fallback, when set, serves the request if the model call fails or its
	// reply cannot be parsed.
	Fallback Engine
	// SystemPrompt overrides the default system message when non-empty.
	SystemPrompt string
	Now          func() time.Time
}

func (e *LLM) Name() string { return "llm" }

func (e *LLM) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *LLM) Extract(ctx context.Context, notes string) (items.ExtractionResponse, error) {
	if strings.TrimSpace(notes) == "" {
		return items.NewResponse(nil), nil
	}
	list, err := e.extract(ctx, notes)
	if err != nil {
		if e.Fallback == nil {
			return items.ExtractionResponse{}, err
		}
		log.Warn().Err(err).Str("fallback", e.Fallback.Name()).Msg("llm extraction failed; using fallback")
		return e.Fallback.Extract(ctx, notes)
	}
	return items.NewResponse(list), nil
}

func (e *LLM) extract(ctx context.Context, notes string) ([]items.ActionItem, error) {
	if e.Client == nil || strings.TrimSpace(e.Model) == "" {
		return nil, errors.New("llm engine not configured")
	}
	today := deadline.Midnight(e.now())
	system := systemMessage
	if strings.TrimSpace(e.SystemPrompt) != "" {
		system = e.SystemPrompt
	}
	user := fmt.Sprintf("Today is %s (%s).\n\nMeeting notes:\n%s", today.Format(deadline.Layout), today.Weekday(), notes)

	key := cache.KeyFrom(e.Model, system+"\n\n"+user)
	if e.Cache != nil {
		if raw, ok, _ := e.Cache.Get(ctx, key); ok {
			if list, err := parseItems(raw, today); err == nil {
				log.Debug().Str("key", key[:12]).Msg("llm cache hit")
				return list, nil
			}
		}
	}

	resp, err := e.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.1,
		N:           1,
	})
	if err != nil {
		return nil, fmt.Errorf("llm call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrModelOutput
	}
	list, err := parseItems([]byte(resp.Choices[0].Message.Content), today)
	if err != nil {
		return nil, err
	}
	if e.Cache != nil {
		if payload, err := json.Marshal(items.ExtractionResponse{Items: list}); err == nil {
			_ = e.Cache.Save(ctx, key, payload)
		}
	}
	return list, nil
}

// parseItems decodes a model reply, tolerating code fences and text around
// the JSON object, and fills defaults for empty fields.
func parseItems(raw []byte, today time.Time) ([]items.ActionItem, error) {
	s := strings.TrimSpace(string(raw))
	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, ErrModelOutput
	}
	var shape struct {
		Items *[]items.ActionItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), &shape); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelOutput, err)
	}
	if shape.Items == nil {
		return nil, fmt.Errorf("%w: missing items", ErrModelOutput)
	}
	out := make([]items.ActionItem, 0, len(*shape.Items))
	for _, it := range *shape.Items {
		it.Action = strings.TrimSpace(it.Action)
		if it.Action == "" {
			continue
		}
		it.Assignee = strings.TrimSpace(it.Assignee)
		switch strings.ToLower(it.Assignee) {
		case "", "no", "none", "n/a", "unassigned", "general":
			it.Assignee = items.GeneralAssignee
		}
		it.Deadline = normalizeDeadline(it.Deadline, today)
		out = append(out, it)
	}
	return out, nil
}

// normalizeDeadline keeps ISO dates, resolves phrases the model left
// unresolved ("next Friday") and maps anything else to NoDeadline.
func normalizeDeadline(s string, today time.Time) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, items.NoDeadline) || strings.EqualFold(s, "none") {
		return items.NoDeadline
	}
	if _, err := time.Parse(deadline.Layout, s); err == nil {
		return s
	}
	return deadline.Format(s, today, items.NoDeadline)
}
