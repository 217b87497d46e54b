package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/prepmate/internal/genapi"
	"github.com/pavelanni/prepmate/internal/llm/prompts"

	openai "github.com/sashabaranov/go-openai"
)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// completion holds the text of one chat completion plus the metadata returned as the
// endpoint's opaque data.
type completion struct {
	Text         string       `json:"-"`
	Model        string       `json:"model"`
	FinishReason string       `json:"finish_reason"`
	Usage        openai.Usage `json:"usage"`
}

type callSettings struct {
	temperature float32
	maxTokens   int
}

var (
	courseSettings    = callSettings{temperature: 0.7, maxTokens: 8192}
	flashcardSettings = callSettings{temperature: 0.7, maxTokens: 4096}
	questionsSettings = callSettings{temperature: 0.7, maxTokens: 2048}
	analysisSettings  = callSettings{temperature: 0.3, maxTokens: 2048}
)

var errNoChoices = errors.New("LLM returned no choices")

var _ genapi.Generator = (*Client)(nil)

// Generate serves a generation endpoint request in process. LLM failures are reported
// as unsuccessful responses; only context cancellation is returned as an error.
func (c *Client) Generate(ctx context.Context, req genapi.Request) (genapi.Response, error) {
	if err := req.Validate(); err != nil {
		return genapi.Failure(err.Error()), nil
	}

	var res completion
	var err error
	switch req.Action {
	case genapi.ActionGenerateCourse:
		res, err = c.course(ctx, req.Topic, req.Purpose, req.Difficulty)
	case genapi.ActionGenerateFlashcards:
		res, err = c.flashcards(ctx, req.Topic, req.Purpose, req.Difficulty)
	case genapi.ActionGenerateInterviewQuestions:
		res, err = c.questions(ctx, req.JobRole, req.TechStack, req.Experience, req.QuestionCount)
	case genapi.ActionAnalyzeInterview:
		res, err = c.analysis(ctx, req.JobRole, req.Question, req.Answer)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return genapi.Response{}, fmt.Errorf("%s: %w", req.Action, ctxErr)
		}
		return genapi.Failure(err.Error()), nil
	}

	data, err := json.Marshal(res)
	if err != nil {
		return genapi.Response{}, fmt.Errorf("encode completion metadata: %w", err)
	}
	return genapi.Success(res.Text, data), nil
}

func (c *Client) course(ctx context.Context, topic, purpose, difficulty string) (completion, error) {
	prompt, err := prompts.BuildCourse(prompts.CourseData{Topic: topic, Purpose: purpose, Difficulty: difficulty})
	if err != nil {
		return completion{}, err
	}
	return c.complete(ctx, prompt, courseSettings)
}

func (c *Client) flashcards(ctx context.Context, topic, purpose, difficulty string) (completion, error) {
	prompt, err := prompts.BuildFlashcards(prompts.CourseData{Topic: topic, Purpose: purpose, Difficulty: difficulty})
	if err != nil {
		return completion{}, err
	}
	return c.complete(ctx, prompt, flashcardSettings)
}

func (c *Client) questions(ctx context.Context, jobRole, techStack, experience string, count int) (completion, error) {
	prompt, err := prompts.BuildQuestions(prompts.QuestionsData{
		JobRole:    jobRole,
		TechStack:  techStack,
		Experience: experience,
		Count:      count,
	})
	if err != nil {
		return completion{}, err
	}
	return c.complete(ctx, prompt, questionsSettings)
}

func (c *Client) analysis(ctx context.Context, jobRole, question, answer string) (completion, error) {
	prompt, err := prompts.BuildAnalysis(prompts.AnalysisData{JobRole: jobRole, Question: question, Answer: answer})
	if err != nil {
		return completion{}, err
	}
	return c.complete(ctx, prompt, analysisSettings)
}

func (c *Client) complete(ctx context.Context, prompt string, s callSettings) (completion, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return completion{}, fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return completion{}, errNoChoices
	}

	choice := resp.Choices[0]
	slog.Debug("LLM response", "model", resp.Model, "finish_reason", choice.FinishReason,
		"completion_tokens", resp.Usage.CompletionTokens)

	return completion{
		Text:         strings.TrimSpace(choice.Message.Content),
		Model:        resp.Model,
		FinishReason: string(choice.FinishReason),
		Usage:        resp.Usage,
	}, nil
}
