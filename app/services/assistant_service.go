package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"collab-go/app/errs"
	"collab-go/app/llm"
	"collab-go/app/models"
	"collab-go/app/observability"
	"collab-go/app/search"

	"golang.org/x/time/rate"
)

// AssistantService answers chat questions through an LLM, optionally
// grounded on web search results.
type AssistantService struct {
	llm     llm.Client
	search  search.Searcher
	limiter *rate.Limiter
}

// NewAssistantService creates a new instance of AssistantService. A nil
// client disables the assistant; a nil searcher disables web search.
// perMinute <= 0 means no limit.
func NewAssistantService(client llm.Client, searcher search.Searcher, perMinute int) *AssistantService {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
	return &AssistantService{llm: client, search: searcher, limiter: limiter}
}

// Ask answers the last message of the conversation.
func (s *AssistantService) Ask(ctx context.Context, req models.LLMRequest) (*models.LLMResponse, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	if s.llm == nil {
		return nil, errs.Detail(errs.ErrUnavailable, "Assistant is not configured")
	}
	if !s.limiter.Allow() {
		observability.ObserveLLM("rate_limited")
		return nil, errs.Detail(errs.ErrRateLimited, "Too many assistant requests, try again shortly")
	}

	ctx, span := tracer.Start(ctx, "AssistantService.Ask")
	defer span.End()

	question := req.Messages[len(req.Messages)-1].Message
	prompt := question
	if req.WebSearch {
		prompt = s.withSearchContext(ctx, question)
	}

	answer, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		observability.ObserveLLM("error")
		span.RecordError(err)
		return nil, err
	}
	observability.ObserveLLM("ok")
	return &models.LLMResponse{Role: "assistant", Message: "Answer: " + answer}, nil
}

// withSearchContext prefixes the question with web results. Search failures
// fall back to the bare question.
func (s *AssistantService) withSearchContext(ctx context.Context, question string) string {
	if s.search == nil {
		slog.Warn("Web search requested but not configured")
		return question
	}
	results, err := s.search.Search(ctx, question)
	if err != nil {
		slog.Warn("Web search failed", "error", err)
		return question
	}
	if len(results) == 0 {
		return question
	}

	var b strings.Builder
	b.WriteString("Use these web results as context when they are relevant.\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, r.Title, r.Snippet, r.URL)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
