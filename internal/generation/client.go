// Package generation produces interview questions and scores answers, either
// through a language model or through deterministic offline heuristics.
package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rbright/candor/internal/interview"
)

// Client is the question and feedback capability consumed by the orchestrator.
type Client interface {
	GenerateQuestions(ctx context.Context, job interview.Job, n int) ([]interview.Question, error)
	AnalyzeResponse(ctx context.Context, q interview.Question, answer, expected string) (interview.Feedback, error)
}

// Generator is a single-prompt text completion backend.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Remote asks a Generator first and falls back to the offline heuristics on any
// call or parse failure. Only context cancellation is returned as an error.
type Remote struct {
	generator Generator
	fallback  Fallback
	logger    *slog.Logger
}

// NewRemote builds a model-backed client. The bank feeds the per-call fallback.
func NewRemote(generator Generator, bank *Bank, logger *slog.Logger) *Remote {
	return &Remote{
		generator: generator,
		fallback:  NewFallback(bank),
		logger:    logger,
	}
}

// Select returns a Remote client when generator is set and the session is online,
// otherwise the offline Fallback.
func Select(generator Generator, offline bool, bank *Bank, logger *slog.Logger) Client {
	if generator == nil || offline {
		return NewFallback(bank)
	}
	return NewRemote(generator, bank, logger)
}

func (r *Remote) GenerateQuestions(ctx context.Context, job interview.Job, n int) ([]interview.Question, error) {
	if n <= 0 {
		return []interview.Question{}, nil
	}
	raw, err := r.generator.Generate(ctx, questionPrompt(job, n))
	if err == nil {
		var questions []interview.Question
		questions, err = ParseQuestions(raw, n)
		if err == nil {
			return questions, nil
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, &interview.GenerationError{Operation: "generate questions", Err: ctxErr}
	}
	r.warn("generate questions", err)
	return r.fallback.GenerateQuestions(ctx, job, n)
}

func (r *Remote) AnalyzeResponse(ctx context.Context, q interview.Question, answer, expected string) (interview.Feedback, error) {
	local := Score(q.Text, answer, expected)
	raw, err := r.generator.Generate(ctx, feedbackPrompt(q, answer, expected))
	if err == nil {
		var fb interview.Feedback
		fb, err = ParseFeedback(raw)
		if err == nil {
			return completeFeedback(fb, local), nil
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return interview.Feedback{}, &interview.GenerationError{Operation: "analyze response", Err: ctxErr}
	}
	r.warn("analyze response", err)
	return local, nil
}

func (r *Remote) warn(operation string, err error) {
	if r.logger == nil {
		return
	}
	genErr := &interview.GenerationError{Operation: operation, Err: err}
	r.logger.Warn("generation failed; using offline fallback", "error", genErr.Error())
}

// completeFeedback fills lists the model left empty from the local score so
// strengths and improvements are never empty.
func completeFeedback(fb, local interview.Feedback) interview.Feedback {
	if len(fb.Strengths) == 0 {
		fb.Strengths = local.Strengths
	}
	if len(fb.Improvements) == 0 {
		fb.Improvements = local.Improvements
	}
	if strings.TrimSpace(fb.Text) == "" {
		fb.Text = local.Text
	}
	if fb.Keywords.Matched == nil && fb.Keywords.Missed == nil {
		fb.Keywords = local.Keywords
	}
	if fb.Sentiment == "" {
		fb.Sentiment = local.Sentiment
	}
	fb.Source = interview.SourceModel
	return fb
}

func questionPrompt(job interview.Job, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an experienced interviewer. Generate exactly %d interview questions for the job below.\n", n)
	b.WriteString("Mix behavioral, technical and scenario questions that match the posting.\n")
	b.WriteString("Return ONLY a JSON array. Each element must have the fields:\n")
	b.WriteString(`"text" (string), "category" (one of behavioral, technical, experience, scenario, situational, cultural), `)
	b.WriteString(`"difficulty" (one of easy, medium, hard), "expectedDurationSeconds" (integer).` + "\n\n")
	fmt.Fprintf(&b, "Job title: %s\n", strings.TrimSpace(job.Title))
	fmt.Fprintf(&b, "Job description:\n%s\n", strings.TrimSpace(job.Description))
	return b.String()
}

func feedbackPrompt(q interview.Question, answer, expected string) string {
	var b strings.Builder
	b.WriteString("You are an interview coach. Assess the candidate's answer to the question below.\n")
	b.WriteString("Return ONLY a JSON object with the fields:\n")
	b.WriteString(`"score" (integer 0-100), "feedbackText" (string), "strengths" (array of strings), `)
	b.WriteString(`"improvements" (array of strings), "keywords" ({"matched": [..], "missed": [..]}), `)
	b.WriteString(`"sentiment" (positive, neutral or negative), "confidence" (integer 0-100).` + "\n\n")
	fmt.Fprintf(&b, "Question: %s\n", q.Text)
	if strings.TrimSpace(expected) != "" {
		fmt.Fprintf(&b, "Expected answer: %s\n", strings.TrimSpace(expected))
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = "(no answer was transcribed)"
	}
	fmt.Fprintf(&b, "Answer: %s\n", answer)
	return b.String()
}
