package generation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/rbright/candor/internal/interview"
)

type scriptedGenerator struct {
	calls   atomic.Int32
	output  string
	err     error
	prompts []string
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	g.prompts = append(g.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return g.output, g.err
}

var sampleJob = interview.Job{Title: "Platform Engineer", Description: "Kubernetes and Terraform on AWS."}

func TestSelect(t *testing.T) {
	gen := &scriptedGenerator{}
	require.IsType(t, Fallback{}, Select(nil, false, nil, nil))
	require.IsType(t, Fallback{}, Select(gen, true, nil, nil))
	require.IsType(t, &Remote{}, Select(gen, false, nil, nil))
}

func TestRemoteQuestionsFromModel(t *testing.T) {
	gen := &scriptedGenerator{output: "Here you go:\n```json\n[" +
		`{"text":"How do you size node pools?","category":"technical","difficulty":"hard","expectedDurationSeconds":90},` +
		`{"question":"Tell me about an outage.","category":"Behavioral"},` +
		`{"text":"  "},` +
		`{"text":"Why platform work?","category":"motivation","difficulty":"??"},` +
		`{"text":"Extra question"}` +
		"]\n```"}
	client := NewRemote(gen, nil, nil)

	questions, err := client.GenerateQuestions(context.Background(), sampleJob, 3)
	require.NoError(t, err)
	require.Len(t, questions, 3)
	require.Equal(t, interview.Question{
		ID: "q1", Text: "How do you size node pools?", Category: interview.CategoryTechnical,
		Difficulty: interview.DifficultyHard, ExpectedDurationSeconds: 90,
	}, questions[0])
	require.Equal(t, "Tell me about an outage.", questions[1].Text)
	require.Equal(t, interview.CategoryBehavioral, questions[1].Category)
	require.Equal(t, interview.CategoryBehavioral, questions[2].Category)
	require.Equal(t, interview.DifficultyMedium, questions[2].Difficulty)
	require.Equal(t, "q3", questions[2].ID)
	require.Contains(t, gen.prompts[0], "exactly 3")
	require.Contains(t, gen.prompts[0], "Kubernetes and Terraform on AWS.")
}

func TestRemoteQuestionsFallBack(t *testing.T) {
	want := DefaultBank().Questions(sampleJob, 3)

	tests := []struct {
		name string
		gen  *scriptedGenerator
	}{
		{name: "call error", gen: &scriptedGenerator{err: errors.New("rate limited")}},
		{name: "not json", gen: &scriptedGenerator{output: "I cannot help with that."}},
		{name: "malformed json", gen: &scriptedGenerator{output: `[{"text": "unterminated`}},
		{name: "no usable questions", gen: &scriptedGenerator{output: `{"questions": [{"text": ""}]}`}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			questions, err := NewRemote(tc.gen, nil, nil).GenerateQuestions(context.Background(), sampleJob, 3)
			require.NoError(t, err)
			require.Equal(t, want, questions)
			require.Equal(t, int32(1), tc.gen.calls.Load())
		})
	}
}

func TestRemoteQuestionsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRemote(&scriptedGenerator{}, nil, nil).GenerateQuestions(ctx, sampleJob, 3)
	var genErr *interview.GenerationError
	require.ErrorAs(t, err, &genErr)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRemoteAnalyzeResponse(t *testing.T) {
	q := interview.Question{ID: "q1", Text: "Describe a challenge"}

	gen := &scriptedGenerator{output: `{"score": 130.4, "feedbackText": "Great.", "strengths": ["Clear"], "improvements": [], "sentiment": "POSITIVE", "confidence": 77}`}
	fb, err := NewRemote(gen, nil, nil).AnalyzeResponse(context.Background(), q, "We shipped it.", "")
	require.NoError(t, err)
	require.Equal(t, 100, fb.Score)
	require.Equal(t, []string{"Clear"}, fb.Strengths)
	require.NotEmpty(t, fb.Improvements)
	require.Equal(t, "positive", fb.Sentiment)
	require.Equal(t, 77, fb.Confidence)
	require.Equal(t, interview.SourceModel, fb.Source)
	require.Contains(t, gen.prompts[0], "Answer: We shipped it.")

	gen = &scriptedGenerator{output: `{"feedbackText": "no score here"}`}
	fb, err = NewRemote(gen, nil, nil).AnalyzeResponse(context.Background(), q, "", "")
	require.NoError(t, err)
	require.Equal(t, Score(q.Text, "", ""), fb)
	require.Contains(t, gen.prompts[0], "(no answer was transcribed)")
}

func TestCleanJSON(t *testing.T) {
	require.Equal(t, `{"a":1}`, CleanJSON("```json\n{\"a\":1}\n```"))
	require.Equal(t, `[1]`, CleanJSON("```\n[1]\n```"))
	require.Equal(t, `{"a":1}`, CleanJSON(`  {"a":1} `))
}

func TestParseFeedbackErrors(t *testing.T) {
	_, err := ParseFeedback("no json")
	require.Error(t, err)

	fb, err := ParseFeedback(`{"score": -4, "feedback": "alt key", "strengths": [" ", "Good"], "sentiment": "meh"}`)
	require.NoError(t, err)
	require.Zero(t, fb.Score)
	require.Equal(t, "alt key", fb.Text)
	require.Equal(t, []string{"Good"}, fb.Strengths)
	require.Equal(t, "neutral", fb.Sentiment)

	fb, err = ParseFeedback(`{"score": 1e20, "confidence": 1e300, "feedback": "huge"}`)
	require.NoError(t, err)
	require.Equal(t, 100, fb.Score)
	require.Equal(t, 100, fb.Confidence)

	fb, err = ParseFeedback(`{"score": -1e20, "confidence": 72.6, "feedback": "tiny"}`)
	require.NoError(t, err)
	require.Zero(t, fb.Score)
	require.Equal(t, 73, fb.Confidence)
}

type fakeLLM struct {
	messages []llms.MessageContent
	resp     *llms.ContentResponse
	err      error
}

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	return f.resp, f.err
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLangChainGenerate(t *testing.T) {
	llm := &fakeLLM{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "[]"}}}}
	text, err := NewLangChain(llm).Generate(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "[]", text)
	require.Len(t, llm.messages, 1)
	require.Equal(t, llms.ChatMessageTypeHuman, llm.messages[0].Role)
	require.Equal(t, llms.TextContent{Text: "hello"}, llm.messages[0].Parts[0])

	_, err = NewLangChain(&fakeLLM{resp: &llms.ContentResponse{}}).Generate(context.Background(), "hello")
	require.Error(t, err)

	_, err = NewLangChain(&fakeLLM{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: " "}}}}).Generate(context.Background(), "hello")
	require.ErrorContains(t, err, "empty text")

	_, err = NewLangChain(&fakeLLM{err: errors.New("quota")}).Generate(context.Background(), "hello")
	require.ErrorContains(t, err, "quota")
}

func TestNewProviderValidation(t *testing.T) {
	_, err := NewProvider(context.Background(), ProviderConfig{Provider: ProviderOpenAI})
	require.ErrorContains(t, err, "api key is empty")

	_, err = NewProvider(context.Background(), ProviderConfig{Provider: "cohere", APIKey: "k"})
	require.ErrorContains(t, err, `unknown generation provider "cohere"`)
}
