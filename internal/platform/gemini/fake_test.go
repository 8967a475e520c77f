package gemini

import (
	"context"
	"sync"

	"google.golang.org/genai"
)

type fakeCall struct {
	Model  string
	Prompt string
	Config *genai.GenerateContentConfig
}

type fakeResult struct {
	Resp *genai.GenerateContentResponse
	Err  error
}

// fakeModels replays results in order and repeats the last one.
type fakeModels struct {
	mu      sync.Mutex
	results []fakeResult
	calls   []fakeCall
}

func (f *fakeModels) GenerateContent(
	_ context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prompt := ""
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		prompt = contents[0].Parts[0].Text
	}
	f.calls = append(f.calls, fakeCall{Model: model, Prompt: prompt, Config: config})

	i := len(f.calls) - 1
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i].Resp, f.results[i].Err
}

func (f *fakeModels) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func imageResponse(data []byte, mimeType string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "here is your image"},
				{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}},
			}},
		}},
	}
}
