package summarizer

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const summaryPrompt = `You are an assistant that summarizes recorded session transcripts.

Requirements:
- Start with a one-sentence title describing the topic of the session
- Produce a concise summary paragraph of 5-7 sentences, grounding every sentence in the transcript text
- After the summary, include an "Action Items:" section only when the transcript clearly supports it, with at most five "-" bullets
- If no real follow-up is required, write "Action Items: none."
- Use markdown formatting: headings, bullet points, bold for key terms

Transcript:
---
%s
---`

// Summarize sends the transcript to Gemini and returns the markdown
// summary. Rotates API keys on 429 / quota errors.
func (s *implSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if len(s.apiKeys) == 0 {
		return "", fmt.Errorf("no gemini api keys configured")
	}

	prompt := fmt.Sprintf(summaryPrompt, transcript)

	attempts := len(s.apiKeys)
	var lastErr error

	for range attempts {
		key, idx := s.activeKey()

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			s.rotateKey()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
		if err != nil {
			errMsg := err.Error()
			if strings.Contains(errMsg, "429") || strings.Contains(errMsg, "quota") || strings.Contains(errMsg, "RESOURCE_EXHAUSTED") {
				s.logger.Warn(ctx, "Key %d rate limited, rotating...", idx+1)
				s.rotateKey()
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var text string
			for _, part := range result.Candidates[0].Content.Parts {
				if part.Text != "" {
					text += part.Text
				}
			}
			if strings.TrimSpace(text) == "" {
				return "", fmt.Errorf("empty response from Gemini")
			}
			return strings.TrimSpace(text), nil
		}

		return "", fmt.Errorf("empty response from Gemini")
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (s *implSummarizer) activeKey() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiKeys[s.currentKey], s.currentKey
}

func (s *implSummarizer) rotateKey() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
}
