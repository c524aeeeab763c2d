package biz

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lexfisc/lexfisc/internal/model"
	"github.com/lexfisc/lexfisc/pkg/llm"
	"github.com/lexfisc/lexfisc/pkg/utils/errors"
)

// RefusalAnswer is returned verbatim when retrieval yields no usable
// excerpts. No completion call is made in that case.
const RefusalAnswer = "I cannot answer this question from the available sources."

// citationMarker matches inline markers of the form [<title> §<number>].
var citationMarker = regexp.MustCompile(`\[([^\[\]§]+?) §(\d+)\]`)

// Synthesizer turns retrieved chunks into a cited answer via the chat
// provider.
type Synthesizer struct {
	chat         llm.ChatProvider
	systemPrompt string
}

// NewSynthesizer creates a synthesizer using the given prompt template.
// The template must contain {{context}} and {{question}} placeholders.
func NewSynthesizer(chat llm.ChatProvider, systemPrompt string) *Synthesizer {
	return &Synthesizer{chat: chat, systemPrompt: systemPrompt}
}

// Synthesize generates a grounded answer for the question. With zero
// retrieved chunks it returns the fixed refusal without calling the
// model.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, chunks []model.RetrievedChunk) (*model.Answer, error) {
	if len(chunks) == 0 {
		return &model.Answer{
			Text:      RefusalAnswer,
			Citations: []model.Citation{},
			Refused:   true,
		}, nil
	}

	prompt := strings.ReplaceAll(s.systemPrompt, "{{context}}", buildContext(chunks))
	prompt = strings.ReplaceAll(prompt, "{{question}}", question)

	answer, err := s.chat.Generate(ctx, prompt, "")
	if err != nil {
		return nil, errors.ErrSynthesisFailed.WithCause(fmt.Errorf("completion failed: %w", err))
	}

	return &model.Answer{
		Text:      answer,
		Citations: ParseCitations(answer, chunks),
		Refused:   false,
	}, nil
}

// buildContext renders each chunk as an excerpt headed by its citation
// marker, so the model can cite by copying the header.
func buildContext(chunks []model.RetrievedChunk) string {
	var b strings.Builder
	for _, c := range chunks {
		fmt.Fprintf(&b, "[%s §%d]\n%s\n\n", c.Title, c.Ordinal, c.Content)
	}
	return b.String()
}

// ParseCitations extracts citation markers from the answer text and
// resolves them against the retrieved chunks. Duplicates collapse to one
// citation in first-seen order; markers matching no retrieved chunk are
// kept with Resolved set to false.
func ParseCitations(answer string, chunks []model.RetrievedChunk) []model.Citation {
	type key struct {
		title   string
		ordinal int
	}

	retrieved := make(map[key]model.RetrievedChunk, len(chunks))
	for _, c := range chunks {
		retrieved[key{c.Title, c.Ordinal}] = c
	}

	seen := make(map[key]bool)
	citations := []model.Citation{}
	for _, match := range citationMarker.FindAllStringSubmatch(answer, -1) {
		title := strings.TrimSpace(match[1])
		ordinal, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}

		k := key{title, ordinal}
		if seen[k] {
			continue
		}
		seen[k] = true

		citation := model.Citation{Title: title, Ordinal: ordinal}
		if chunk, ok := retrieved[k]; ok {
			citation.DocumentID = chunk.DocumentID
			citation.ChunkID = chunk.ChunkID
			citation.Snippet = snippet(chunk.Content, 200)
			citation.Resolved = true
		}
		citations = append(citations, citation)
	}

	return citations
}

func snippet(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "…"
}
