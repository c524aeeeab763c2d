package biz

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lexfisc/lexfisc/internal/model"
	"github.com/lexfisc/lexfisc/pkg/llm"
)

// fakeChat implements llm.ChatProvider with a canned response.
type fakeChat struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeChat) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	return f.response, f.err
}

func (f *fakeChat) Generate(ctx context.Context, prompt, modelName string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeChat) Name() string { return "fake" }

const testPrompt = "Excerpts:\n{{context}}\n\nQuestion: {{question}}\n\nAnswer:"

func retrievedChunks() []model.RetrievedChunk {
	return []model.RetrievedChunk{
		{ChunkID: 1, DocumentID: "doc-1", Title: "VAT Guide", Ordinal: 3, Content: "The standard VAT rate is 21%.", Score: 0.9},
		{ChunkID: 2, DocumentID: "doc-2", Title: "Income Tax", Ordinal: 1, Content: "Income tax brackets for 2026.", Score: 0.7},
	}
}

func TestSynthesizeRefusesWithoutChunks(t *testing.T) {
	chat := &fakeChat{response: "should not be called"}
	s := NewSynthesizer(chat, testPrompt)

	answer, err := s.Synthesize(context.Background(), "What is the VAT rate?", nil)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if !answer.Refused {
		t.Error("expected refusal with empty retrieval")
	}
	if answer.Text != RefusalAnswer {
		t.Errorf("expected fixed refusal sentence, got %q", answer.Text)
	}
	if len(chat.prompts) != 0 {
		t.Error("refusal must not call the model")
	}
	if len(answer.Citations) != 0 {
		t.Errorf("refusal carries no citations, got %d", len(answer.Citations))
	}
}

func TestSynthesizePromptContainsExcerpts(t *testing.T) {
	chat := &fakeChat{response: "The rate is 21% [VAT Guide §3]."}
	s := NewSynthesizer(chat, testPrompt)

	_, err := s.Synthesize(context.Background(), "What is the VAT rate?", retrievedChunks())
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(chat.prompts) != 1 {
		t.Fatalf("expected one completion call, got %d", len(chat.prompts))
	}
	prompt := chat.prompts[0]
	for _, want := range []string{"[VAT Guide §3]", "The standard VAT rate is 21%.", "[Income Tax §1]", "What is the VAT rate?"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSynthesizePropagatesCompletionError(t *testing.T) {
	chat := &fakeChat{err: errors.New("model offline")}
	s := NewSynthesizer(chat, testPrompt)

	_, err := s.Synthesize(context.Background(), "q", retrievedChunks())
	if err == nil {
		t.Fatal("expected error when completion fails")
	}
}

func TestParseCitationsResolved(t *testing.T) {
	answer := "The rate is 21% [VAT Guide §3]. Brackets changed [Income Tax §1]."
	citations := ParseCitations(answer, retrievedChunks())

	if len(citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(citations))
	}
	if citations[0].Title != "VAT Guide" || citations[0].Ordinal != 3 || !citations[0].Resolved {
		t.Errorf("first citation not resolved: %+v", citations[0])
	}
	if citations[0].DocumentID != "doc-1" || citations[0].ChunkID != 1 {
		t.Errorf("first citation missing chunk linkage: %+v", citations[0])
	}
	if citations[1].Title != "Income Tax" || !citations[1].Resolved {
		t.Errorf("second citation not resolved: %+v", citations[1])
	}
}

func TestParseCitationsDeduplicates(t *testing.T) {
	answer := "It is 21% [VAT Guide §3]. As stated [VAT Guide §3], the rate applies broadly."
	citations := ParseCitations(answer, retrievedChunks())

	if len(citations) != 1 {
		t.Fatalf("duplicate markers must collapse to one citation, got %d", len(citations))
	}
	if citations[0].Title != "VAT Guide" || citations[0].Ordinal != 3 {
		t.Errorf("unexpected citation: %+v", citations[0])
	}
}

func TestParseCitationsUnresolvedKept(t *testing.T) {
	answer := "See [Unknown Doc §9] for details."
	citations := ParseCitations(answer, retrievedChunks())

	if len(citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(citations))
	}
	if citations[0].Resolved {
		t.Error("marker with no matching chunk must be unresolved")
	}
	if citations[0].Title != "Unknown Doc" || citations[0].Ordinal != 9 {
		t.Errorf("unexpected citation: %+v", citations[0])
	}
}

func TestParseCitationsFirstSeenOrder(t *testing.T) {
	answer := "[Income Tax §1] first, then [VAT Guide §3], then [Income Tax §1] again."
	citations := ParseCitations(answer, retrievedChunks())

	if len(citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(citations))
	}
	if citations[0].Title != "Income Tax" || citations[1].Title != "VAT Guide" {
		t.Errorf("citations not in first-seen order: %+v", citations)
	}
}

func TestParseCitationsNoMarkers(t *testing.T) {
	citations := ParseCitations("An answer with no markers at all.", retrievedChunks())
	if len(citations) != 0 {
		t.Errorf("expected no citations, got %d", len(citations))
	}
}
