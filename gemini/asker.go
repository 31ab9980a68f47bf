package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/dockb"
	"google.golang.org/genai"
)

// AskModel is the generation model used to answer questions.
const AskModel = "gemini-2.5-flash"

// Context limits for a single question.
const (
	DefaultContextDocuments = 8
	DefaultContextTokens    = 200000
)

// Ensure Asker implements dockb.Asker at compile time.
var _ dockb.Asker = (*Asker)(nil)

// Asker implements dockb.Asker using Google Gemini. The question is used as
// a search query and the best matching documents become the model context.
type Asker struct {
	client    *genai.Client
	retriever dockb.Retriever

	// Counter trims the context to MaxTokens when set.
	Counter      dockb.TokenCounter
	MaxDocuments int
	MaxTokens    int
}

// NewAsker creates a new Asker.
func NewAsker(client *genai.Client, retriever dockb.Retriever) *Asker {
	return &Asker{
		client:       client,
		retriever:    retriever,
		MaxDocuments: DefaultContextDocuments,
		MaxTokens:    DefaultContextTokens,
	}
}

// Ask answers a natural language question about a knowledge base.
func (a *Asker) Ask(ctx context.Context, kbName, question string) (string, error) {
	if kbName == "" {
		return "", dockb.Errorf(dockb.EINVALID, "knowledge base name required")
	}
	if strings.TrimSpace(question) == "" {
		return "", dockb.Errorf(dockb.EINVALID, "question required")
	}

	docs, err := a.retriever.Retrieve(ctx, kbName, question, a.MaxDocuments)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", dockb.Errorf(dockb.ENOTFOUND, "no documents in %q match the question", kbName)
	}

	docs, err = a.fit(ctx, docs)
	if err != nil {
		return "", err
	}

	result, err := a.client.Models.GenerateContent(ctx, AskModel,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: BuildUserPrompt(docs, question)}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return "", dockb.Errorf(dockb.EUNAVAILABLE, "gemini: %v", err)
	}
	if result == nil {
		return "", dockb.Errorf(dockb.EINTERNAL, "gemini returned nil result")
	}

	return result.Text(), nil
}

// fit drops trailing documents once the token budget is spent. The first
// document is always kept.
func (a *Asker) fit(ctx context.Context, docs []*dockb.Document) ([]*dockb.Document, error) {
	if a.Counter == nil || a.MaxTokens <= 0 {
		return docs, nil
	}

	total := 0
	for i, doc := range docs {
		n, err := a.Counter.CountTokens(ctx, documentContent(doc))
		if err != nil {
			return nil, err
		}
		total += n
		if total > a.MaxTokens && i > 0 {
			return docs[:i], nil
		}
	}
	return docs, nil
}

// BuildConfig returns the GenerateContentConfig for Gemini API calls.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.4)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You are a helpful assistant answering questions about product documentation. Answer based only on the documentation provided and cite the source URLs you used. If the answer is not in the documentation, say so.",
			}},
		},
		Temperature: &temp,
	}
}

// BuildUserPrompt builds the user prompt containing documentation and question.
func BuildUserPrompt(docs []*dockb.Document, question string) string {
	var sb strings.Builder
	sb.WriteString("<documentation>\n")
	for i, doc := range docs {
		title := doc.Title
		if title == "" {
			title = doc.ID
		}
		sb.WriteString("<document>\n")
		fmt.Fprintf(&sb, "<index>%d</index>\n", i+1)
		fmt.Fprintf(&sb, "<title>%s</title>\n", title)
		fmt.Fprintf(&sb, "<source>%s</source>\n", doc.ID)
		fmt.Fprintf(&sb, "<content>%s</content>\n", documentContent(doc))
		sb.WriteString("</document>\n")
	}
	sb.WriteString("</documentation>\n\n")
	fmt.Fprintf(&sb, "Question: %s", question)
	return sb.String()
}

func documentContent(doc *dockb.Document) string {
	if doc.Markdown != "" {
		return doc.Markdown
	}
	return doc.Text
}
