package synthesis

import (
	"fmt"
	"strings"

	"github.com/answerdesk/answerdesk/internal/model"
)

// buildPrompt lays out the retrieved chunks as numbered context blocks.
// The block numbers are the citation indices: they match the 1-based
// order of the sources list in the metadata event.
func buildPrompt(query string, results []model.RetrievedResult) string {
	var sb strings.Builder
	sb.WriteString("You are a support assistant answering questions from an internal knowledge base.\n")
	sb.WriteString("Answer using ONLY the context below. If the context does not cover the question, say so.\n")
	sb.WriteString("Mark every claim with a bracketed citation index like [1] referencing the context block it came from.\n")
	sb.WriteString("When the answer is a procedure, format it as numbered steps, one per line, starting with \"1. \".\n\n")
	sb.WriteString("Context:\n")
	for i, result := range results {
		fmt.Fprintf(&sb, "[%d] %s\n\n", i+1, result.Chunk.Text)
	}
	fmt.Fprintf(&sb, "Question: %s\n", query)
	return sb.String()
}

func suggestionPrompt(query, answer string) string {
	var sb strings.Builder
	sb.WriteString("A user asked a support question and received an answer.\n")
	sb.WriteString("Propose 3-4 short follow-up questions the user is likely to ask next.\n")
	sb.WriteString("Reply with a JSON array of strings and nothing else.\n\n")
	fmt.Fprintf(&sb, "Question: %s\n\nAnswer: %s\n", query, answer)
	return sb.String()
}
