package prompt

import (
	"fmt"
	"strings"
)

const (
	// RefusalPhrase is what the model must say when the context lacks the answer.
	RefusalPhrase = "I don't have enough information to answer that question."

	// EmptyContext stands in for the context block when nothing was retrieved.
	EmptyContext = "No documents found."

	documentSeparator = "\n\n---\n\n"
	unknownSource     = "unknown"
)

// Analysis asks the model for a yes/no verdict on whether q is too vague to search.
func Analysis(q string) string {
	var prompt strings.Builder
	prompt.WriteString("\nGiven the following user question, answer ONLY with \"yes\" or \"no\": ")
	prompt.WriteString("Does this question need to be clarified, specified, or improved to help a search system retrieve relevant documents? ")
	prompt.WriteString("If the question is clear, answer \"no\". If vague or too broad, answer \"yes\".\n\n")
	fmt.Fprintf(&prompt, "User question: %q\n", q)
	return prompt.String()
}

// Refine asks for a single rewritten search query.
func Refine(q string) string {
	var prompt strings.Builder
	prompt.WriteString("Given this user question, generate a more specific search query that would help find relevant documents.\n\n")
	fmt.Fprintf(&prompt, "User question: %q\n\n", q)
	prompt.WriteString("Generate a refined search query (just the query, no explanation):")
	return prompt.String()
}

// Document renders one retrieved document as a numbered, source-tagged block.
// index is 1-based.
func Document(index int, source, content string) string {
	if source == "" {
		source = unknownSource
	}
	return fmt.Sprintf("[Document %d] (Source: %s)\n%s", index, source, content)
}

// Context joins documents into the block handed to the model.
func Context(documents []string) string {
	if len(documents) == 0 {
		return EmptyContext
	}
	return strings.Join(documents, documentSeparator)
}

// System builds the grounding instruction around context.
func System(context string) string {
	var prompt strings.Builder
	prompt.WriteString("You are a helpful assistant that answers questions based on the provided context.\n\n")
	prompt.WriteString("Rules:\n")
	prompt.WriteString("- Answer ONLY using information from the context below\n")
	fmt.Fprintf(&prompt, "- If the answer is not in the context, say %q\n", RefusalPhrase)
	prompt.WriteString("- Be concise but complete\n")
	prompt.WriteString("- Use bullet points for lists\n")
	prompt.WriteString("- Cite document sources when possible\n\n")
	prompt.WriteString("Context:\n")
	prompt.WriteString(context)
	return prompt.String()
}
