package services

import "fmt"

// --- Chat responder prompt ---
const chatPromptTemplate = `You are a study assistant. Answer ONLY using the context.
If a section is not supported by the context, omit the section entirely (do NOT say "I don't know").
Format the response with short section headings, bullet points, and a final one-line summary. Use clear, exam-style phrasing.
Cite pages using (p. X) at the end of sentences.

Preferred structure (include only sections supported by context):
- Title
- Why do we need it?
- Main Idea
- How it works (Step-by-step)
- Key Points (Exam Lines)
- Summary (One-Line)

Context:
%s

Question: %s
Answer:`

func chatPrompt(context, question string) string {
	return fmt.Sprintf(chatPromptTemplate, context, question)
}

// --- Selection-explain prompt ---
const selectionPromptTemplate = `Explain the selected text using the page context. Use clear, exam-style bullets and end with a one-line summary.

Selected text:
%s

Page context:
%s

Answer:`

func selectionPrompt(selection, pageContext string) string {
	return fmt.Sprintf(selectionPromptTemplate, selection, pageContext)
}

// --- Full-document summary prompt ---
const summaryPromptTemplate = `Create an exam-focused full-document summary in about 1-2 pages.
Use clear headings and bullet points.
Include: main idea, key definitions, important processes/steps, and likely exam points.
Use only the context below.

Context:
%s

Summary:`

func summaryPrompt(context string) string {
	return fmt.Sprintf(summaryPromptTemplate, context)
}

// --- Flashcard generator prompt ---
const flashcardPromptTemplate = `Create 8 flashcards as JSON array. Each item: {"front": "...", "back": "...", "source_page": number}. Use only the context.

Context:
%s

JSON:`

func flashcardPrompt(context string) string {
	return fmt.Sprintf(flashcardPromptTemplate, context)
}

// --- Glossary generator prompt ---
const glossaryPromptTemplate = `Create a glossary as a JSON array. Each item: {"term": "...", "definition": "...", "source_page": number}. Use only the context. Return 12-16 terms.

Context:
%s

JSON:`

func glossaryPrompt(context string) string {
	return fmt.Sprintf(glossaryPromptTemplate, context)
}
