package llm

// summarySystemPrompt keeps summaries short and grounded in the transcript.
const summarySystemPrompt = "You summarize video transcripts. Respond with a single short paragraph and nothing else."

const summaryUserTemplate = "Summarize the following text in a short paragraph:\n\n%s"

// answerSystemPrompt constrains answers to the retrieved transcript excerpts.
const answerSystemPrompt = "You answer questions about a video using only the transcript excerpts provided. " +
	"If the excerpts do not contain the answer, say so briefly."

const answerUserTemplate = "Transcript excerpts:\n\n%s\n\nQuestion: %s"
