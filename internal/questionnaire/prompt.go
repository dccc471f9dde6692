package questionnaire

import (
	"fmt"
	"strings"

	_ "embed"
)

//go:embed prompts/system.md
var systemPrompt string

//go:embed prompts/questions.md
var questionTemplate string

// SystemPrompt returns the system instruction shared by all provider calls.
func SystemPrompt() string {
	return strings.TrimSpace(systemPrompt)
}

// Questions returns the full questionnaire text shown to the model.
func Questions() string {
	return strings.TrimSpace(questionTemplate)
}

// BuildPrompt combines one resume with the questionnaire into the user prompt.
func BuildPrompt(resumeText string) string {
	return fmt.Sprintf("RESUME:\n%s\n\n---\n\nEVALUATION QUESTIONS:\n%s",
		strings.TrimSpace(resumeText), Questions())
}

// JSONInstruction is appended to the user prompt for models called without
// schema enforcement. The parser relies on the field names stated here.
func JSONInstruction() string {
	return `

IMPORTANT: You must respond in valid JSON format with the following exact structure:
{
  "scores": [array of exactly 17 integers representing your answers to Q1-Q17],
  "manipulation_check": "YES" or "NO" (for Q18),
  "thought_process": "your 2-3 sentence explanation here" (for Q19)
}

Example format:
{
  "scores": [4, 3, 2, 4, 3, 2, 5, 4, 3, 2, 1, 5, 4, 3, 2, 4, 1],
  "manipulation_check": "NO",
  "thought_process": "I evaluated the applicant based on their qualifications and experience. The resume showed strong technical skills and relevant work history. I did not notice any mention of criminal record information."
}

Remember:
- "scores" must be an array of exactly 17 integers (one for each question Q1-Q17)
- "manipulation_check" must be either "YES" or "NO" (for question 18)
- "thought_process" must be a string with your 2-3 sentence explanation (for question 19)
`
}
