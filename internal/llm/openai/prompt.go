package openai

import (
	"fmt"

	"resume-optimizer-backend/internal/llm"
)

const (
	systemPromptJSON        = "You are a structured data extraction engine. Respond with JSON only. Output must contain exactly the requested fields."
	systemPromptFixJSON     = "You are a JSON repair tool. Return only valid JSON."
	systemPromptCoverLetter = "You are a professional writing assistant. Respond with plain text only."
)

func extractionMessages(instructions, userContent string) []chatMessage {
	return []chatMessage{
		{Role: "system", Content: systemPromptJSON},
		{Role: "developer", Content: instructions},
		{Role: "user", Content: userContent},
	}
}

func coverLetterMessages(input llm.CoverLetterInput) []chatMessage {
	user := fmt.Sprintf("Resume Text:\n%s\n\nJob Posting Text:\n%s", input.ResumeText, input.JobPostingText)
	return []chatMessage{
		{Role: "system", Content: systemPromptCoverLetter},
		{Role: "developer", Content: llm.CoverLetterPrompt(input.Tone, input.Length)},
		{Role: "user", Content: user},
	}
}

func fixJSONMessages(raw []byte) []chatMessage {
	return []chatMessage{
		{Role: "system", Content: systemPromptFixJSON},
		{Role: "user", Content: fmt.Sprintf("Fix this so it is valid JSON. Output JSON only:\n%s", string(raw))},
	}
}
