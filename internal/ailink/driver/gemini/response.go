package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type generateContentResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
}

type candidate struct {
	Content      *candidateContent `json:"content,omitempty"`
	FinishReason string            `json:"finishReason,omitempty"`
}

type candidateContent struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type listModelsResponse struct {
	Models        []modelEntry `json:"models"`
	NextPageToken string       `json:"nextPageToken,omitempty"`
}

type modelEntry struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Reason string `json:"reason,omitempty"`
		} `json:"details,omitempty"`
	} `json:"error"`
}

// ErrEmptyReply is returned when a 200 response carries no candidate text.
var ErrEmptyReply = errors.New("response contained no candidate text")

// replyText returns candidates[0].content.parts[0].text.
func replyText(body []byte) (string, error) {
	var parsed generateContentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked (%s)", ErrEmptyReply, parsed.PromptFeedback.BlockReason)
		}
		return "", ErrEmptyReply
	}
	first := parsed.Candidates[0]
	if first.Content == nil || len(first.Content.Parts) == 0 {
		if first.FinishReason != "" {
			return "", fmt.Errorf("%w: finish reason %s", ErrEmptyReply, first.FinishReason)
		}
		return "", ErrEmptyReply
	}
	text := first.Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// errorMessage extracts the service's error message, falling back to the raw body.
func errorMessage(body []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && strings.TrimSpace(parsed.Error.Message) != "" {
		msg := strings.TrimSpace(parsed.Error.Message)
		for _, d := range parsed.Error.Details {
			if d.Reason != "" {
				msg += " (" + d.Reason + ")"
				break
			}
		}
		return msg
	}
	return strings.TrimSpace(string(body))
}
