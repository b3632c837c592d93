package models

// HistoryResponse is the body of GET history.
type HistoryResponse struct {
	Messages []Message `json:"messages" validate:"required,dive"`
}

// SendResponse is the body of POST send. Both messages are optional; a
// successful status with a well-formed object is the confirmation.
type SendResponse struct {
	UserMessage      *Message `json:"userMessage,omitempty"`
	AssistantMessage *Message `json:"assistantMessage,omitempty"`
}

// DetailsResponse is the body of POST details.
type DetailsResponse struct {
	Details *DetailEnrichmentResult `json:"details" validate:"required"`
}
