package models

import (
	"time"

	id "medbee/pkg/domain"
	"medbee/pkg/platform/validation"
)

type MessageType string

const (
	MessageSymptomQuery    MessageType = "SYMPTOM_QUERY"
	MessageReportRequest   MessageType = "REPORT_REQUEST"
	MessageMedicationQuery MessageType = "MEDICATION_QUERY"
	MessageGeneralQuestion MessageType = "GENERAL_QUESTION"
)

type ResponseType string

const (
	ResponseDontKnow      ResponseType = "DONT_KNOW"
	ResponseClarification ResponseType = "CLARIFICATION"
	ResponseSuggestion    ResponseType = "SUGGESTION"
	ResponseOther         ResponseType = "OTHER"
)

type Metadata struct {
	QueryTopics      []string `json:"queryTopics"`
	SuggestedActions []string `json:"suggestedActions"`
	Confidence       *float64 `json:"confidence,omitempty"`
}

// Message is one stored exchange: the user's message and the assistant's
// reply, with their classification.
type Message struct {
	ID             id.RecordID  `json:"_id"`
	UserID         id.UserID    `json:"userId"`
	Message        string       `json:"message"`
	AIResponse     string       `json:"aiResponse"`
	MessageType    MessageType  `json:"messageType"`
	AIResponseType ResponseType `json:"aiResponseType"`
	Metadata       Metadata     `json:"metadata"`
	Timestamp      time.Time    `json:"timestamp"`
}

type SendRequest struct {
	Message string `json:"message" validate:"notblank" msg:"Message is required"`
}

func (r *SendRequest) Validate() []string { return validation.Messages(r) }

type LogRequest struct {
	Message    string `json:"message" validate:"notblank" msg:"Message is required"`
	AIResponse string `json:"aiResponse" validate:"notblank" msg:"AI response is required"`
}

func (r *LogRequest) Validate() []string { return validation.Messages(r) }

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type History struct {
	Messages   []*Message `json:"messages"`
	Pagination Pagination `json:"pagination"`
}

// Count is a grouped tally keyed by message type, response type or topic.
type Count struct {
	Key   string `json:"_id"`
	Count int    `json:"count"`
}

type Effectiveness struct {
	TotalQueries int     `json:"totalQueries"`
	SuccessRate  float64 `json:"successRate"`
	DontKnowRate float64 `json:"dontKnowRate"`
}

type Insights struct {
	Timeframe     string        `json:"timeframe"`
	MessageTypes  []Count       `json:"messageTypes"`
	ResponseTypes []Count       `json:"responseTypes"`
	CommonTopics  []Count       `json:"commonTopics"`
	Effectiveness Effectiveness `json:"effectiveness"`
}

// Stats is the chat activity summary shown to admins.
type Stats struct {
	Total         int `json:"total"`
	LastSevenDays int `json:"lastSevenDays"`
	AIResponses   int `json:"aiResponses"`
}

func (m *Message) RowID() id.RecordID { return m.ID }
func (m *Message) Owner() id.UserID   { return m.UserID }

func (m *Message) Clone() *Message {
	c := *m
	c.Metadata.QueryTopics = append([]string(nil), m.Metadata.QueryTopics...)
	c.Metadata.SuggestedActions = append([]string(nil), m.Metadata.SuggestedActions...)
	if m.Metadata.Confidence != nil {
		conf := *m.Metadata.Confidence
		c.Metadata.Confidence = &conf
	}
	return &c
}
