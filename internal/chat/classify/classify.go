// Package classify tags chat exchanges for the insights report.
package classify

import (
	"regexp"
	"strings"

	"medbee/internal/chat/models"
)

const (
	maxTopics      = 5
	minTopicLength = 4
)

var (
	symptomPattern    = regexp.MustCompile(`(?i)symptoms?|pain|feeling|fever|cough|headache`)
	reportPattern     = regexp.MustCompile(`(?i)report|test results?|lab|diagnosis`)
	medicationPattern = regexp.MustCompile(`(?i)medicine|medication|drug|prescription|dose`)

	dontKnowPattern      = regexp.MustCompile(`(?i)I (don't|cannot|can't) (know|determine|say|tell|assist|help)|unable to`)
	clarificationPattern = regexp.MustCompile(`(?i)could you (clarify|explain|provide|specify)|need more information`)
	suggestionPattern    = regexp.MustCompile(`(?i)suggest|recommend|try|consider|might want to`)

	wordPattern = regexp.MustCompile(`\w+`)
)

// Message classifies a user message. Earlier categories win.
func Message(msg string) models.MessageType {
	switch {
	case symptomPattern.MatchString(msg):
		return models.MessageSymptomQuery
	case reportPattern.MatchString(msg):
		return models.MessageReportRequest
	case medicationPattern.MatchString(msg):
		return models.MessageMedicationQuery
	default:
		return models.MessageGeneralQuestion
	}
}

// Response classifies an assistant reply. Earlier categories win.
func Response(reply string) models.ResponseType {
	switch {
	case dontKnowPattern.MatchString(reply):
		return models.ResponseDontKnow
	case clarificationPattern.MatchString(reply):
		return models.ResponseClarification
	case suggestionPattern.MatchString(reply):
		return models.ResponseSuggestion
	default:
		return models.ResponseOther
	}
}

// Topics returns the first five lowercase words longer than three characters.
func Topics(msg string) []string {
	topics := make([]string, 0, maxTopics)
	for _, word := range wordPattern.FindAllString(strings.ToLower(msg), -1) {
		if len(word) < minTopicLength {
			continue
		}
		topics = append(topics, word)
		if len(topics) == maxTopics {
			break
		}
	}
	return topics
}
