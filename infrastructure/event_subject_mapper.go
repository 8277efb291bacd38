package infrastructure

import (
	"fmt"

	"scoreboard/events"
)

// NATS subjects scoring events are published to
const (
	SubjectGameScored          = "scoreboard.games.scored"
	SubjectAchievementUnlocked = "scoreboard.achievements.unlocked"
	SubjectStreakCompleted     = "scoreboard.streaks.completed"
	SubjectGriefDetected       = "scoreboard.blacklist.grief_detected"

	// StreamName is the JetStream stream holding every scoreboard subject
	StreamName = "scoreboard_events"
)

// EventSubjectMapper maps scoring events to NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts an event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeGameScored:
		return SubjectGameScored
	case events.EventTypeAchievementUnlocked:
		return SubjectAchievementUnlocked
	case events.EventTypeStreakCompleted:
		return SubjectStreakCompleted
	case events.EventTypeGriefDetected:
		return SubjectGriefDetected
	default:
		return fmt.Sprintf("scoreboard.unknown.%s", event.Type())
	}
}

// GetAllSubjects returns all subjects this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		SubjectGameScored,
		SubjectAchievementUnlocked,
		SubjectStreakCompleted,
		SubjectGriefDetected,
	}
}
