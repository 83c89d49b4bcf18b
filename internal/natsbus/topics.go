package natsbus

import "fmt"

// Topic patterns for session event pub/sub.

func TopicSessionEvents(sessionID string) string {
	return fmt.Sprintf("events.session.%s", sessionID)
}

func TopicWorkerEvents(sessionID, kind string) string {
	return fmt.Sprintf("events.session.%s.worker.%s", sessionID, kind)
}

const (
	// TopicEventsAll matches every event published by the engine.
	TopicEventsAll = "events.>"
	// TopicEventsSessions matches session-level events across sessions.
	TopicEventsSessions = "events.session.*"
)
