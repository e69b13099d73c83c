package scanner

import (
	"github.com/yourusername/gap-scanner/internal/models"
)

// EventType identifies the kind of progress event emitted during a scan.
type EventType string

const (
	EventProgress EventType = "progress"
	EventFinished EventType = "finished"
	EventError    EventType = "error"
)

// ProgressEvent is one message on a scan's progress stream. Progress events
// carry the completion fraction and the date about to be processed; the
// terminal event carries either the full result set or an error message.
type ProgressEvent struct {
	Type        EventType               `json:"type"`
	Progress    float64                 `json:"progress,omitempty"`
	CurrentDate string                  `json:"currentDate,omitempty"`
	Results     []models.GapUpCandidate `json:"results,omitempty"`
	Message     string                  `json:"message,omitempty"`
}

// newProgressEvent reports that work on date is about to start. Progress is
// the percentage of dates already completed, 0 to 100, so clients can render
// it directly.
func newProgressEvent(completed, total int, date string) ProgressEvent {
	progress := 0.0
	if total > 0 {
		progress = float64(completed) / float64(total) * 100
	}
	return ProgressEvent{Type: EventProgress, Progress: progress, CurrentDate: date}
}

func newFinishedEvent(results []models.GapUpCandidate) ProgressEvent {
	return ProgressEvent{Type: EventFinished, Progress: 100, Results: results}
}

func newErrorEvent(err error) ProgressEvent {
	return ProgressEvent{Type: EventError, Message: err.Error()}
}
