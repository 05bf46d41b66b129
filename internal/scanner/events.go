package scanner

import "github.com/pders01/pyfinder/internal/models"

// EventKind identifies a scan notification
type EventKind int

const (
	EventStarted EventKind = iota
	EventDirectoryVisited
	EventFileObserved
	EventProjectFound
	EventError
	EventFinished
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventDirectoryVisited:
		return "directory-visited"
	case EventFileObserved:
		return "file-observed"
	case EventProjectFound:
		return "project-found"
	case EventError:
		return "error"
	case EventFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Event is one notification emitted during a scan, in traversal order.
// Count is set on EventFinished, Project on EventProjectFound, Err on EventError.
type Event struct {
	Kind    EventKind
	ScanID  string
	Path    string
	Project *models.Project
	Count   int
	Err     error
}

// Message returns the error text of an EventError
func (e Event) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Listener receives scan events synchronously on the scanning goroutine
type Listener func(Event)
