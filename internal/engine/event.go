package engine

import "strconv"

// EventID mirrors mpv_event_id.
type EventID int

const (
	EventNone             EventID = 0
	EventShutdown         EventID = 1
	EventLogMessage       EventID = 2
	EventGetPropertyReply EventID = 3
	EventSetPropertyReply EventID = 4
	EventCommandReply     EventID = 5
	EventStartFile        EventID = 6
	EventEndFile          EventID = 7
	EventFileLoaded       EventID = 8
	EventClientMessage    EventID = 16
	EventVideoReconfig    EventID = 17
	EventAudioReconfig    EventID = 18
	EventSeek             EventID = 20
	EventPlaybackRestart  EventID = 21
	EventPropertyChange   EventID = 22
	EventQueueOverflow    EventID = 24
	EventHook             EventID = 25
)

var eventNames = map[EventID]string{
	EventNone:             "none",
	EventShutdown:         "shutdown",
	EventLogMessage:       "log-message",
	EventGetPropertyReply: "get-property-reply",
	EventSetPropertyReply: "set-property-reply",
	EventCommandReply:     "command-reply",
	EventStartFile:        "start-file",
	EventEndFile:          "end-file",
	EventFileLoaded:       "file-loaded",
	EventClientMessage:    "client-message",
	EventVideoReconfig:    "video-reconfig",
	EventAudioReconfig:    "audio-reconfig",
	EventSeek:             "seek",
	EventPlaybackRestart:  "playback-restart",
	EventPropertyChange:   "property-change",
	EventQueueOverflow:    "event-queue-overflow",
	EventHook:             "hook",
}

func (id EventID) String() string {
	if n, ok := eventNames[id]; ok {
		return n
	}
	return "event(" + strconv.Itoa(int(id)) + ")"
}

// Event is a copy of one engine event. Only the payload matching ID is set.
type Event struct {
	ID EventID
	// Error is the event-level status, negative on failure.
	Error    int
	Property *PropertyEvent
	Log      *LogEvent
	EndFile  *EndFileEvent
}

// PropertyEvent is the payload of EventPropertyChange. Value is zero when the
// property became unavailable.
type PropertyEvent struct {
	Name   string
	Format Format
	Value  Value
}

// LogEvent is the payload of EventLogMessage.
type LogEvent struct {
	Prefix string
	Level  string
	Text   string
}

// EndFileReason mirrors mpv_end_file_reason.
type EndFileReason int

const (
	EndFileEOF      EndFileReason = 0
	EndFileStop     EndFileReason = 2
	EndFileQuit     EndFileReason = 3
	EndFileError    EndFileReason = 4
	EndFileRedirect EndFileReason = 5
)

func (r EndFileReason) String() string {
	switch r {
	case EndFileEOF:
		return "eof"
	case EndFileStop:
		return "stop"
	case EndFileQuit:
		return "quit"
	case EndFileError:
		return "error"
	case EndFileRedirect:
		return "redirect"
	default:
		return "reason(" + strconv.Itoa(int(r)) + ")"
	}
}

// EndFileEvent is the payload of EventEndFile.
type EndFileEvent struct {
	Reason EndFileReason
	Error  int
}
