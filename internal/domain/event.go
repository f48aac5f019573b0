package domain

const (
	EventNameRoomCreated        = "room.created"
	EventNameRoomStarted        = "room.started"
	EventNameAnswerSubmitted    = "room.answer_submitted"
	EventNameRoomFinished       = "room.finished"
	EventNameSessionFinished    = "session.finished"
	EventNameLeaderboardCleared = "leaderboard.cleared"
)

type EventRoomCreated struct {
	Room Room
}

func (EventRoomCreated) Name() string { return EventNameRoomCreated }

type EventRoomStarted struct {
	Room Room
}

func (EventRoomStarted) Name() string { return EventNameRoomStarted }

type EventAnswerSubmitted struct {
	RoomID        string
	ParticipantID string
	Answer        Answer
}

func (EventAnswerSubmitted) Name() string { return EventNameAnswerSubmitted }

type EventRoomFinished struct {
	Room Room
}

func (EventRoomFinished) Name() string { return EventNameRoomFinished }

type EventSessionFinished struct {
	Player Player
}

func (EventSessionFinished) Name() string { return EventNameSessionFinished }

// EventLeaderboardCleared is published after a clear. Entry is nil when there was nothing to archive.
type EventLeaderboardCleared struct {
	Entry           *HistoryEntry
	SessionsCleared bool
}

func (EventLeaderboardCleared) Name() string { return EventNameLeaderboardCleared }
