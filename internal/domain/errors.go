package domain

import "github.com/victornm/teamquiz/internal/errors"

// Reasons are stable, machine-readable identifiers of the failures below.
const (
	ReasonRoomNotFound         = "ROOM_NOT_FOUND"
	ReasonParticipantNotFound  = "PARTICIPANT_NOT_FOUND"
	ReasonQuestionNotFound     = "QUESTION_NOT_FOUND"
	ReasonSessionNotFound      = "SESSION_NOT_FOUND"
	ReasonHistoryEntryNotFound = "HISTORY_ENTRY_NOT_FOUND"
	ReasonDuplicateRoomName    = "DUPLICATE_ROOM_NAME"
	ReasonDuplicateAnswer      = "DUPLICATE_ANSWER"
	ReasonInvalidTransition    = "INVALID_TRANSITION"
	ReasonNoParticipants       = "NO_PARTICIPANTS"
	ReasonNoQuestions          = "NO_QUESTIONS"
	ReasonInvalidQuestion      = "INVALID_QUESTION"
	ReasonForbidden            = "FORBIDDEN"
	ReasonInvalidGroupName     = "INVALID_GROUP_NAME"
	ReasonInvalidArgument      = "INVALID_ARGUMENT"
	ReasonAnswerExpired        = "ANSWER_EXPIRED"
)

// Sentinels for errors.Is. Services return copies made with Wrap, carrying the request details.
var (
	ErrRoomNotFound         = errors.New(errors.CodeNotFound, errors.WithReason(ReasonRoomNotFound), errors.WithMessagef("room not found"))
	ErrParticipantNotFound  = errors.New(errors.CodeNotFound, errors.WithReason(ReasonParticipantNotFound), errors.WithMessagef("participant not found"))
	ErrQuestionNotFound     = errors.New(errors.CodeNotFound, errors.WithReason(ReasonQuestionNotFound), errors.WithMessagef("question not found"))
	ErrSessionNotFound      = errors.New(errors.CodeNotFound, errors.WithReason(ReasonSessionNotFound), errors.WithMessagef("session not found"))
	ErrHistoryEntryNotFound = errors.New(errors.CodeNotFound, errors.WithReason(ReasonHistoryEntryNotFound), errors.WithMessagef("history entry not found"))
	ErrDuplicateRoomName    = errors.New(errors.CodeAlreadyExists, errors.WithReason(ReasonDuplicateRoomName), errors.WithMessagef("an active room already has this name"))
	ErrDuplicateAnswer      = errors.New(errors.CodeAlreadyExists, errors.WithReason(ReasonDuplicateAnswer), errors.WithMessagef("question already answered"))
	ErrInvalidTransition    = errors.New(errors.CodeFailedPrecondition, errors.WithReason(ReasonInvalidTransition), errors.WithMessagef("operation not allowed in the current room state"))
	ErrNoParticipants       = errors.New(errors.CodeFailedPrecondition, errors.WithReason(ReasonNoParticipants), errors.WithMessagef("room has no participants"))
	ErrNoQuestions          = errors.New(errors.CodeInvalidArgument, errors.WithReason(ReasonNoQuestions), errors.WithMessagef("questions are required"))
	ErrInvalidQuestion      = errors.New(errors.CodeInvalidArgument, errors.WithReason(ReasonInvalidQuestion), errors.WithMessagef("invalid question"))
	ErrForbidden            = errors.New(errors.CodePermissionDenied, errors.WithReason(ReasonForbidden), errors.WithMessagef("only the room host can do this"))
	ErrInvalidGroupName     = errors.New(errors.CodeInvalidArgument, errors.WithReason(ReasonInvalidGroupName), errors.WithMessagef("group name must contain only uppercase letters, digits and spaces"))
	ErrInvalidArgument      = errors.New(errors.CodeInvalidArgument, errors.WithReason(ReasonInvalidArgument))
	ErrAnswerExpired        = errors.New(errors.CodeDeadlineExceeded, errors.WithReason(ReasonAnswerExpired), errors.WithMessagef("time limit for this question is over"))
)
