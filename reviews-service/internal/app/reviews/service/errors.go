package service

import (
	"errors"
	"fmt"
)

// Виды ошибок. Handlers сопоставляют их с HTTP статусами через errors.Is
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Error - ошибка бизнес-логики с сообщением для клиента, разворачивается в свой вид
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrJobNotFound          = newError(ErrNotFound, "job not found")
	ErrRecipientNotFound    = newError(ErrNotFound, "recipient not found")
	ErrReviewNotFound       = newError(ErrNotFound, "review not found")
	ErrActiveReportNotFound = newError(ErrNotFound, "review has no active report")

	ErrJobNotCompleted   = newError(ErrInvalidState, "job is not completed")
	ErrJobPartiesMissing = newError(ErrInvalidState, "job has no client or hired freelancer")

	ErrRoleNotAllowed     = newError(ErrForbidden, "only clients and freelancers can submit reviews")
	ErrNotReviewAuthor    = newError(ErrForbidden, "only the author can change this review")
	ErrNotReviewRecipient = newError(ErrForbidden, "only the recipient can report this review")
	ErrAdminOnly          = newError(ErrForbidden, "only admins can moderate reviews")

	ErrAlreadyReviewed = newError(ErrConflict, "you have already reviewed this user for this job")

	ErrCommentTooShort         = newError(ErrInvalidArgument, "comment must be at least 10 characters")
	ErrReportReasonRequired    = newError(ErrInvalidArgument, "report reason is required")
	ErrInvalidModerationAction = newError(ErrInvalidArgument, "moderation action must be one of: delete, approve, reject")
)

func invalidScore(field string, value int) error {
	return newError(ErrInvalidArgument, fmt.Sprintf("%s must be between 1 and 5, got %d", field, value))
}

// KindName - короткое имя вида ошибки для метрик и логов
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	}
	return "internal"
}
