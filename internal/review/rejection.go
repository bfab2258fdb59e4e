package review

import (
	"errors"
	"fmt"
)

// Reason is the machine-readable code of a rejected transition.
type Reason string

const (
	ReasonInvalidStatus          Reason = "invalid_status"
	ReasonReviewDisabled         Reason = "review_disabled"
	ReasonCommentCountOutOfRange Reason = "comment_count_out_of_range"
	ReasonInvalidComment         Reason = "invalid_comment"
	ReasonUnknownThread          Reason = "unknown_thread"
	ReasonThreadClosed           Reason = "thread_closed"
	ReasonThreadOpen             Reason = "thread_open"
	ReasonEmptyResponse          Reason = "empty_response"
	ReasonUnaddressedThread      Reason = "unaddressed_thread"
	ReasonTestsNotPassing        Reason = "tests_not_passing"
	ReasonUnverifiedThread       Reason = "unverified_thread"
	ReasonUnresolvedThreads      Reason = "unresolved_threads"
	ReasonRevisionLimitExceeded  Reason = "revision_limit_exceeded"
	ReasonNotApproved            Reason = "not_approved"
	ReasonCannotDismissBlocking  Reason = "cannot_dismiss_blocking"
)

var reasonText = map[Reason]string{
	ReasonInvalidStatus:          "transition is not allowed from the current status",
	ReasonReviewDisabled:         "code review is disabled for this role",
	ReasonCommentCountOutOfRange: "reviewer comment count is outside the configured range",
	ReasonInvalidComment:         "reviewer comment is malformed",
	ReasonUnknownThread:          "no such thread",
	ReasonThreadClosed:           "thread is already resolved or dismissed",
	ReasonThreadOpen:             "thread is not closed",
	ReasonEmptyResponse:          "response is empty",
	ReasonUnaddressedThread:      "a thread that needs a response has not been addressed",
	ReasonTestsNotPassing:        "the latest test run did not pass",
	ReasonUnverifiedThread:       "an addressed thread has not been verified by the reviewer",
	ReasonUnresolvedThreads:      "some threads are still open",
	ReasonRevisionLimitExceeded:  "the revision cycle limit has been reached",
	ReasonNotApproved:            "the pull request is not approved",
	ReasonCannotDismissBlocking:  "blocking threads cannot be dismissed",
}

// Rejection reports a transition whose precondition did not hold. The state
// passed to the transition is returned unchanged alongside it.
type Rejection struct {
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

func (r *Rejection) Error() string {
	if r == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Message)
}

// Text returns the generic description of a reason.
func (r Reason) Text() string {
	if t, ok := reasonText[r]; ok {
		return t
	}
	return string(r)
}

func reject(reason Reason, format string, args ...any) *Rejection {
	msg := reason.Text()
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &Rejection{Reason: reason, Message: msg}
}

// AsRejection unwraps err into a rejection.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// IsReason reports whether err is a rejection with the given reason.
func IsReason(err error, reason Reason) bool {
	r, ok := AsRejection(err)
	return ok && r.Reason == reason
}
