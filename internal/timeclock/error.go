package timeclock

import (
	"errors"
	"fmt"
	"net/http"
)

// ===== Error model (platform/auth 以外の各パッケージと同型) =====

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeAlreadyExited   Code = "ALREADY_EXITED"
	CodeDayComplete     Code = "DAY_COMPLETE"
	CodePastExitWindow  Code = "PAST_EXIT_WINDOW"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func errAlreadyExited() *APIError {
	return &APIError{Code: CodeAlreadyExited, Message: "exit already recorded today"}
}

func errDayComplete() *APIError {
	return &APIError{Code: CodeDayComplete, Message: "attendance for today is already complete"}
}

func errPastExitWindow() *APIError {
	return &APIError{Code: CodePastExitWindow, Message: "scheduled exit time has passed, entry not allowed today"}
}

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return http.StatusBadRequest
		case CodeNotFound:
			return http.StatusNotFound
		case CodeAlreadyExited, CodeDayComplete, CodePastExitWindow:
			// 業務ルール違反。端末UIにそのまま表示される
			return http.StatusBadRequest
		case CodeConflict:
			return http.StatusConflict
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
