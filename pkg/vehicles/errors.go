package vehicles

import "fmt"

type ErrorCode string

const (
	CodeVehicleNotFound         ErrorCode = "vehicle_not_found"
	CodeDuplicateRegistration   ErrorCode = "duplicate_registration_number"
	CodeInvalidPaging           ErrorCode = "invalid_paging"
	CodeInvalidQuery            ErrorCode = "invalid_query"
	CodeInvalidStatusTransition ErrorCode = "invalid_status_transition"
	CodeInvalidPayload          ErrorCode = "invalid_payload"
)

const (
	MessageVehicleNotFound       = "Vehicle not found for tenant"
	MessageDuplicateRegistration = "A vehicle with the same registration number already exists for this tenant."
	MessagePage                  = "page must be >= 1"
	MessagePageSize              = "pageSize must be between 1 and 200"
	MessageWindowMinutes         = "windowMinutes must be between 1 and 1440"
	MessageStaleAfterSeconds     = "staleAfterSeconds must be between 1 and 86400"
)

// Error is a caller facing failure of a vehicle operation.
type Error struct {
	Code    ErrorCode
	Message string

	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func notFound() *Error {
	return newError(CodeVehicleNotFound, MessageVehicleNotFound)
}
