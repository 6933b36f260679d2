package ingest

import "fmt"

type RejectionCode string

const (
	CodeMissingTenant        RejectionCode = "missing_tenant"
	CodeInvalidVehicle       RejectionCode = "invalid_vehicle"
	CodeVehicleNotFound      RejectionCode = "vehicle_not_found"
	CodeInvalidDeviceTime    RejectionCode = "invalid_device_time"
	CodeInvalidHeading       RejectionCode = "invalid_heading"
	CodeMissingCorrelationID RejectionCode = "missing_correlation_id"
	CodeInvalidPayload       RejectionCode = "invalid_payload"
)

const (
	MessageMissingTenant        = "Missing required tenant header."
	MessageInvalidVehicle       = "vehicleId must be a non-empty GUID"
	MessageVehicleNotFound      = "Vehicle not found for tenant"
	MessageInvalidDeviceTime    = "deviceTimeUtc must be UTC"
	MessageInvalidHeading       = "headingDegrees must be in range [0, 360)"
	MessageMissingCorrelationID = "correlationId is required"
)

// Rejection is a recoverable, per-item refusal of a fix. It never represents an infrastructure failure.
type Rejection struct {
	Code    RejectionCode
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

func reject(code RejectionCode, message string) *Rejection {
	return &Rejection{Code: code, Message: message}
}

var rejectionMessages = map[RejectionCode]string{
	CodeMissingTenant:        MessageMissingTenant,
	CodeInvalidVehicle:       MessageInvalidVehicle,
	CodeVehicleNotFound:      MessageVehicleNotFound,
	CodeInvalidDeviceTime:    MessageInvalidDeviceTime,
	CodeInvalidHeading:       MessageInvalidHeading,
	CodeMissingCorrelationID: MessageMissingCorrelationID,
}

func rejectWithDefault(code RejectionCode) *Rejection {
	return reject(code, rejectionMessages[code])
}
