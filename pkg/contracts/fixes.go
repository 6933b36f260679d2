package contracts

import (
	"github.com/google/uuid"
	"github.com/travigo/geotrack/pkg/ingest"
	"github.com/travigo/geotrack/pkg/telemetry"
)

type GpsFixRequest struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	DeviceTimeUtc  Timestamp `json:"deviceTimeUtc"`
	DeviceSequence *int64    `json:"deviceSequence,omitempty"`

	SpeedKph       *float64 `json:"speedKph,omitempty"`
	HeadingDegrees *float64 `json:"headingDegrees,omitempty"`
	AccuracyMeters *float64 `json:"accuracyMeters,omitempty"`
	AltitudeMeters *float64 `json:"altitudeMeters,omitempty"`
	OdometerKm     *float64 `json:"odometerKm,omitempty"`

	CorrelationId string `json:"correlationId"`
	Source        string `json:"source,omitempty"`
	Quality       string `json:"quality,omitempty"`
}

func (r GpsFixRequest) Payload() ingest.FixPayload {
	return ingest.FixPayload{
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		DeviceTimeUTC:  r.DeviceTimeUtc.Time,
		DeviceSequence: r.DeviceSequence,
		SpeedKph:       r.SpeedKph,
		HeadingDegrees: r.HeadingDegrees,
		AccuracyMeters: r.AccuracyMeters,
		AltitudeMeters: r.AltitudeMeters,
		OdometerKm:     r.OdometerKm,
		CorrelationID:  r.CorrelationId,
		Source:         telemetry.Source(r.Source),
		Quality:        telemetry.FixQuality(r.Quality),
	}
}

// GpsFixBatchItem carries the vehicle id as a string so a malformed id rejects only its item.
type GpsFixBatchItem struct {
	VehicleId string `json:"vehicleId"`
	GpsFixRequest
}

func (i GpsFixBatchItem) BatchItem() ingest.BatchItem {
	vehicleID, err := uuid.Parse(i.VehicleId)
	if err != nil {
		vehicleID = uuid.Nil
	}

	return ingest.BatchItem{VehicleID: vehicleID, Payload: i.Payload()}
}

type GpsFixBatchRequest struct {
	Items []GpsFixBatchItem `json:"items"`
}

func (r GpsFixBatchRequest) BatchItems() []ingest.BatchItem {
	items := make([]ingest.BatchItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = item.BatchItem()
	}

	return items
}

// QueuedBatch is the message published to the fix queue.
type QueuedBatch struct {
	TenantId uuid.UUID         `json:"tenantId"`
	Items    []GpsFixBatchItem `json:"items"`
}

type GpsFixResponse struct {
	VehicleId       uuid.UUID `json:"vehicleId"`
	GpsFixId        uuid.UUID `json:"gpsFixId"`
	DeviceTimeUtc   Timestamp `json:"deviceTimeUtc"`
	ReceivedAtUtc   Timestamp `json:"receivedAtUtc"`
	IsLatestApplied bool      `json:"isLatestApplied"`
}

func NewGpsFixResponse(result *ingest.FixResult) GpsFixResponse {
	return GpsFixResponse{
		VehicleId:       result.VehicleID,
		GpsFixId:        result.GpsFixID,
		DeviceTimeUtc:   UTC(result.DeviceTimeUTC),
		ReceivedAtUtc:   UTC(result.ReceivedAtUTC),
		IsLatestApplied: result.IsLatestApplied,
	}
}

type BatchItemResponse struct {
	Index     int        `json:"index"`
	VehicleId uuid.UUID  `json:"vehicleId"`
	Status    string     `json:"status"`
	GpsFixId  *uuid.UUID `json:"gpsFixId,omitempty"`
	Error     string     `json:"error,omitempty"`
	Message   string     `json:"message,omitempty"`
}

type BatchResponse struct {
	AcceptedCount int                 `json:"acceptedCount"`
	RejectedCount int                 `json:"rejectedCount"`
	ReceivedAtUtc Timestamp           `json:"receivedAtUtc"`
	Results       []BatchItemResponse `json:"results"`
}

func NewBatchResponse(result *ingest.BatchResult) BatchResponse {
	response := BatchResponse{
		AcceptedCount: result.AcceptedCount,
		RejectedCount: result.RejectedCount,
		ReceivedAtUtc: UTC(result.ReceivedAtUTC),
		Results:       make([]BatchItemResponse, len(result.Results)),
	}

	for i, item := range result.Results {
		response.Results[i] = BatchItemResponse{
			Index:     item.Index,
			VehicleId: item.VehicleID,
			Status:    string(item.Status),
			GpsFixId:  item.GpsFixID,
			Error:     string(item.Error),
			Message:   item.Message,
		}
	}

	return response
}

type QueuedResponse struct {
	Queued int `json:"queued"`
}
