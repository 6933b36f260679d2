package contracts

import (
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/travigo/geotrack/pkg/tracking"
	"github.com/travigo/geotrack/pkg/vehicles"
)

type CreateVehicleRequest struct {
	RegistrationNumber *string `json:"registrationNumber"`
	Name               *string `json:"name"`
	ExternalId         *string `json:"externalId"`
}

func (r CreateVehicleRequest) Identity() vehicles.Identity {
	return vehicles.Identity{
		RegistrationNumber: r.RegistrationNumber,
		Name:               r.Name,
		ExternalID:         r.ExternalId,
	}
}

// PatchVehicleRequest leaves absent or null fields untouched. A blank string clears the field.
type PatchVehicleRequest struct {
	RegistrationNumber *string                 `json:"registrationNumber"`
	Name               *string                 `json:"name"`
	ExternalId         *string                 `json:"externalId"`
	Status             *tracking.VehicleStatus `json:"status"`
}

func (r PatchVehicleRequest) Patch() vehicles.Patch {
	return vehicles.Patch{
		RegistrationNumber: r.RegistrationNumber,
		Name:               r.Name,
		ExternalID:         r.ExternalId,
		Status:             r.Status,
	}
}

type VehicleResponse struct {
	Id                 uuid.UUID              `json:"id" groups:"basic"`
	RegistrationNumber *string                `json:"registrationNumber" groups:"basic"`
	Name               *string                `json:"name" groups:"basic"`
	ExternalId         *string                `json:"externalId" groups:"basic"`
	CreatedAtUtc       Timestamp              `json:"createdAtUtc" groups:"basic"`
	Status             tracking.VehicleStatus `json:"status" groups:"basic"`
	StatusName         string                 `json:"statusName" groups:"detailed"`
}

func NewVehicleResponse(vehicle *tracking.Vehicle) VehicleResponse {
	identity := vehicle.Identity()

	return VehicleResponse{
		Id:                 vehicle.ID(),
		RegistrationNumber: identity.RegistrationNumber,
		Name:               identity.Name,
		ExternalId:         identity.ExternalID,
		CreatedAtUtc:       UTC(vehicle.CreatedAtUTC()),
		Status:             vehicle.Status(),
		StatusName:         vehicle.Status().String(),
	}
}

type PagedVehiclesResponse struct {
	Items    []VehicleResponse `json:"items" groups:"basic"`
	Page     int               `json:"page" groups:"basic"`
	PageSize int               `json:"pageSize" groups:"basic"`
	Total    int64             `json:"total" groups:"basic"`
}

func NewPagedVehiclesResponse(page *vehicles.Page) PagedVehiclesResponse {
	response := PagedVehiclesResponse{
		Items:    make([]VehicleResponse, len(page.Items)),
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
	}

	for i, vehicle := range page.Items {
		response.Items[i] = NewVehicleResponse(vehicle)
	}

	return response
}

// LatestLocationResponse field names line up with vehicles.LatestLocationView for copier.
type LatestLocationResponse struct {
	Latitude               float64   `json:"latitude" groups:"basic"`
	Longitude              float64   `json:"longitude" groups:"basic"`
	DeviceTimeUTC          Timestamp `json:"deviceTimeUtc" groups:"basic"`
	ReceivedAtUTC          Timestamp `json:"receivedAtUtc" groups:"basic"`
	SecondsSinceLastUpdate int       `json:"secondsSinceLastUpdate" groups:"basic"`
	IsStale                bool      `json:"isStale" groups:"basic"`

	GpsFixID        uuid.UUID  `json:"gpsFixId" groups:"detailed"`
	DeviceSequence  int64      `json:"deviceSequence" groups:"detailed"`
	SpeedKph        *float64   `json:"speedKph" groups:"detailed"`
	HeadingDegrees  *float64   `json:"headingDegrees" groups:"detailed"`
	AccuracyMeters  *float64   `json:"accuracyMeters" groups:"detailed"`
	RouteScheduleID *uuid.UUID `json:"routeScheduleId" groups:"detailed"`
}

var timestampConverter = copier.TypeConverter{
	SrcType: time.Time{},
	DstType: Timestamp{},
	Fn: func(src interface{}) (interface{}, error) {
		return UTC(src.(time.Time)), nil
	},
}

func NewLatestLocationResponse(view *vehicles.LatestLocationView) (*LatestLocationResponse, error) {
	if view == nil {
		return nil, nil
	}

	response := &LatestLocationResponse{}
	err := copier.CopyWithOption(response, view, copier.Option{
		DeepCopy:   true,
		Converters: []copier.TypeConverter{timestampConverter},
	})
	if err != nil {
		return nil, err
	}

	return response, nil
}

type ProgressResponse struct {
	WindowStartUtc Timestamp `json:"windowStartUtc" groups:"basic"`
	WindowEndUtc   Timestamp `json:"windowEndUtc" groups:"basic"`
	PointsCount    int       `json:"pointsCount" groups:"basic"`
	DistanceMeters float64   `json:"distanceMeters" groups:"basic"`
	AvgSpeedKph    *float64  `json:"avgSpeedKph" groups:"basic"`
}

type VehicleSummaryResponse struct {
	VehicleId          uuid.UUID               `json:"vehicleId" groups:"basic"`
	RegistrationNumber *string                 `json:"registrationNumber" groups:"basic"`
	Name               *string                 `json:"name" groups:"basic"`
	Status             tracking.VehicleStatus  `json:"status" groups:"basic"`
	LatestLocation     *LatestLocationResponse `json:"latestLocation" groups:"basic"`
	Progress           ProgressResponse        `json:"progress" groups:"basic"`
}

func NewVehicleSummaryResponse(summary *vehicles.SummaryView) (VehicleSummaryResponse, error) {
	identity := summary.Vehicle.Identity()

	latest, err := NewLatestLocationResponse(summary.LatestLocation)
	if err != nil {
		return VehicleSummaryResponse{}, err
	}

	return VehicleSummaryResponse{
		VehicleId:          summary.Vehicle.ID(),
		RegistrationNumber: identity.RegistrationNumber,
		Name:               identity.Name,
		Status:             summary.Vehicle.Status(),
		LatestLocation:     latest,
		Progress: ProgressResponse{
			WindowStartUtc: UTC(summary.Progress.WindowStartUTC),
			WindowEndUtc:   UTC(summary.Progress.WindowEndUTC),
			PointsCount:    summary.Progress.PointsCount,
			DistanceMeters: summary.Progress.DistanceMeters,
			AvgSpeedKph:    summary.Progress.AvgSpeedKph,
		},
	}, nil
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
