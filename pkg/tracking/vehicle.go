package tracking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type VehicleStatus int

const (
	VehicleStatusActive         VehicleStatus = 1
	VehicleStatusInactive       VehicleStatus = 2
	VehicleStatusDecommissioned VehicleStatus = 3
)

func (s VehicleStatus) Valid() bool {
	return s >= VehicleStatusActive && s <= VehicleStatusDecommissioned
}

func (s VehicleStatus) String() string {
	switch s {
	case VehicleStatusActive:
		return "Active"
	case VehicleStatusInactive:
		return "Inactive"
	case VehicleStatusDecommissioned:
		return "Decommissioned"
	default:
		return fmt.Sprintf("VehicleStatus(%d)", int(s))
	}
}

// VehicleIdentity fields are optional. Blank values are stored as nil.
type VehicleIdentity struct {
	RegistrationNumber *string
	Name               *string
	ExternalID         *string
}

func NewVehicleIdentity(registrationNumber, name, externalID *string) VehicleIdentity {
	return VehicleIdentity{
		RegistrationNumber: normaliseOrNil(registrationNumber),
		Name:               normaliseOrNil(name),
		ExternalID:         normaliseOrNil(externalID),
	}
}

type Vehicle struct {
	tenantID     uuid.UUID
	id           uuid.UUID
	identity     VehicleIdentity
	status       VehicleStatus
	createdAtUTC time.Time
}

func NewVehicle(tenantID, id uuid.UUID, identity VehicleIdentity, createdAtUTC time.Time) (*Vehicle, error) {
	return RestoreVehicle(tenantID, id, identity, VehicleStatusActive, createdAtUTC)
}

// RestoreVehicle rebuilds a vehicle loaded from storage with its persisted status.
func RestoreVehicle(tenantID, id uuid.UUID, identity VehicleIdentity, status VehicleStatus, createdAtUTC time.Time) (*Vehicle, error) {
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("%w: tenant id is required", ErrInvalidArgument)
	}
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: vehicle id is required", ErrInvalidArgument)
	}
	if !isUTC(createdAtUTC) {
		return nil, fmt.Errorf("%w: createdAtUtc must be UTC", ErrInvalidArgument)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown vehicle status %d", ErrInvalidArgument, status)
	}

	return &Vehicle{
		tenantID:     tenantID,
		id:           id,
		identity:     NewVehicleIdentity(identity.RegistrationNumber, identity.Name, identity.ExternalID),
		status:       status,
		createdAtUTC: createdAtUTC,
	}, nil
}

func (v *Vehicle) TenantID() uuid.UUID       { return v.tenantID }
func (v *Vehicle) ID() uuid.UUID             { return v.id }
func (v *Vehicle) Identity() VehicleIdentity { return v.identity }
func (v *Vehicle) Status() VehicleStatus     { return v.status }
func (v *Vehicle) CreatedAtUTC() time.Time   { return v.createdAtUTC }

func (v *Vehicle) Activate() error {
	if v.status == VehicleStatusDecommissioned {
		return fmt.Errorf("%w: cannot activate a decommissioned vehicle", ErrInvalidOperation)
	}

	v.status = VehicleStatusActive
	return nil
}

func (v *Vehicle) SetInactive() error {
	if v.status == VehicleStatusDecommissioned {
		return fmt.Errorf("%w: cannot inactivate a decommissioned vehicle", ErrInvalidOperation)
	}

	v.status = VehicleStatusInactive
	return nil
}

// Decommission is terminal.
func (v *Vehicle) Decommission() {
	v.status = VehicleStatusDecommissioned
}

func (v *Vehicle) SetStatus(status VehicleStatus) error {
	switch status {
	case VehicleStatusActive:
		return v.Activate()
	case VehicleStatusInactive:
		return v.SetInactive()
	case VehicleStatusDecommissioned:
		v.Decommission()
		return nil
	default:
		return fmt.Errorf("%w: unknown vehicle status %d", ErrInvalidArgument, status)
	}
}

func (v *Vehicle) UpdateIdentity(registrationNumber, name, externalID *string) {
	v.identity = NewVehicleIdentity(registrationNumber, name, externalID)
}

func (v *Vehicle) Rename(name *string) {
	v.identity.Name = normaliseOrNil(name)
}

func (v *Vehicle) SetRegistration(registrationNumber *string) {
	v.identity.RegistrationNumber = normaliseOrNil(registrationNumber)
}

func (v *Vehicle) SetExternalID(externalID *string) {
	v.identity.ExternalID = normaliseOrNil(externalID)
}

func normaliseOrNil(value *string) *string {
	if value == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}
