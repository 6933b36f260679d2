package tracking

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(value string) *string { return &value }

func newTestVehicle(t *testing.T) *Vehicle {
	t.Helper()

	vehicle, err := NewVehicle(testTenantID, uuid.New(), NewVehicleIdentity(strPtr(" AB12 CDE "), strPtr("Van 1"), nil), baseTime)
	require.NoError(t, err)

	return vehicle
}

func TestNewVehicleStartsActive(t *testing.T) {
	vehicle := newTestVehicle(t)

	assert.Equal(t, VehicleStatusActive, vehicle.Status())
	require.NotNil(t, vehicle.Identity().RegistrationNumber)
	assert.Equal(t, "AB12 CDE", *vehicle.Identity().RegistrationNumber)
	assert.Nil(t, vehicle.Identity().ExternalID)
}

func TestNewVehicleValidation(t *testing.T) {
	_, err := NewVehicle(uuid.Nil, uuid.New(), VehicleIdentity{}, baseTime)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = NewVehicle(testTenantID, uuid.New(), VehicleIdentity{}, baseTime.Local().In(time.FixedZone("X", 60)))
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestVehicleLifecycle(t *testing.T) {
	vehicle := newTestVehicle(t)

	require.NoError(t, vehicle.SetInactive())
	assert.Equal(t, VehicleStatusInactive, vehicle.Status())

	require.NoError(t, vehicle.Activate())
	assert.Equal(t, VehicleStatusActive, vehicle.Status())

	vehicle.Decommission()
	assert.Equal(t, VehicleStatusDecommissioned, vehicle.Status())
}

func TestDecommissionIsTerminal(t *testing.T) {
	vehicle := newTestVehicle(t)
	vehicle.Decommission()

	err := vehicle.Activate()
	assert.True(t, errors.Is(err, ErrInvalidOperation))
	assert.Equal(t, VehicleStatusDecommissioned, vehicle.Status())

	err = vehicle.SetInactive()
	assert.True(t, errors.Is(err, ErrInvalidOperation))
	assert.Equal(t, VehicleStatusDecommissioned, vehicle.Status())

	err = vehicle.SetStatus(VehicleStatusActive)
	assert.True(t, errors.Is(err, ErrInvalidOperation))

	assert.NoError(t, vehicle.SetStatus(VehicleStatusDecommissioned))
}

func TestVehicleIdentityUpdates(t *testing.T) {
	vehicle := newTestVehicle(t)

	vehicle.Rename(strPtr("   "))
	assert.Nil(t, vehicle.Identity().Name)
	require.NotNil(t, vehicle.Identity().RegistrationNumber)

	vehicle.SetExternalID(strPtr(" fleet-42 "))
	require.NotNil(t, vehicle.Identity().ExternalID)
	assert.Equal(t, "fleet-42", *vehicle.Identity().ExternalID)

	vehicle.SetRegistration(nil)
	assert.Nil(t, vehicle.Identity().RegistrationNumber)

	vehicle.UpdateIdentity(strPtr("XY99"), strPtr(" Bus "), nil)
	assert.Equal(t, "XY99", *vehicle.Identity().RegistrationNumber)
	assert.Equal(t, "Bus", *vehicle.Identity().Name)
	assert.Nil(t, vehicle.Identity().ExternalID)

	assert.True(t, errors.Is(vehicle.SetStatus(VehicleStatus(9)), ErrInvalidArgument))
}
