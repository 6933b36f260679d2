package tracking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Tenant struct {
	ID           uuid.UUID
	Name         string
	CreatedAtUTC time.Time
}

func NewTenant(id uuid.UUID, name string, createdAtUTC time.Time) (*Tenant, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: tenant id is required", ErrInvalidArgument)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: tenant name is required", ErrInvalidArgument)
	}
	if !isUTC(createdAtUTC) {
		return nil, fmt.Errorf("%w: createdAtUtc must be UTC", ErrInvalidArgument)
	}

	return &Tenant{ID: id, Name: name, CreatedAtUTC: createdAtUTC}, nil
}
