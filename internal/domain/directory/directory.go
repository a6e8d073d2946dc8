// Package directory holds the read-only view of hospital locations and the
// directed routes between them. Directory records are managed elsewhere.
package directory

import (
	"context"
	"strconv"

	"github.com/Annalisa11/monkey/internal/domain/shared"
	"github.com/jackc/pgx/v5"
)

// Location is a named place in the facility
type Location struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Route is a directed, described edge between two locations
type Route struct {
	ID                    int64  `json:"id"`
	SourceLocationID      int64  `json:"sourceLocationId"`
	DestinationLocationID int64  `json:"destinationLocationId"`
	Description           string `json:"description"`
	IsAccessible          bool   `json:"isAccessible"`
}

// Repository resolves locations and routes
type Repository interface {
	GetLocationByID(ctx context.Context, id int64) (*Location, error)
	// GetRouteBetween returns the directed route source -> destination.
	GetRouteBetween(ctx context.Context, sourceLocationID, destinationLocationID int64) (*Route, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrLocationNotFound indicates a missing location
type ErrLocationNotFound struct {
	LocationID int64
}

func (e ErrLocationNotFound) Error() string {
	return "location not found: " + strconv.FormatInt(e.LocationID, 10)
}

// Is matches shared.ErrNotFound and any ErrLocationNotFound with a zero or equal id
func (e ErrLocationNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrLocationNotFound)
	if !ok {
		return false
	}
	return t.LocationID == 0 || t.LocationID == e.LocationID
}

// ErrRouteNotFound indicates there is no directed route between two locations
type ErrRouteNotFound struct {
	SourceLocationID      int64
	DestinationLocationID int64
}

func (e ErrRouteNotFound) Error() string {
	return "no route from location " + strconv.FormatInt(e.SourceLocationID, 10) +
		" to location " + strconv.FormatInt(e.DestinationLocationID, 10)
}

func (e ErrRouteNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	_, ok := target.(ErrRouteNotFound)
	return ok
}
