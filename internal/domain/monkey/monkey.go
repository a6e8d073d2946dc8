// Package monkey describes the kiosks (monkeys) that open journeys and scan tokens.
package monkey

import (
	"context"
	"strconv"

	"github.com/Annalisa11/monkey/internal/domain/shared"
	"github.com/jackc/pgx/v5"
)

// Monkey is a kiosk/robot stationed at a location
type Monkey struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	LocationID int64   `json:"locationId"`
	Address    *string `json:"address,omitempty"` // kiosk network address, if registered
	IsActive   bool    `json:"isActive"`
}

// Repository resolves kiosks and their current station
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Monkey, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrMonkeyNotFound indicates an unknown kiosk id
type ErrMonkeyNotFound struct {
	MonkeyID int64
}

func (e ErrMonkeyNotFound) Error() string {
	return "monkey not found: " + strconv.FormatInt(e.MonkeyID, 10)
}

// Is matches shared.ErrNotFound and any ErrMonkeyNotFound with a zero or equal id
func (e ErrMonkeyNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrMonkeyNotFound)
	if !ok {
		return false
	}
	return t.MonkeyID == 0 || t.MonkeyID == e.MonkeyID
}
