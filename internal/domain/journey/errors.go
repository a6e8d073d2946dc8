package journey

import (
	"fmt"
	"strconv"

	"github.com/Annalisa11/monkey/internal/domain/shared"
)

// ErrJourneyNotFound indicates a missing journey
type ErrJourneyNotFound struct {
	JourneyID int64
}

func (e ErrJourneyNotFound) Error() string {
	return "journey not found: " + strconv.FormatInt(e.JourneyID, 10)
}

// Is matches shared.ErrNotFound and any ErrJourneyNotFound with a zero or equal id
func (e ErrJourneyNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrJourneyNotFound)
	if !ok {
		return false
	}
	return t.JourneyID == 0 || t.JourneyID == e.JourneyID
}

// ErrTokenNotFound indicates no journey owns the scanned token
type ErrTokenNotFound struct{}

func (e ErrTokenNotFound) Error() string {
	return "token invalid or never issued"
}

func (e ErrTokenNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	_, ok := target.(ErrTokenNotFound)
	return ok
}

// ErrAlreadyScanned rejects a replayed token
type ErrAlreadyScanned struct {
	JourneyID int64
}

func (e ErrAlreadyScanned) Error() string {
	return "token already scanned for journey " + strconv.FormatInt(e.JourneyID, 10)
}

func (e ErrAlreadyScanned) Is(target error) bool {
	if target == shared.ErrConflict {
		return true
	}
	t, ok := target.(ErrAlreadyScanned)
	if !ok {
		return false
	}
	return t.JourneyID == 0 || t.JourneyID == e.JourneyID
}

// ErrWrongDestination is returned when a token is scanned somewhere other
// than the destination it was issued for, or by a kiosk reporting a station
// it is not assigned to.
type ErrWrongDestination struct {
	JourneyID          int64
	ScannedLocationID  int64
	KioskLocationID    int64
	RouteDestinationID int64
}

func (e ErrWrongDestination) Error() string {
	return fmt.Sprintf("wrong destination for journey %d: scanned at %d, kiosk stationed at %d, route ends at %d",
		e.JourneyID, e.ScannedLocationID, e.KioskLocationID, e.RouteDestinationID)
}

func (e ErrWrongDestination) Is(target error) bool {
	if target == shared.ErrSemantic {
		return true
	}
	_, ok := target.(ErrWrongDestination)
	return ok
}

// ErrJourneyAlreadyCompleted rejects issuing a token for a closed journey
type ErrJourneyAlreadyCompleted struct {
	JourneyID int64
}

func (e ErrJourneyAlreadyCompleted) Error() string {
	return "journey already completed: " + strconv.FormatInt(e.JourneyID, 10)
}

func (e ErrJourneyAlreadyCompleted) Is(target error) bool {
	if target == shared.ErrSemantic {
		return true
	}
	t, ok := target.(ErrJourneyAlreadyCompleted)
	if !ok {
		return false
	}
	return t.JourneyID == 0 || t.JourneyID == e.JourneyID
}

// ErrStartLocationMismatch rejects navigation requested from a kiosk other
// than the one stationed where the journey was opened.
type ErrStartLocationMismatch struct {
	JourneyID       int64
	StartLocationID int64
	KioskLocationID int64
}

func (e ErrStartLocationMismatch) Error() string {
	return fmt.Sprintf("journey %d started at location %d, kiosk is stationed at %d",
		e.JourneyID, e.StartLocationID, e.KioskLocationID)
}

func (e ErrStartLocationMismatch) Is(target error) bool {
	if target == shared.ErrSemantic {
		return true
	}
	_, ok := target.(ErrStartLocationMismatch)
	return ok
}

// ErrDuplicateToken signals a uniqueness collision on the token column
type ErrDuplicateToken struct{}

func (e ErrDuplicateToken) Error() string {
	return "navigation token already in use"
}

// ErrTokenGenerationExhausted is returned when every regeneration attempt collided
type ErrTokenGenerationExhausted struct {
	Attempts int
}

func (e ErrTokenGenerationExhausted) Error() string {
	return "failed to generate a unique navigation token after " + strconv.Itoa(e.Attempts) + " attempts"
}
