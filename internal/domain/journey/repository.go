package journey

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Repository is the journey ledger's persistence boundary
type Repository interface {
	// OpenJourney inserts a started journey and returns its id.
	OpenJourney(ctx context.Context, startLocationID int64, startTime time.Time) (int64, error)
	GetByID(ctx context.Context, id int64) (*Journey, error)
	// AttachToken moves a journey to qr_generated with a fresh token. It returns
	// ErrDuplicateToken on a token collision and ErrJourneyAlreadyCompleted when
	// the journey is already closed.
	AttachToken(ctx context.Context, id int64, attachment TokenAttachment) error
	// FindByToken locks and returns the journey owning token with its route.
	FindByToken(ctx context.Context, token string) (*TokenBinding, error)
	// CompleteIfUnscanned closes the journey in one conditional statement.
	// Zero affected rows yields ErrAlreadyScanned.
	CompleteIfUnscanned(ctx context.Context, id int64, token string, at time.Time) error
	// DeleteIfStarted removes a journey that never got a token. It reports
	// whether a row was deleted.
	DeleteIfStarted(ctx context.Context, id int64) (bool, error)
	WithTx(tx pgx.Tx) Repository
}
