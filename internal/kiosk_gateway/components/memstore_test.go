package components

import (
	"context"
	"sync"
	"time"

	"github.com/Annalisa11/monkey/internal/domain/directory"
	"github.com/Annalisa11/monkey/internal/domain/event"
	"github.com/Annalisa11/monkey/internal/domain/journey"
	"github.com/Annalisa11/monkey/internal/domain/monkey"
	"github.com/Annalisa11/monkey/internal/domain/outbox"
	"github.com/Annalisa11/monkey/internal/domain/shared"
	"github.com/jackc/pgx/v5"
)

// memStore is an in-memory hospital. Every repository call takes mu on its
// own, so concurrent units of work interleave between a read and the write
// that follows it. Conditional writes are the only thing keeping them apart.
// A failed unit of work replays its undo journal; journey ids are not
// reused, like a serial column.
type memStore struct {
	mu            sync.Mutex
	locations     map[int64]directory.Location
	routes        []directory.Route
	monkeys       map[int64]monkey.Monkey
	journeys      map[int64]journey.Journey
	nextJourneyID int64
	events        []event.Event
	nextEventID   int64
	outbox        []outbox.Message
	nextOutboxID  int64

	// afterTokenRead runs once FindByToken has released mu.
	afterTokenRead func()
}

func newMemStore() *memStore {
	return &memStore{
		locations: make(map[int64]directory.Location),
		monkeys:   make(map[int64]monkey.Monkey),
		journeys:  make(map[int64]journey.Journey),
	}
}

func (s *memStore) repositories() Repositories {
	return Repositories{
		Monkeys:   memMonkeys{s: s},
		Directory: memDirectory{s: s},
		Journeys:  memJourneys{s: s},
		Events:    memEvents{s: s},
		Outbox:    memOutbox{s: s},
	}
}

// journey reads a committed journey.
func (s *memStore) journey(id int64) (journey.Journey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.journeys[id]
	return j, ok
}

func (s *memStore) recordedEvents() []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.Event(nil), s.events...)
}

func (s *memStore) queuedMessages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outbox)
}

// putJourney writes j and journals the previous row. Callers hold mu.
func (s *memStore) putJourney(tx *memTx, j journey.Journey) {
	prev, existed := s.journeys[j.ID]
	s.journeys[j.ID] = j
	tx.journal(func() {
		if existed {
			s.journeys[j.ID] = prev
			return
		}
		delete(s.journeys, j.ID)
	})
}

// memTx carries the undo journal of one unit of work. A savepoint opened
// with Begin shares the journal and rolls back only what came after it.
type memTx struct {
	pgx.Tx
	store *memStore
	undo  *[]func()
	mark  int
}

func newMemTx(s *memStore) *memTx {
	return &memTx{store: s, undo: new([]func())}
}

// journal is a no-op outside a transaction. Callers hold mu.
func (t *memTx) journal(undo func()) {
	if t == nil {
		return
	}
	*t.undo = append(*t.undo, undo)
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return &memTx{store: t.store, undo: t.undo, mark: len(*t.undo)}, nil
}

func (t *memTx) Commit(ctx context.Context) error { return nil }

func (t *memTx) Rollback(ctx context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for i := len(*t.undo) - 1; i >= t.mark; i-- {
		(*t.undo)[i]()
	}
	*t.undo = (*t.undo)[:t.mark]
	return nil
}

func bindTx(tx pgx.Tx) *memTx {
	mt, _ := tx.(*memTx)
	return mt
}

type memTransactor struct {
	store *memStore
}

func (t memTransactor) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx := newMemTx(t.store)
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type memMonkeys struct{ s *memStore }

func (r memMonkeys) GetByID(ctx context.Context, id int64) (*monkey.Monkey, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.monkeys[id]
	if !ok {
		return nil, monkey.ErrMonkeyNotFound{MonkeyID: id}
	}
	return &m, nil
}

func (r memMonkeys) WithTx(tx pgx.Tx) monkey.Repository { return r }

type memDirectory struct{ s *memStore }

func (r memDirectory) GetLocationByID(ctx context.Context, id int64) (*directory.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.locations[id]
	if !ok {
		return nil, directory.ErrLocationNotFound{LocationID: id}
	}
	return &l, nil
}

func (r memDirectory) GetRouteBetween(ctx context.Context, sourceLocationID, destinationLocationID int64) (*directory.Route, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, route := range r.s.routes {
		if route.SourceLocationID == sourceLocationID && route.DestinationLocationID == destinationLocationID {
			found := route
			return &found, nil
		}
	}
	return nil, directory.ErrRouteNotFound{SourceLocationID: sourceLocationID, DestinationLocationID: destinationLocationID}
}

func (r memDirectory) WithTx(tx pgx.Tx) directory.Repository { return r }

type memJourneys struct {
	s  *memStore
	tx *memTx
}

func (r memJourneys) OpenJourney(ctx context.Context, startLocationID int64, startTime time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextJourneyID++
	id := r.s.nextJourneyID
	r.s.putJourney(r.tx, journey.Journey{
		ID:              id,
		StartTime:       startTime,
		Status:          journey.StatusStarted,
		StartLocationID: startLocationID,
	})
	return id, nil
}

func (r memJourneys) GetByID(ctx context.Context, id int64) (*journey.Journey, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.journeys[id]
	if !ok {
		return nil, journey.ErrJourneyNotFound{JourneyID: id}
	}
	return &j, nil
}

func (r memJourneys) AttachToken(ctx context.Context, id int64, attachment journey.TokenAttachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for otherID, other := range r.s.journeys {
		if otherID != id && other.QRToken != nil && *other.QRToken == attachment.Token {
			return journey.ErrDuplicateToken{}
		}
	}
	j, ok := r.s.journeys[id]
	if !ok || j.Status == journey.StatusCompleted || j.QRScannedAt != nil {
		return journey.ErrJourneyAlreadyCompleted{JourneyID: id}
	}

	destinationID, routeID, token, generatedAt := attachment.DestinationID, attachment.RouteID, attachment.Token, attachment.GeneratedAt
	j.RequestedDestinationID = &destinationID
	j.RouteID = &routeID
	j.QRToken = &token
	j.QRGeneratedAt = &generatedAt
	j.Status = journey.StatusQRGenerated
	r.s.putJourney(r.tx, j)
	return nil
}

func (r memJourneys) FindByToken(ctx context.Context, token string) (*journey.TokenBinding, error) {
	binding, hook, err := r.findByToken(token)
	if hook != nil {
		hook()
	}
	return binding, err
}

func (r memJourneys) findByToken(token string) (*journey.TokenBinding, func(), error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, j := range r.s.journeys {
		if j.QRToken == nil || *j.QRToken != token {
			continue
		}
		for _, route := range r.s.routes {
			if j.RouteID != nil && route.ID == *j.RouteID {
				return &journey.TokenBinding{Journey: j, Route: route}, r.s.afterTokenRead, nil
			}
		}
	}
	return nil, nil, journey.ErrTokenNotFound{}
}

func (r memJourneys) CompleteIfUnscanned(ctx context.Context, id int64, token string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.journeys[id]
	if !ok || j.QRToken == nil || *j.QRToken != token || j.QRScannedAt != nil || j.Status != journey.StatusQRGenerated {
		return journey.ErrAlreadyScanned{JourneyID: id}
	}
	scannedAt := at
	j.QRScannedAt = &scannedAt
	j.EndTime = &scannedAt
	j.Status = journey.StatusCompleted
	r.s.putJourney(r.tx, j)
	return nil
}

func (r memJourneys) DeleteIfStarted(ctx context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.journeys[id]
	if !ok || j.Status != journey.StatusStarted {
		return false, nil
	}
	delete(r.s.journeys, id)
	r.tx.journal(func() { r.s.journeys[id] = j })
	return true, nil
}

func (r memJourneys) WithTx(tx pgx.Tx) journey.Repository {
	return memJourneys{s: r.s, tx: bindTx(tx)}
}

type memEvents struct {
	s  *memStore
	tx *memTx
}

func (r memEvents) Append(ctx context.Context, e *event.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextEventID++
	e.ID = r.s.nextEventID
	r.s.events = append(r.s.events, *e)
	id := e.ID
	r.tx.journal(func() {
		for i := range r.s.events {
			if r.s.events[i].ID == id {
				r.s.events = append(r.s.events[:i], r.s.events[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r memEvents) WithTx(tx pgx.Tx) event.Repository {
	return memEvents{s: r.s, tx: bindTx(tx)}
}

type memOutbox struct {
	s  *memStore
	tx *memTx
}

func (r memOutbox) Create(ctx context.Context, message *outbox.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextOutboxID++
	message.ID = r.s.nextOutboxID
	r.s.outbox = append(r.s.outbox, *message)
	id := message.ID
	r.tx.journal(func() {
		if i := r.s.outboxIndex(id); i >= 0 {
			r.s.outbox = append(r.s.outbox[:i], r.s.outbox[i+1:]...)
		}
	})
	return nil
}

func (r memOutbox) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var pending []*outbox.Message
	for i := range r.s.outbox {
		if r.s.outbox[i].Status == shared.OutboxStatusPending && len(pending) < limit {
			m := r.s.outbox[i]
			pending = append(pending, &m)
		}
	}
	return pending, nil
}

func (r memOutbox) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.outboxIndex(id)
	if i < 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	r.s.outbox[i].Status = status
	return nil
}

func (r memOutbox) IncrementAttempts(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.outboxIndex(id)
	if i < 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	r.s.outbox[i].Attempts++
	return nil
}

func (r memOutbox) WithTx(tx pgx.Tx) outbox.Repository {
	return memOutbox{s: r.s, tx: bindTx(tx)}
}

// outboxIndex locates a message by id. Callers hold mu.
func (s *memStore) outboxIndex(id int64) int {
	for i := range s.outbox {
		if s.outbox[i].ID == id {
			return i
		}
	}
	return -1
}
