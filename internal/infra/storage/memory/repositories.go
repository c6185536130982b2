package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"partylodge/internal/domain/auditlog"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

// ErrNumberTaken mirrors the Mongo unique index on (party_id, number).
var ErrNumberTaken = errors.New("memory: bungalow number already taken for party")

// BungalowRegistry is an in-memory implementation used in tests and demo
// mode. Number uniqueness per party is enforced under the lock, mirroring
// the Mongo unique index.
type BungalowRegistry struct {
	mu    sync.RWMutex
	items map[bungalow.BungalowID]bungalow.Bungalow
}

func NewBungalowRegistry() *BungalowRegistry {
	return &BungalowRegistry{items: make(map[bungalow.BungalowID]bungalow.Bungalow)}
}

func (r *BungalowRegistry) ByID(ctx context.Context, id bungalow.BungalowID) (*bungalow.Bungalow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, bungalow.ErrNotFound
	}
	return &b, nil
}

func (r *BungalowRegistry) ByNumber(ctx context.Context, partyID string, number int) (*bungalow.Bungalow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.items {
		if b.PartyID == partyID && b.Number == number {
			copied := b
			return &copied, nil
		}
	}
	return nil, bungalow.ErrNotFound
}

func (r *BungalowRegistry) ListForParty(ctx context.Context, partyID string) ([]*bungalow.Bungalow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*bungalow.Bungalow
	for _, b := range r.items {
		if b.PartyID == partyID {
			copied := b
			list = append(list, &copied)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Number < list[j].Number })
	return list, nil
}

func (r *BungalowRegistry) Save(ctx context.Context, b *bungalow.Bungalow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.items {
		if id != b.ID && existing.PartyID == b.PartyID && existing.Number == b.Number {
			return ErrNumberTaken
		}
	}
	r.items[b.ID] = *b
	return nil
}

func (r *BungalowRegistry) SetState(ctx context.Context, id bungalow.BungalowID, state bungalow.OccupationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return bungalow.ErrNotFound
	}
	b.OccupationState = state
	r.items[id] = b
	return nil
}

func (r *BungalowRegistry) SetDistributesNetwork(ctx context.Context, id bungalow.BungalowID, flag bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return bungalow.ErrNotFound
	}
	b.DistributesNetwork = flag
	r.items[id] = b
	return nil
}

func (r *BungalowRegistry) Delete(ctx context.Context, id bungalow.BungalowID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return bungalow.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

var _ bungalow.Registry = (*BungalowRegistry)(nil)

// CategoryRepository keeps the catalog reference data.
type CategoryRepository struct {
	mu    sync.RWMutex
	items map[bungalow.CategoryID]bungalow.Category
}

func NewCategoryRepository() *CategoryRepository {
	return &CategoryRepository{items: make(map[bungalow.CategoryID]bungalow.Category)}
}

func (r *CategoryRepository) ByID(ctx context.Context, id bungalow.CategoryID) (*bungalow.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[id]
	if !ok {
		return nil, bungalow.ErrCategoryNotFound
	}
	return &c, nil
}

func (r *CategoryRepository) Save(ctx context.Context, c *bungalow.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[c.ID] = *c
	return nil
}

var _ bungalow.CategoryRepository = (*CategoryRepository)(nil)

// ReservationLedger enforces the one-reservation-per-bungalow and unique
// order number constraints under its lock, so two concurrent reserves for the
// same unit produce exactly one winner.
type ReservationLedger struct {
	mu    sync.RWMutex
	items map[occupation.ReservationID]occupation.Reservation
}

func NewReservationLedger() *ReservationLedger {
	return &ReservationLedger{items: make(map[occupation.ReservationID]occupation.Reservation)}
}

func (r *ReservationLedger) ByID(ctx context.Context, id occupation.ReservationID) (*occupation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.items[id]
	if !ok {
		return nil, occupation.ErrReservationNotFound
	}
	return &res, nil
}

func (r *ReservationLedger) ByBungalow(ctx context.Context, bungalowID bungalow.BungalowID) (*occupation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, res := range r.items {
		if res.BungalowID == bungalowID {
			copied := res
			return &copied, nil
		}
	}
	return nil, occupation.ErrReservationNotFound
}

func (r *ReservationLedger) Create(ctx context.Context, res *occupation.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.BungalowID == res.BungalowID {
			return bungalow.ErrNotAvailable
		}
		if res.OrderNumber != "" && existing.OrderNumber == res.OrderNumber {
			return occupation.ErrOrderAlreadyAttached
		}
	}
	r.items[res.ID] = *res
	return nil
}

func (r *ReservationLedger) Save(ctx context.Context, res *occupation.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.items {
		if id == res.ID {
			continue
		}
		if res.OrderNumber != "" && existing.OrderNumber == res.OrderNumber {
			return occupation.ErrOrderAlreadyAttached
		}
	}
	r.items[res.ID] = *res
	return nil
}

func (r *ReservationLedger) Delete(ctx context.Context, id occupation.ReservationID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return occupation.ErrReservationNotFound
	}
	delete(r.items, id)
	return nil
}

var _ occupation.ReservationLedger = (*ReservationLedger)(nil)

// OccupancyLedger mirrors the Mongo unique indexes on bungalow and order
// number.
type OccupancyLedger struct {
	mu        sync.RWMutex
	items     map[occupation.OccupancyID]occupation.Occupancy
	bungalows *BungalowRegistry
}

// NewOccupancyLedger takes the registry so ManagedBy can resolve party
// membership through the bungalow rows, as the Mongo implementation does.
func NewOccupancyLedger(bungalows *BungalowRegistry) *OccupancyLedger {
	return &OccupancyLedger{
		items:     make(map[occupation.OccupancyID]occupation.Occupancy),
		bungalows: bungalows,
	}
}

func (r *OccupancyLedger) ByID(ctx context.Context, id occupation.OccupancyID) (*occupation.Occupancy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.items[id]
	if !ok {
		return nil, occupation.ErrOccupancyNotFound
	}
	return &o, nil
}

func (r *OccupancyLedger) ByBungalow(ctx context.Context, bungalowID bungalow.BungalowID) (*occupation.Occupancy, error) {
	return r.find(func(o occupation.Occupancy) bool { return o.BungalowID == bungalowID })
}

func (r *OccupancyLedger) ByTicketBundle(ctx context.Context, ticketBundleID string) (*occupation.Occupancy, error) {
	return r.find(func(o occupation.Occupancy) bool {
		return ticketBundleID != "" && o.TicketBundleID == ticketBundleID
	})
}

func (r *OccupancyLedger) ByOrderNumber(ctx context.Context, orderNumber string) (*occupation.Occupancy, error) {
	return r.find(func(o occupation.Occupancy) bool {
		return orderNumber != "" && o.OrderNumber == orderNumber
	})
}

func (r *OccupancyLedger) ManagedBy(ctx context.Context, partyID, userID string) (*occupation.Occupancy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.items {
		if o.ManagerID != userID {
			continue
		}
		b, err := r.bungalows.ByID(ctx, o.BungalowID)
		if err != nil {
			continue
		}
		if b.PartyID == partyID {
			copied := o
			return &copied, nil
		}
	}
	return nil, occupation.ErrOccupancyNotFound
}

func (r *OccupancyLedger) Create(ctx context.Context, o *occupation.Occupancy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.BungalowID == o.BungalowID {
			return bungalow.ErrNotAvailable
		}
		if o.OrderNumber != "" && existing.OrderNumber == o.OrderNumber {
			return occupation.ErrOrderAlreadyAttached
		}
	}
	r.items[o.ID] = *o
	return nil
}

func (r *OccupancyLedger) Save(ctx context.Context, o *occupation.Occupancy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.items {
		if id == o.ID {
			continue
		}
		if o.OrderNumber != "" && existing.OrderNumber == o.OrderNumber {
			return occupation.ErrOrderAlreadyAttached
		}
	}
	r.items[o.ID] = *o
	return nil
}

func (r *OccupancyLedger) Reparent(ctx context.Context, id occupation.OccupancyID, newBungalowID bungalow.BungalowID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.items[id]
	if !ok {
		return occupation.ErrOccupancyNotFound
	}
	for other, existing := range r.items {
		if other != id && existing.BungalowID == newBungalowID {
			return occupation.ErrTargetUnavailable
		}
	}
	o.BungalowID = newBungalowID
	r.items[id] = o
	return nil
}

func (r *OccupancyLedger) Delete(ctx context.Context, id occupation.OccupancyID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return occupation.ErrOccupancyNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *OccupancyLedger) find(match func(occupation.Occupancy) bool) (*occupation.Occupancy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.items {
		if match(o) {
			copied := o
			return &copied, nil
		}
	}
	return nil, occupation.ErrOccupancyNotFound
}

var _ occupation.OccupancyLedger = (*OccupancyLedger)(nil)

// AuditLog keeps entries in append order.
type AuditLog struct {
	mu      sync.RWMutex
	entries []auditlog.Entry
}

func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

func (l *AuditLog) Append(ctx context.Context, entry auditlog.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

func (l *AuditLog) ListForBungalow(ctx context.Context, bungalowID bungalow.BungalowID) ([]auditlog.Entry, error) {
	return l.list(func(e auditlog.Entry) bool { return e.BungalowID == bungalowID })
}

func (l *AuditLog) ListForBungalowByType(ctx context.Context, bungalowID bungalow.BungalowID, eventType string) ([]auditlog.Entry, error) {
	return l.list(func(e auditlog.Entry) bool {
		return e.BungalowID == bungalowID && e.EventType == eventType
	})
}

func (l *AuditLog) DeleteForBungalow(ctx context.Context, bungalowID bungalow.BungalowID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.BungalowID != bungalowID {
			kept = append(kept, e)
		}
	}
	l.entries = kept
	return nil
}

func (l *AuditLog) list(match func(auditlog.Entry) bool) ([]auditlog.Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []auditlog.Entry
	for _, e := range l.entries {
		if match(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

var _ auditlog.Log = (*AuditLog)(nil)
