package memory

import (
	"context"
	"sync"

	"partylodge/internal/app/policies"
)

// TicketingService is the in-memory ticketing collaborator for demo mode.
// Bundles are seeded up front (fixtures or tests); seat appointments mutate
// the stored tickets so the occupant roster reads back what was written.
type TicketingService struct {
	mu       sync.RWMutex
	bundles  map[string]policies.TicketBundle
	parties  map[string]string
	managers map[string]string
}

func NewTicketingService() *TicketingService {
	return &TicketingService{
		bundles:  make(map[string]policies.TicketBundle),
		parties:  make(map[string]string),
		managers: make(map[string]string),
	}
}

// PutBundle seeds or replaces a bundle and records the party it belongs to.
func (s *TicketingService) PutBundle(partyID string, bundle policies.TicketBundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles[bundle.ID] = cloneBundle(bundle)
	s.parties[bundle.ID] = partyID
}

func (s *TicketingService) GetBundle(ctx context.Context, bundleID string) (policies.TicketBundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bundle, ok := s.bundles[bundleID]
	if !ok {
		return policies.TicketBundle{}, policies.ErrBundleNotFound
	}
	return cloneBundle(bundle), nil
}

func (s *TicketingService) AppointUserManager(ctx context.Context, ticketID, newManagerID, initiatorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, _, ok := s.findTicket(ticketID); !ok {
		return policies.ErrTicketNotFound
	}
	s.managers[ticketID] = newManagerID
	return nil
}

func (s *TicketingService) AppointUser(ctx context.Context, ticketID, userID, initiatorID string) error {
	return s.setUser(ticketID, userID)
}

func (s *TicketingService) WithdrawUser(ctx context.Context, ticketID, initiatorID string) error {
	return s.setUser(ticketID, "")
}

func (s *TicketingService) UsesAnyTicketForParty(ctx context.Context, userID, partyID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for bundleID, bundle := range s.bundles {
		if s.parties[bundleID] != partyID {
			continue
		}
		for _, t := range bundle.Tickets {
			if !t.Revoked && t.UsedByID == userID {
				return true, nil
			}
		}
	}
	return false, nil
}

// UserManager exposes the recorded manager appointment for tests.
func (s *TicketingService) UserManager(ticketID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.managers[ticketID]
}

func (s *TicketingService) setUser(ticketID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bundleID, idx, ok := s.findTicket(ticketID)
	if !ok {
		return policies.ErrTicketNotFound
	}
	bundle := s.bundles[bundleID]
	bundle.Tickets[idx].UsedByID = userID
	s.bundles[bundleID] = bundle
	return nil
}

// findTicket must be called under the lock.
func (s *TicketingService) findTicket(ticketID string) (bundleID string, idx int, ok bool) {
	for id, bundle := range s.bundles {
		for i, t := range bundle.Tickets {
			if t.ID == ticketID {
				return id, i, true
			}
		}
	}
	return "", 0, false
}

func cloneBundle(bundle policies.TicketBundle) policies.TicketBundle {
	out := bundle
	out.Tickets = append([]policies.Ticket(nil), bundle.Tickets...)
	return out
}

var _ policies.TicketingPort = (*TicketingService)(nil)
