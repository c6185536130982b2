package occupancy

import (
	"context"

	"partylodge/internal/app/commands"
	"partylodge/internal/app/policies"
	"partylodge/internal/app/uow"
	"partylodge/internal/domain/auditlog"
	"partylodge/internal/domain/occupation"
)

const appointManagerKey = "occupancy.appoint_manager"

// AppointManagerCommand hands management of an occupied bungalow to another
// user. The appointment itself is transactional; re-pointing the user manager
// of each bundle ticket is a separate best-effort step, see
// ReassignTicketManagers.
type AppointManagerCommand struct {
	OccupancyID  string
	NewManagerID string
	InitiatorID  string
}

func (c AppointManagerCommand) Key() string { return appointManagerKey }

type AppointManagerResult struct {
	TicketBundleID string
}

type AppointManagerHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *AppointManagerHandler) Handle(ctx context.Context, cmd AppointManagerCommand) (*AppointManagerResult, error) {
	var result *AppointManagerResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		occ, err := unit.Occupancies().ByID(ctx, occupation.OccupancyID(cmd.OccupancyID))
		if err != nil {
			return err
		}
		if err := occ.AppointManager(cmd.NewManagerID); err != nil {
			return err
		}
		if err := unit.Occupancies().Save(ctx, occ); err != nil {
			return err
		}

		entry := auditlog.BuildEntry("manager-appointed", occ.BungalowID, auditlog.EntryData{
			"initiator_id":   cmd.InitiatorID,
			"new_manager_id": cmd.NewManagerID,
		})
		if err := unit.AuditLog().Append(ctx, entry); err != nil {
			return err
		}

		result = &AppointManagerResult{TicketBundleID: occ.TicketBundleID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[AppointManagerCommand, *AppointManagerResult] = (*AppointManagerHandler)(nil)

// ReassignTicketManagers re-points the user manager of every ticket in the
// bundle to the newly appointed manager. It runs after the appointment has
// committed; tickets that fail are collected rather than rolling anything
// back, so callers can retry or surface them.
func ReassignTicketManagers(ctx context.Context, ticketing policies.TicketingPort, bundleID, newManagerID, initiatorID string) ([]string, error) {
	bundle, err := ticketing.GetBundle(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	var failed []string
	for _, ticket := range bundle.Tickets {
		if ticket.Revoked {
			continue
		}
		if err := ticketing.AppointUserManager(ctx, ticket.ID, newManagerID, initiatorID); err != nil {
			failed = append(failed, ticket.ID)
		}
	}
	return failed, nil
}
