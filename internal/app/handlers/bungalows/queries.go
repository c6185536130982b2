// Package bungalows holds the read side: party listings, per-unit views,
// audit log access, and occupation statistics.
package bungalows

import (
	"context"
	"errors"
	"sort"

	"partylodge/internal/app/queries"
	"partylodge/internal/app/uow"
	"partylodge/internal/domain/auditlog"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

const listForPartyKey = "bungalows.list_for_party"

// ListForPartyQuery returns the party's bungalows ordered by number.
type ListForPartyQuery struct {
	PartyID string
}

func (q ListForPartyQuery) Key() string { return listForPartyKey }

type ListForPartyHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListForPartyHandler) Handle(ctx context.Context, q ListForPartyQuery) ([]*bungalow.Bungalow, error) {
	var result []*bungalow.Bungalow
	err := uow.Run(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		list, err := unit.Bungalows().ListForParty(ctx, q.PartyID)
		if err != nil {
			return err
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Number < list[j].Number })
		result = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ queries.Handler[ListForPartyQuery, []*bungalow.Bungalow] = (*ListForPartyHandler)(nil)

const viewByNumberKey = "bungalows.view_by_number"

// ViewByNumberQuery resolves a bungalow and its occupancy, if any.
type ViewByNumberQuery struct {
	PartyID string
	Number  int
}

func (q ViewByNumberQuery) Key() string { return viewByNumberKey }

type BungalowView struct {
	Bungalow  *bungalow.Bungalow
	Occupancy *occupation.Occupancy
}

type ViewByNumberHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ViewByNumberHandler) Handle(ctx context.Context, q ViewByNumberQuery) (*BungalowView, error) {
	var result *BungalowView
	err := uow.Run(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bungalows().ByNumber(ctx, q.PartyID, q.Number)
		if err != nil {
			return err
		}
		view := &BungalowView{Bungalow: b}
		occ, err := unit.Occupancies().ByBungalow(ctx, b.ID)
		switch {
		case err == nil:
			view.Occupancy = occ
		case errors.Is(err, occupation.ErrOccupancyNotFound):
		default:
			return err
		}
		result = view
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ queries.Handler[ViewByNumberQuery, *BungalowView] = (*ViewByNumberHandler)(nil)

const auditLogKey = "bungalows.audit_log"

// AuditLogQuery returns a bungalow's log entries ordered by occurred-at,
// optionally filtered by event type.
type AuditLogQuery struct {
	BungalowID string
	EventType  string
}

func (q AuditLogQuery) Key() string { return auditLogKey }

type AuditLogHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *AuditLogHandler) Handle(ctx context.Context, q AuditLogQuery) ([]auditlog.Entry, error) {
	var result []auditlog.Entry
	err := uow.Run(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		var (
			entries []auditlog.Entry
			err     error
		)
		if q.EventType != "" {
			entries, err = unit.AuditLog().ListForBungalowByType(ctx, bungalow.BungalowID(q.BungalowID), q.EventType)
		} else {
			entries, err = unit.AuditLog().ListForBungalow(ctx, bungalow.BungalowID(q.BungalowID))
		}
		if err != nil {
			return err
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].OccurredAt.Before(entries[j].OccurredAt) })
		result = entries
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ queries.Handler[AuditLogQuery, []auditlog.Entry] = (*AuditLogHandler)(nil)

const statsKey = "bungalows.occupation_stats"

// OccupationStatsQuery totals a party's bungalows by occupation state and per
// category.
type OccupationStatsQuery struct {
	PartyID string
}

func (q OccupationStatsQuery) Key() string { return statsKey }

type CategorySummary struct {
	Category bungalow.Category
	Totals   bungalow.StateTotals
}

type OccupationStats struct {
	Totals     bungalow.StateTotals
	Categories []CategorySummary
}

type OccupationStatsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *OccupationStatsHandler) Handle(ctx context.Context, q OccupationStatsQuery) (*OccupationStats, error) {
	var result *OccupationStats
	err := uow.Run(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		list, err := unit.Bungalows().ListForParty(ctx, q.PartyID)
		if err != nil {
			return err
		}
		stats := &OccupationStats{}
		byCategory := map[bungalow.CategoryID]*CategorySummary{}
		order := []bungalow.CategoryID{}
		for _, b := range list {
			summary, ok := byCategory[b.CategoryID]
			if !ok {
				summary = &CategorySummary{Category: b.Category}
				byCategory[b.CategoryID] = summary
				order = append(order, b.CategoryID)
			}
			switch b.OccupationState {
			case bungalow.StateAvailable:
				stats.Totals.Available++
				summary.Totals.Available++
			case bungalow.StateReserved:
				stats.Totals.Reserved++
				summary.Totals.Reserved++
			case bungalow.StateOccupied:
				stats.Totals.Occupied++
				summary.Totals.Occupied++
			}
		}
		sort.Slice(order, func(i, j int) bool {
			return byCategory[order[i]].Category.Title < byCategory[order[j]].Category.Title
		})
		for _, id := range order {
			stats.Categories = append(stats.Categories, *byCategory[id])
		}
		result = stats
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ queries.Handler[OccupationStatsQuery, *OccupationStats] = (*OccupationStatsHandler)(nil)
