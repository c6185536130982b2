package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/IBM/sarama"

	"partylodge/internal/app/commands"
	occupancyhandlers "partylodge/internal/app/handlers/occupancy"
	"partylodge/internal/app/uow"
	"partylodge/internal/domain/occupation"
)

// orderEvent is the CloudEvents frame published by the commerce service.
type orderEvent struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data orderEventData `json:"data"`
}

// Inbox deduplicates deliveries; Seen reports whether the event was already
// processed by this consumer group.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

type orderEventData struct {
	OrderNumber    string `json:"order_number"`
	TicketBundleID string `json:"ticket_bundle_id"`
	InitiatorID    string `json:"initiator_id"`
}

// OrderEventHandler reacts to commerce order events: a paid order turns the
// reservation into a full occupation, a canceled order releases the unit.
// Unknown event types are acknowledged and skipped.
type OrderEventHandler struct {
	Bus        commands.Bus
	UoWFactory uow.UoWFactory
	Inbox      Inbox
	Logger     *slog.Logger
}

func (h *OrderEventHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt orderEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		h.log().Error("order event decode failed", "err", err, "offset", msg.Offset)
		return nil
	}
	if h.Inbox != nil && evt.ID != "" {
		seen, err := h.Inbox.Seen(ctx, evt.ID)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}
	switch evt.Type {
	case "order.paid.v1":
		return h.orderPaid(ctx, evt.Data)
	case "order.canceled.v1":
		return h.orderCanceled(ctx, evt.Data)
	default:
		return nil
	}
}

func (h *OrderEventHandler) orderPaid(ctx context.Context, data orderEventData) error {
	occ, res, err := h.lookupByOrderNumber(ctx, data.OrderNumber)
	if err != nil {
		if errors.Is(err, occupation.ErrOccupancyNotFound) {
			h.log().Warn("paid order without occupancy", "order_number", data.OrderNumber)
			return nil
		}
		return err
	}
	if occ.State == occupation.StateOccupied {
		return nil
	}
	if res == nil {
		h.log().Warn("paid order without reservation", "order_number", data.OrderNumber)
		return nil
	}
	cmd := occupancyhandlers.OccupyFromReservationCommand{
		ReservationID:   string(res.ID),
		OccupancyID:     string(occ.ID),
		TicketBundleID:  data.TicketBundleID,
		InitiatorID:     data.InitiatorID,
		IdempotencyKeyV: "order-paid:" + data.OrderNumber,
	}
	_, err = commands.Dispatch[occupancyhandlers.OccupyFromReservationCommand, *occupancyhandlers.OccupyResult](ctx, h.Bus, cmd)
	return err
}

func (h *OrderEventHandler) orderCanceled(ctx context.Context, data orderEventData) error {
	occ, _, err := h.lookupByOrderNumber(ctx, data.OrderNumber)
	if err != nil {
		if errors.Is(err, occupation.ErrOccupancyNotFound) {
			return nil
		}
		return err
	}
	cmd := occupancyhandlers.ReleaseCommand{
		OccupancyID:     string(occ.ID),
		InitiatorID:     data.InitiatorID,
		IdempotencyKeyV: "order-canceled:" + data.OrderNumber,
	}
	_, err = commands.Dispatch[occupancyhandlers.ReleaseCommand, *occupancyhandlers.ReleaseResult](ctx, h.Bus, cmd)
	return err
}

func (h *OrderEventHandler) lookupByOrderNumber(ctx context.Context, orderNumber string) (*occupation.Occupancy, *occupation.Reservation, error) {
	var (
		occ *occupation.Occupancy
		res *occupation.Reservation
	)
	err := uow.Run(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		found, err := unit.Occupancies().ByOrderNumber(ctx, orderNumber)
		if err != nil {
			return err
		}
		occ = found
		r, err := unit.Reservations().ByBungalow(ctx, occ.BungalowID)
		switch {
		case err == nil:
			res = r
		case errors.Is(err, occupation.ErrReservationNotFound):
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return occ, res, nil
}

func (h *OrderEventHandler) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ MessageHandler = (*OrderEventHandler)(nil)
