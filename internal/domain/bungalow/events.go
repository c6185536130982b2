package bungalow

import "time"

type BungalowReservedEvent struct {
	BungalowID     BungalowID
	BungalowNumber int
	OccupierID     string
	InitiatorID    string
	At             time.Time
}

func (e BungalowReservedEvent) EventName() string     { return "bungalow.reserved" }
func (e BungalowReservedEvent) AggregateID() string   { return string(e.BungalowID) }
func (e BungalowReservedEvent) OccurredAt() time.Time { return e.At }

type BungalowOccupiedEvent struct {
	BungalowID     BungalowID
	BungalowNumber int
	OccupierID     string
	InitiatorID    string
	At             time.Time
}

func (e BungalowOccupiedEvent) EventName() string     { return "bungalow.occupied" }
func (e BungalowOccupiedEvent) AggregateID() string   { return string(e.BungalowID) }
func (e BungalowOccupiedEvent) OccurredAt() time.Time { return e.At }

type BungalowReleasedEvent struct {
	BungalowID     BungalowID
	BungalowNumber int
	InitiatorID    string
	At             time.Time
}

func (e BungalowReleasedEvent) EventName() string     { return "bungalow.released" }
func (e BungalowReleasedEvent) AggregateID() string   { return string(e.BungalowID) }
func (e BungalowReleasedEvent) OccurredAt() time.Time { return e.At }

type BungalowOccupancyMovedEvent struct {
	SourceBungalowID     BungalowID
	SourceBungalowNumber int
	TargetBungalowID     BungalowID
	TargetBungalowNumber int
	InitiatorID          string
	At                   time.Time
}

func (e BungalowOccupancyMovedEvent) EventName() string     { return "bungalow.occupancy_moved" }
func (e BungalowOccupancyMovedEvent) AggregateID() string   { return string(e.SourceBungalowID) }
func (e BungalowOccupancyMovedEvent) OccurredAt() time.Time { return e.At }

type BungalowOrderPlacedEvent struct {
	BungalowID     BungalowID
	BungalowNumber int
	OrderNumber    string
	OrdererID      string
	At             time.Time
}

func (e BungalowOrderPlacedEvent) EventName() string     { return "bungalow.order_placed" }
func (e BungalowOrderPlacedEvent) AggregateID() string   { return string(e.BungalowID) }
func (e BungalowOrderPlacedEvent) OccurredAt() time.Time { return e.At }

type BungalowOccupancyDescriptionUpdatedEvent struct {
	BungalowID     BungalowID
	BungalowNumber int
	InitiatorID    string
	At             time.Time
}

func (e BungalowOccupancyDescriptionUpdatedEvent) EventName() string {
	return "bungalow.occupancy_description_updated"
}
func (e BungalowOccupancyDescriptionUpdatedEvent) AggregateID() string { return string(e.BungalowID) }
func (e BungalowOccupancyDescriptionUpdatedEvent) OccurredAt() time.Time {
	return e.At
}

type BungalowOccupancyAvatarUpdatedEvent struct {
	BungalowID     BungalowID
	BungalowNumber int
	InitiatorID    string
	At             time.Time
}

func (e BungalowOccupancyAvatarUpdatedEvent) EventName() string {
	return "bungalow.occupancy_avatar_updated"
}
func (e BungalowOccupancyAvatarUpdatedEvent) AggregateID() string   { return string(e.BungalowID) }
func (e BungalowOccupancyAvatarUpdatedEvent) OccurredAt() time.Time { return e.At }

type BungalowOccupantAddedEvent struct {
	BungalowID     BungalowID
	BungalowNumber int
	OccupantID     string
	InitiatorID    string
	At             time.Time
}

func (e BungalowOccupantAddedEvent) EventName() string     { return "bungalow.occupant_added" }
func (e BungalowOccupantAddedEvent) AggregateID() string   { return string(e.BungalowID) }
func (e BungalowOccupantAddedEvent) OccurredAt() time.Time { return e.At }

type BungalowOccupantRemovedEvent struct {
	BungalowID     BungalowID
	BungalowNumber int
	OccupantID     string
	InitiatorID    string
	At             time.Time
}

func (e BungalowOccupantRemovedEvent) EventName() string     { return "bungalow.occupant_removed" }
func (e BungalowOccupantRemovedEvent) AggregateID() string   { return string(e.BungalowID) }
func (e BungalowOccupantRemovedEvent) OccurredAt() time.Time { return e.At }
