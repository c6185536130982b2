package ginserver

import (
	"context"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	bungalowapp "partylodge/internal/app/handlers/bungalows"
	occupancyapp "partylodge/internal/app/handlers/occupancy"
	"partylodge/internal/app/policies"
	"partylodge/internal/app/queries"
	"partylodge/internal/app/uow"
	"partylodge/internal/domain/auditlog"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

// BungalowHandler serves the read side.
type BungalowHandler struct {
	Queries    queries.Bus
	UoWFactory uow.UoWFactory
	Ticketing  policies.TicketingPort
}

func (h BungalowHandler) List(c *gin.Context) {
	q := bungalowapp.ListForPartyQuery{PartyID: c.Param("party_id")}
	result, err := queries.Ask[bungalowapp.ListForPartyQuery, []*bungalow.Bungalow](c.Request.Context(), h.Queries, q)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bungalows": result})
}

func (h BungalowHandler) View(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bungalow number"})
		return
	}
	q := bungalowapp.ViewByNumberQuery{PartyID: c.Param("party_id"), Number: number}
	result, err := queries.Ask[bungalowapp.ViewByNumberQuery, *bungalowapp.BungalowView](c.Request.Context(), h.Queries, q)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BungalowHandler) AuditLog(c *gin.Context) {
	q := bungalowapp.AuditLogQuery{
		BungalowID: c.Param("id"),
		EventType:  c.Query("event_type"),
	}
	entries, err := queries.Ask[bungalowapp.AuditLogQuery, []auditlog.Entry](c.Request.Context(), h.Queries, q)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h BungalowHandler) Stats(c *gin.Context) {
	q := bungalowapp.OccupationStatsQuery{PartyID: c.Param("party_id")}
	result, err := queries.Ask[bungalowapp.OccupationStatsQuery, *bungalowapp.OccupationStats](c.Request.Context(), h.Queries, q)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BungalowHandler) ManagedBy(c *gin.Context) {
	q := bungalowapp.OccupancyManagedByQuery{
		PartyID: c.Param("party_id"),
		UserID:  c.Param("user_id"),
	}
	result, err := queries.Ask[bungalowapp.OccupancyManagedByQuery, *occupation.Occupancy](c.Request.Context(), h.Queries, q)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Occupants lists the ticket slots of an occupancy with their current users.
func (h BungalowHandler) Occupants(c *gin.Context) {
	if h.Ticketing == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ticketing unavailable"})
		return
	}
	var occ *occupation.Occupancy
	err := uow.Run(c.Request.Context(), h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		found, err := unit.Occupancies().ByID(ctx, occupation.OccupancyID(c.Param("id")))
		if err != nil {
			return err
		}
		occ = found
		return nil
	})
	if err != nil {
		renderError(c, err)
		return
	}
	slots, err := occupancyapp.OccupantSlots(c.Request.Context(), h.Ticketing, occ)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}
