package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"partylodge/internal/app/commands"
	occupancyapp "partylodge/internal/app/handlers/occupancy"
	"partylodge/internal/app/policies"
)

// OccupancyHandler exposes the lifecycle operations. The commerce-facing
// calls (reserve, attach order, occupy, release) and the self-service ones
// (move, manager, description, avatar, occupants) share the dispatcher.
type OccupancyHandler struct {
	Commands  commands.Bus
	Ticketing policies.TicketingPort
	Logger    *slog.Logger
}

type reserveRequest struct {
	BungalowID string `json:"bungalow_id" binding:"required"`
	OccupierID string `json:"occupier_id" binding:"required"`
}

func (h OccupancyHandler) Reserve(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := occupancyapp.ReserveCommand{
		BungalowID: req.BungalowID,
		OccupierID: req.OccupierID,
	}
	result, err := commands.Dispatch[occupancyapp.ReserveCommand, *occupancyapp.ReserveResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type attachOrderRequest struct {
	ReservationID string `json:"reservation_id" binding:"required"`
	OccupancyID   string `json:"occupancy_id" binding:"required"`
	OrderNumber   string `json:"order_number" binding:"required"`
	OrdererID     string `json:"orderer_id" binding:"required"`
}

func (h OccupancyHandler) AttachOrder(c *gin.Context) {
	var req attachOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := occupancyapp.AttachOrderCommand{
		ReservationID:   req.ReservationID,
		OccupancyID:     req.OccupancyID,
		OrderNumber:     req.OrderNumber,
		OrdererID:       req.OrdererID,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[occupancyapp.AttachOrderCommand, *occupancyapp.AttachOrderResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type occupyRequest struct {
	ReservationID  string `json:"reservation_id" binding:"required"`
	OccupancyID    string `json:"occupancy_id" binding:"required"`
	TicketBundleID string `json:"ticket_bundle_id" binding:"required"`
	InitiatorID    string `json:"initiator_id"`
	PartyID        string `json:"party_id"`
}

func (h OccupancyHandler) Occupy(c *gin.Context) {
	var req occupyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := occupancyapp.OccupyFromReservationCommand{
		ReservationID:   req.ReservationID,
		OccupancyID:     req.OccupancyID,
		TicketBundleID:  req.TicketBundleID,
		InitiatorID:     req.InitiatorID,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[occupancyapp.OccupyFromReservationCommand, *occupancyapp.OccupyResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		renderError(c, err)
		return
	}
	h.assignFirstTicket(c, req.PartyID, req.TicketBundleID, result.OccupierID)
	c.JSON(http.StatusOK, result)
}

type occupyDirectRequest struct {
	BungalowID     string `json:"bungalow_id" binding:"required"`
	TicketBundleID string `json:"ticket_bundle_id" binding:"required"`
	InitiatorID    string `json:"initiator_id"`
	OrderNumber    string `json:"order_number"`
	PartyID        string `json:"party_id"`
}

func (h OccupancyHandler) OccupyDirect(c *gin.Context) {
	var req occupyDirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := occupancyapp.OccupyWithoutReservationCommand{
		BungalowID:      req.BungalowID,
		TicketBundleID:  req.TicketBundleID,
		InitiatorID:     req.InitiatorID,
		OrderNumber:     req.OrderNumber,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[occupancyapp.OccupyWithoutReservationCommand, *occupancyapp.OccupyResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		renderError(c, err)
		return
	}
	h.assignFirstTicket(c, req.PartyID, req.TicketBundleID, result.OccupierID)
	c.JSON(http.StatusCreated, result)
}

// assignFirstTicket runs the best-effort post-occupation step; a failure is
// logged, never surfaced to the caller.
func (h OccupancyHandler) assignFirstTicket(c *gin.Context, partyID, bundleID, occupierID string) {
	if h.Ticketing == nil || partyID == "" {
		return
	}
	if err := occupancyapp.AssignFirstTicket(c.Request.Context(), h.Ticketing, partyID, bundleID, occupierID); err != nil && h.Logger != nil {
		h.Logger.Warn("first ticket assignment failed", "ticket_bundle_id", bundleID, "err", err)
	}
}

type releaseRequest struct {
	InitiatorID string `json:"initiator_id"`
}

func (h OccupancyHandler) Release(c *gin.Context) {
	var req releaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := occupancyapp.ReleaseCommand{
		OccupancyID:     c.Param("id"),
		InitiatorID:     req.InitiatorID,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[occupancyapp.ReleaseCommand, *occupancyapp.ReleaseResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type moveRequest struct {
	TargetBungalowID string `json:"target_bungalow_id" binding:"required"`
	InitiatorID      string `json:"initiator_id"`
}

func (h OccupancyHandler) Move(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := occupancyapp.MoveCommand{
		OccupancyID:      c.Param("id"),
		TargetBungalowID: req.TargetBungalowID,
		InitiatorID:      req.InitiatorID,
	}
	result, err := commands.Dispatch[occupancyapp.MoveCommand, *occupancyapp.MoveResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type appointManagerRequest struct {
	NewManagerID string `json:"new_manager_id" binding:"required"`
	InitiatorID  string `json:"initiator_id"`
}

func (h OccupancyHandler) AppointManager(c *gin.Context) {
	var req appointManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := occupancyapp.AppointManagerCommand{
		OccupancyID:  c.Param("id"),
		NewManagerID: req.NewManagerID,
		InitiatorID:  req.InitiatorID,
	}
	result, err := commands.Dispatch[occupancyapp.AppointManagerCommand, *occupancyapp.AppointManagerResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		renderError(c, err)
		return
	}
	response := gin.H{"ticket_bundle_id": result.TicketBundleID}
	if h.Ticketing != nil && result.TicketBundleID != "" {
		failed, err := occupancyapp.ReassignTicketManagers(c.Request.Context(), h.Ticketing, result.TicketBundleID, req.NewManagerID, req.InitiatorID)
		if err != nil {
			if h.Logger != nil {
				h.Logger.Warn("ticket manager reassignment failed", "ticket_bundle_id", result.TicketBundleID, "err", err)
			}
		} else if len(failed) > 0 {
			response["failed_ticket_ids"] = failed
		}
	}
	c.JSON(http.StatusOK, response)
}

type remarkRequest struct {
	Remark string `json:"remark"`
}

func (h OccupancyHandler) SetInternalRemark(c *gin.Context) {
	var req remarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := occupancyapp.SetInternalRemarkCommand{
		OccupancyID: c.Param("id"),
		Remark:      req.Remark,
	}
	if _, err := commands.Dispatch[occupancyapp.SetInternalRemarkCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type pinnedRequest struct {
	Pinned bool `json:"pinned"`
}

func (h OccupancyHandler) SetPinned(c *gin.Context) {
	var req pinnedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := occupancyapp.SetPinnedCommand{
		OccupancyID: c.Param("id"),
		Pinned:      req.Pinned,
	}
	if _, err := commands.Dispatch[occupancyapp.SetPinnedCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type descriptionRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	InitiatorID string `json:"initiator_id"`
}

func (h OccupancyHandler) UpdateDescription(c *gin.Context) {
	var req descriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := occupancyapp.UpdateDescriptionCommand{
		OccupancyID: c.Param("id"),
		Title:       req.Title,
		Description: req.Description,
		InitiatorID: req.InitiatorID,
	}
	result, err := commands.Dispatch[occupancyapp.UpdateDescriptionCommand, *occupancyapp.UpdateDescriptionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h OccupancyHandler) UpdateAvatar(c *gin.Context) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	defer file.Close()
	cmd := occupancyapp.UpdateAvatarCommand{
		OccupancyID: c.Param("id"),
		InitiatorID: c.PostForm("initiator_id"),
		Image:       file,
	}
	result, err := commands.Dispatch[occupancyapp.UpdateAvatarCommand, *occupancyapp.UpdateAvatarResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type removeAvatarRequest struct {
	InitiatorID string `json:"initiator_id"`
}

func (h OccupancyHandler) RemoveAvatar(c *gin.Context) {
	var req removeAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := occupancyapp.RemoveAvatarCommand{
		OccupancyID: c.Param("id"),
		InitiatorID: req.InitiatorID,
	}
	result, err := commands.Dispatch[occupancyapp.RemoveAvatarCommand, *occupancyapp.RemoveAvatarResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type addOccupantRequest struct {
	TicketID    string `json:"ticket_id" binding:"required"`
	OccupantID  string `json:"occupant_id" binding:"required"`
	InitiatorID string `json:"initiator_id"`
}

func (h OccupancyHandler) AddOccupant(c *gin.Context) {
	var req addOccupantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := occupancyapp.AddOccupantCommand{
		OccupancyID: c.Param("id"),
		TicketID:    req.TicketID,
		OccupantID:  req.OccupantID,
		InitiatorID: req.InitiatorID,
	}
	result, err := commands.Dispatch[occupancyapp.AddOccupantCommand, *occupancyapp.AddOccupantResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type removeOccupantRequest struct {
	TicketID    string `json:"ticket_id" binding:"required"`
	OccupantID  string `json:"occupant_id"`
	InitiatorID string `json:"initiator_id"`
}

func (h OccupancyHandler) RemoveOccupant(c *gin.Context) {
	var req removeOccupantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := occupancyapp.RemoveOccupantCommand{
		OccupancyID: c.Param("id"),
		TicketID:    req.TicketID,
		OccupantID:  req.OccupantID,
		InitiatorID: req.InitiatorID,
	}
	result, err := commands.Dispatch[occupancyapp.RemoveOccupantCommand, *occupancyapp.RemoveOccupantResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
