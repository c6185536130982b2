package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"partylodge/internal/app/commands"
	offersapp "partylodge/internal/app/handlers/offers"
)

// OffersHandler covers the administrative offer lifecycle.
type OffersHandler struct {
	Commands commands.Bus
}

type offerRequest struct {
	PartyID            string `json:"party_id" binding:"required"`
	Number             int    `json:"number"`
	Numbers            []int  `json:"numbers"`
	CategoryID         string `json:"category_id" binding:"required"`
	DistributesNetwork bool   `json:"distributes_network"`
}

func (h OffersHandler) Offer(c *gin.Context) {
	var req offerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Numbers) > 0 {
		cmd := offersapp.OfferBungalowsCommand{
			PartyID:            req.PartyID,
			Numbers:            req.Numbers,
			CategoryID:         req.CategoryID,
			DistributesNetwork: req.DistributesNetwork,
		}
		result, err := commands.Dispatch[offersapp.OfferBungalowsCommand, *offersapp.OfferBungalowsResult](c.Request.Context(), h.Commands, cmd)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
		return
	}
	cmd := offersapp.OfferBungalowCommand{
		PartyID:            req.PartyID,
		Number:             req.Number,
		CategoryID:         req.CategoryID,
		DistributesNetwork: req.DistributesNetwork,
	}
	result, err := commands.Dispatch[offersapp.OfferBungalowCommand, *offersapp.OfferBungalowResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h OffersHandler) Withdraw(c *gin.Context) {
	cmd := offersapp.WithdrawBungalowCommand{BungalowID: c.Param("id")}
	if _, err := commands.Dispatch[offersapp.WithdrawBungalowCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type networkFlagRequest struct {
	Flag bool `json:"flag"`
}

func (h OffersHandler) SetNetworkFlag(c *gin.Context) {
	var req networkFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := offersapp.SetDistributesNetworkCommand{
		BungalowID: c.Param("id"),
		Flag:       req.Flag,
	}
	if _, err := commands.Dispatch[offersapp.SetDistributesNetworkCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
