package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/dto"
	QuoteApp "staybook/internal/app/handlers/quote"
	"staybook/internal/app/queries"
)

type QuoteHandler struct {
	Queries queries.Bus
}

type quoteRequest struct {
	PropertyID     string    `json:"property_id"`
	Kind           string    `json:"kind"`
	Start          time.Time `json:"start_at"`
	End            time.Time `json:"end_at"`
	Guests         int       `json:"guests"`
	Vehicles       int       `json:"vehicles"`
	Addons         []string  `json:"addons"`
	Alcohol        bool      `json:"alcohol"`
	AmplifiedSound bool      `json:"amplified_sound"`
	EventType      string    `json:"event_type"`
}

func (h QuoteHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q := QuoteApp.ComputeQuoteQuery{
		PropertyID:     req.PropertyID,
		Kind:           req.Kind,
		Start:          req.Start,
		End:            req.End,
		Guests:         req.Guests,
		Vehicles:       req.Vehicles,
		Addons:         req.Addons,
		Alcohol:        req.Alcohol,
		AmplifiedSound: req.AmplifiedSound,
		EventType:      req.EventType,
	}
	result, err := queries.Ask[QuoteApp.ComputeQuoteQuery, dto.Quote](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type availabilityRequest struct {
	PropertyID string    `json:"property_id"`
	Start      time.Time `json:"start_at"`
	End        time.Time `json:"end_at"`
}

func (h QuoteHandler) Availability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q := QuoteApp.CheckAvailabilityQuery{
		PropertyID: req.PropertyID,
		Start:      req.Start,
		End:        req.End,
	}
	result, err := queries.Ask[QuoteApp.CheckAvailabilityQuery, dto.Availability](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ QuoteHTTP = QuoteHandler{}
