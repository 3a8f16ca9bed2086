package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	BookingApp "staybook/internal/app/handlers/booking"
	"staybook/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createBookingRequest struct {
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
	Description    string    `json:"description"`
	Vendors        []string  `json:"vendors"`
	CrewSize       int       `json:"crew_size"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := BookingApp.CreateDraftCommand{
		CommandID:       generateCommandID(),
		PropertyID:      req.PropertyID,
		GuestID:         user.ID,
		Kind:            req.Kind,
		Start:           req.Start,
		End:             req.End,
		Guests:          req.Guests,
		Vehicles:        req.Vehicles,
		Addons:          req.Addons,
		Alcohol:         req.Alcohol,
		Amplified:       req.AmplifiedSound,
		EventType:       req.EventType,
		Description:     req.Description,
		Vendors:         req.Vendors,
		CrewSize:        req.CrewSize,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[BookingApp.CreateDraftCommand, *BookingApp.CreateDraftResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Submit(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	cmd := BookingApp.SubmitRequestCommand{
		BookingID:   c.Param("id"),
		PrincipalID: user.ID,
	}
	result, err := commands.Dispatch[BookingApp.SubmitRequestCommand, *BookingApp.SubmitRequestResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Approve(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	cmd := BookingApp.ApproveRequestCommand{
		BookingID:   c.Param("id"),
		PrincipalID: user.ID,
	}
	result, err := commands.Dispatch[BookingApp.ApproveRequestCommand, *BookingApp.DecisionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Decline(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	cmd := BookingApp.DeclineRequestCommand{
		BookingID:   c.Param("id"),
		PrincipalID: user.ID,
		Reason:      req.Reason,
	}
	result, err := commands.Dispatch[BookingApp.DeclineRequestCommand, *BookingApp.DecisionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	cmd := BookingApp.CancelBookingCommand{
		BookingID:   c.Param("id"),
		PrincipalID: user.ID,
		Reason:      req.Reason,
	}
	result, err := commands.Dispatch[BookingApp.CancelBookingCommand, *BookingApp.DecisionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListMine(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	q := BookingApp.ListGuestBookingsQuery{
		GuestID: user.ID,
		Status:  c.Query("status"),
	}
	result, err := queries.Ask[BookingApp.ListGuestBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListHost(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	q := BookingApp.ListHostBookingsQuery{
		HostID: user.ID,
		Status: c.Query("status"),
	}
	result, err := queries.Ask[BookingApp.ListHostBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
