package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	PaymentsApp "staybook/internal/app/handlers/payments"
	"staybook/internal/app/queries"
)

type PaymentHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h PaymentHandler) Capture(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	cmd := PaymentsApp.CapturePaymentCommand{
		BookingID:   c.Param("id"),
		PrincipalID: user.ID,
	}
	result, err := commands.Dispatch[PaymentsApp.CapturePaymentCommand, *PaymentsApp.CapturePaymentResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PaymentHandler) Session(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	q := PaymentsApp.PaymentSessionQuery{
		BookingID:   c.Param("id"),
		PrincipalID: user.ID,
	}
	result, err := queries.Ask[PaymentsApp.PaymentSessionQuery, dto.PaymentSession](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PaymentHTTP = PaymentHandler{}
