package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookify/services/reservation"
)

// cartView is the JSON shape returned by every cart endpoint.
func cartView(session *reservation.Session) gin.H {
	cart := session.Cart
	return gin.H{
		"parts":         cart.Parts(),
		"quote":         cart.Quote(),
		"quoteError":    cart.QuoteError(),
		"fetchingQuote": cart.FetchingQuote(),
		"paymentMethod": cart.PaymentMethod(),
		"phoneVerified": cart.PhoneVerified(),
	}
}

// GetCart returns the cart contents and the latest quote.
func GetCart(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartView(session))
}

// RemoveCartPart deletes one booked part from the cart.
func RemoveCartPart(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	session.Cart.Remove(c.Request.Context(), c.Param("partID"))
	c.JSON(http.StatusOK, cartView(session))
}

// RefreshQuote re-requests pricing for the current cart.
func RefreshQuote(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	session.Cart.FetchQuote(c.Request.Context())
	c.JSON(http.StatusAccepted, cartView(session))
}

// ApplyPromoCode attaches a promo code to the cart.
func ApplyPromoCode(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	var input struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	session.Cart.ApplyPromoCode(c.Request.Context(), input.Code)
	c.JSON(http.StatusAccepted, cartView(session))
}

// RemovePromoCode detaches the promo code from the cart.
func RemovePromoCode(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	session.Cart.RemovePromoCode(c.Request.Context())
	c.JSON(http.StatusAccepted, cartView(session))
}

// SetPaymentMethod switches how the visitor intends to pay.
func SetPaymentMethod(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	var input struct {
		Method string `json:"method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := session.Cart.SetPaymentMethod(c.Request.Context(), input.Method); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartView(session))
}

// SetContact records the visitor's name and email.
func SetContact(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	var input struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	session.Cart.SetContact(input.Name, input.Email)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// AddPhoneNumber stores the contact phone and sends a verification code.
func AddPhoneNumber(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	var input struct {
		PhoneNumber string `json:"phoneNumber" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := session.Cart.AddPhoneNumber(c.Request.Context(), input.PhoneNumber); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "code sent"})
}

// ConfirmPhoneNumber checks the verification code.
func ConfirmPhoneNumber(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	var input struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := session.Cart.ConfirmPhoneNumber(c.Request.Context(), input.Code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "verified"})
}

// Checkout submits the cart for reservation.
func Checkout(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	result, err := session.Cart.Checkout(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reservationID": result.ReservationID,
		"clientSecret":  result.ClientSecret,
	})
}
