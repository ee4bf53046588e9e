package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookify/middleware"
	"bookify/models"
	"bookify/services/reservation"
)

// Sessions is the session manager serving all booking handlers. Wired at
// startup.
var Sessions *reservation.SessionManager

// StartSession creates a new booking session for the calling guest and
// returns its id alongside the initial state.
func StartSession(c *gin.Context) {
	var input struct {
		Timezone string         `json:"timezone"`
		Service  models.Service `json:"service"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	session, err := Sessions.Create(c.Request.Context(), middleware.GuestID(c), input.Timezone)
	if err != nil {
		respondError(c, err)
		return
	}
	if input.Service.ID != "" {
		session.Workflow.SetService(input.Service)
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionID": session.ID,
		"state":     session.Workflow.Snapshot(),
	})
}

// GetState returns the current booking state snapshot.
func GetState(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": session.Workflow.Snapshot()})
}

// SetService points the session at a service, resetting any prior
// progress.
func SetService(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	var svc models.Service
	if err := c.ShouldBindJSON(&svc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	session.Workflow.SetService(svc)
	c.JSON(http.StatusOK, gin.H{"state": session.Workflow.Snapshot()})
}

// SelectMethod records the reservation method choice.
func SelectMethod(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	var input struct {
		Method  string `json:"method" binding:"required"`
		Advance bool   `json:"advance"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := session.Workflow.SelectMethod(c.Request.Context(), input.Method, input.Advance); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": session.Workflow.Snapshot()})
}

// SelectProvider records the provider choice.
func SelectProvider(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	var input struct {
		ProviderID string `json:"providerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := session.Workflow.SelectProvider(input.ProviderID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": session.Workflow.Snapshot()})
}

// SelectDate handles a calendar cell click.
func SelectDate(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	var input struct {
		Date string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	session.Workflow.SelectDate(input.Date)
	c.JSON(http.StatusOK, gin.H{"state": session.Workflow.Snapshot()})
}

// SelectSlot picks one of the offered time slots.
func SelectSlot(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	var input struct {
		SlotID string `json:"slotId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	session.Workflow.SelectSlot(input.SlotID)
	c.JSON(http.StatusOK, gin.H{"state": session.Workflow.Snapshot()})
}

// NextStep advances the step cursor.
func NextStep(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	session.Workflow.NextStep()
	c.JSON(http.StatusOK, gin.H{"state": session.Workflow.Snapshot()})
}

// PrevStep moves the step cursor back.
func PrevStep(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	session.Workflow.PrevStep()
	c.JSON(http.StatusOK, gin.H{"state": session.Workflow.Snapshot()})
}

// GoToStep jumps to an arbitrary step.
func GoToStep(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	var input struct {
		Step int `json:"step" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	session.Workflow.GoToStep(input.Step)
	c.JSON(http.StatusOK, gin.H{"state": session.Workflow.Snapshot()})
}

// PrevMonth shows the previous calendar month.
func PrevMonth(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	session.Workflow.PrevMonth()
	c.JSON(http.StatusOK, gin.H{"state": session.Workflow.Snapshot()})
}

// NextMonth shows the next calendar month.
func NextMonth(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	session.Workflow.NextMonth()
	c.JSON(http.StatusOK, gin.H{"state": session.Workflow.Snapshot()})
}

// SetTimezone switches the display timezone for the session.
func SetTimezone(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	var input struct {
		Timezone string `json:"timezone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := session.Workflow.SetTimezone(input.Timezone); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": session.Workflow.Snapshot()})
}

// AddToCart books the selected slot into the cart.
func AddToCart(c *gin.Context) {
	session, ok := lookupSession(c)
	if !ok {
		return
	}
	if err := session.Workflow.AddToCart(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state": session.Workflow.Snapshot(),
		"cart":  session.Cart.Parts(),
	})
}

func lookupSession(c *gin.Context) (*reservation.Session, bool) {
	session, ok := Sessions.Get(c.Param("sessionID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return session, true
}

// respondError maps a service error onto an HTTP status.
func respondError(c *gin.Context, err error) {
	var validation *reservation.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message})
		return
	}
	var notFound *reservation.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Message, "code": notFound.Code})
		return
	}
	var policy *reservation.PolicyError
	if errors.As(err, &policy) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": policy.Message, "code": policy.Code})
		return
	}
	var transport *reservation.TransportError
	if errors.As(err, &transport) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream service unavailable"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
