package routes

import (
	"bookify/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers the booking session endpoints.
func RegisterBookingRoutes(r *gin.Engine) {
	booking := r.Group("/api/booking")
	{
		booking.POST("/session", handlers.StartSession)
		booking.GET("/session/:sessionID", handlers.GetState)
		booking.PUT("/session/:sessionID/service", handlers.SetService)
		booking.POST("/session/:sessionID/method", handlers.SelectMethod)
		booking.POST("/session/:sessionID/provider", handlers.SelectProvider)
		booking.POST("/session/:sessionID/date", handlers.SelectDate)
		booking.POST("/session/:sessionID/slot", handlers.SelectSlot)
		booking.POST("/session/:sessionID/next", handlers.NextStep)
		booking.POST("/session/:sessionID/prev", handlers.PrevStep)
		booking.POST("/session/:sessionID/step", handlers.GoToStep)
		booking.POST("/session/:sessionID/month/prev", handlers.PrevMonth)
		booking.POST("/session/:sessionID/month/next", handlers.NextMonth)
		booking.PUT("/session/:sessionID/timezone", handlers.SetTimezone)
		booking.POST("/session/:sessionID/cart", handlers.AddToCart)
	}
}

// RegisterCartRoutes registers the cart, pricing and checkout endpoints.
func RegisterCartRoutes(r *gin.Engine) {
	cart := r.Group("/api/booking/session/:sessionID/cart")
	{
		cart.GET("", handlers.GetCart)
		cart.DELETE("/parts/:partID", handlers.RemoveCartPart)
		cart.POST("/quote", handlers.RefreshQuote)
		cart.POST("/promo", handlers.ApplyPromoCode)
		cart.DELETE("/promo", handlers.RemovePromoCode)
		cart.PUT("/payment-method", handlers.SetPaymentMethod)
		cart.PUT("/contact", handlers.SetContact)
		cart.POST("/phone", handlers.AddPhoneNumber)
		cart.POST("/phone/confirm", handlers.ConfirmPhoneNumber)
		cart.POST("/checkout", handlers.Checkout)
	}
}
