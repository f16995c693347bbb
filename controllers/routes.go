package controllers

import (
	"net/http"
	"os"

	"Stitchup/middlewares"

	"github.com/gin-gonic/gin"
)

func (s *Server) initializeRoutes() {

	s.Router.GET("/", func(c *gin.Context) {
		if frontend := os.Getenv("FRONTEND_ORIGIN"); frontend != "" {
			c.Redirect(http.StatusFound, frontend)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.Router.Group("/api/v1")
	{
		// Auth
		v1.POST("/login", middlewares.LoginRateLimitMiddleware(), s.Login)

		// Catalog
		v1.GET("/products", s.GetProducts)
		v1.GET("/products/:id", s.GetProduct)

		// Product voting
		v1.POST("/products/:id/vote", s.CastProductVote)
		v1.GET("/products/:id/vote", s.GetProductVoteStatus)

		// Poll
		v1.GET("/poll", s.GetPoll)
		v1.POST("/poll/vote", s.CastPollVote)

		// Newsletter
		v1.POST("/newsletter", s.SubscribeNewsletter)
		v1.GET("/newsletter/unsubscribe/:token", s.UnsubscribeNewsletter)

		// Margin calculator
		v1.POST("/margin", s.CalculateMargin)

		// Admin back-office
		admin := v1.Group("/admin",
			middlewares.TokenAuthMiddleware(s.DB),
			middlewares.AdminOnlyMiddleware(),
		)
		{
			admin.GET("/products", s.AdminListProducts)
			admin.POST("/products", s.AdminCreateProduct)
			admin.PUT("/products/:id", s.AdminUpdateProduct)
			admin.PUT("/products/:id/image", s.AdminUploadProductImage)
			admin.DELETE("/products/:id", s.AdminDeleteProduct)

			admin.PUT("/poll", s.AdminUpdatePoll)
			admin.PATCH("/poll/active", s.AdminTogglePoll)
			admin.POST("/poll/reset", s.AdminResetPoll)

			admin.GET("/newsletter", s.AdminListSubscribers)
		}
	}
}
