package server

import (
	"github.com/gin-gonic/gin"
)

func NewRouter(h *Handler) *gin.Engine {
	router := gin.Default()

	api := router.Group("/v1")
	{
		api.GET("/curves/:market", h.GetCurve)
		api.PUT("/curves/:market", h.PutCurve)
		api.POST("/prices", h.PriceBond)
		api.GET("/markets", h.GetMarkets)
		api.GET("/prices/:key/history", h.GetPriceHistory)
		api.GET("/prices/:key/latest", h.GetLatestPrice)
	}

	return router
}
