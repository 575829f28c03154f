package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/meenmo/bondeval/curve"
	"github.com/meenmo/bondeval/pricing"
)

type Handler struct {
	svc *pricing.Service
	log *logrus.Logger
}

func NewHandler(svc *pricing.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// respondError maps validation failures to 400 and everything else to 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	if errors.Is(err, pricing.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.log.WithError(err).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func (h *Handler) GetCurve(c *gin.Context) {
	pts, err := h.svc.GetCurve(c.Request.Context(), c.Param("market"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"market": c.Param("market"), "curve": pts})
}

type putCurveBody struct {
	Curve []curve.Point `json:"curve"`
	Mode  string        `json:"mode"`
}

func (h *Handler) PutCurve(c *gin.Context) {
	var body putCurveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.Mode == "" {
		body.Mode = "replace"
	}
	summary, err := h.svc.PutCurve(c.Request.Context(), c.Param("market"), body.Curve, body.Mode)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) PriceBond(c *gin.Context) {
	var req pricing.PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.svc.PriceBond(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetMarkets(c *gin.Context) {
	markets, err := h.svc.Markets(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"markets": markets})
}

func (h *Handler) GetPriceHistory(c *gin.Context) {
	rows, err := h.svc.PriceHistory(c.Request.Context(),
		c.Param("key"), c.Query("from"), c.Query("to"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instrument_key": c.Param("key"), "prices": rows})
}

func (h *Handler) GetLatestPrice(c *gin.Context) {
	row, err := h.svc.LatestPrice(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if row == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no cached price for instrument"})
		return
	}
	c.JSON(http.StatusOK, row)
}
