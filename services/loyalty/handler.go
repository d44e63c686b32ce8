package loyalty

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"smallbiznis-stampcard/pkg/db/pagination"
	"smallbiznis-stampcard/pkg/errutil"
	"smallbiznis-stampcard/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func RegisterRoutes(r *gin.Engine, auth *middleware.Authenticator, h *Handler) {
	api := r.Group("/api", middleware.Authenticate(auth))
	api.POST("/purchases", h.RegisterPurchase)
	api.GET("/customers/:id/ledger", h.GetLedger)
	api.GET("/customers/:id/visits", h.ListVisits)
	api.GET("/customers/:id/rewards", h.ListRewards)

	internal := r.Group("/internal", middleware.Authenticate(auth))
	internal.POST("/wallet/sync", h.ResyncWallet)
}

type purchaseBody struct {
	UserID any    `json:"userId"`
	Amount any    `json:"amount"`
	Notes  string `json:"notes"`
}

func (h *Handler) RegisterPurchase(c *gin.Context) {
	caller, _ := middleware.IdentityFrom(c)

	var body purchaseBody
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err,
			errutil.WithField("required", []string{"userId", "amount"}),
		))
		return
	}

	// amount accepts 45, 45.5 and "45.50"
	amount, err := parseAmount(body.Amount)
	if err != nil {
		_ = c.Error(errutil.ValidationFailed("invalid purchase", err,
			errutil.WithDetails(errutil.Detail{Field: "amount", Message: "must be a positive number"}),
		))
		return
	}

	res, err := h.service.RegisterPurchase(c.Request.Context(), PurchaseRequest{
		StaffID:    caller.UserID,
		CustomerID: cast.ToString(body.UserID),
		Amount:     amount,
		Notes:      strings.TrimSpace(body.Notes),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"points":         res.Points,
		"stamps":         res.Stamps,
		"rouletteVisits": res.RouletteVisits,
		"rewardCreated":  res.RewardCreated,
		"rewardCodes":    res.RewardCodes,
	})
}

func parseAmount(v any) (decimal.Decimal, error) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(strings.TrimSpace(s))
}

func (h *Handler) GetLedger(c *gin.Context) {
	caller, _ := middleware.IdentityFrom(c)

	ledger, err := h.service.GetLedger(c.Request.Context(), caller.UserID, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ledger)
}

func (h *Handler) ListVisits(c *gin.Context) {
	caller, _ := middleware.IdentityFrom(c)

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		_ = c.Error(errutil.BadRequest("invalid pagination", err))
		return
	}

	visits, info, err := h.service.ListVisits(c.Request.Context(), caller.UserID, c.Param("id"), page)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"visits":   visits,
		"pageInfo": info,
	})
}

func (h *Handler) ListRewards(c *gin.Context) {
	caller, _ := middleware.IdentityFrom(c)
	onlyOpen, _ := strconv.ParseBool(c.Query("open"))

	rewards, err := h.service.ListRewards(c.Request.Context(), caller.UserID, c.Param("id"), onlyOpen)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rewards": rewards})
}

type resyncBody struct {
	CustomerID any `json:"customerId"`
}

func (h *Handler) ResyncWallet(c *gin.Context) {
	caller, _ := middleware.IdentityFrom(c)

	var body resyncBody
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil || cast.ToString(body.CustomerID) == "" {
		_ = c.Error(errutil.BadRequest("invalid request body", err,
			errutil.WithField("required", []string{"customerId"}),
		))
		return
	}

	if err := h.service.ResyncWallet(c.Request.Context(), caller.UserID, cast.ToString(body.CustomerID)); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}
