package walletpass

import (
	"encoding/json"
	"fmt"
	"net/http"

	"smallbiznis-stampcard/pkg/errutil"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	issuer *Issuer
}

func NewHandler(issuer *Issuer) *Handler {
	return &Handler{issuer: issuer}
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	g := r.Group("/api/wallet")
	g.POST("/google", h.IssueGoogle)
	g.POST("/apple", h.IssueApple)
}

func (h *Handler) IssueGoogle(c *gin.Context) {
	req, err := decodeIssueRequest(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	res, err := h.issuer.IssueGoogle(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"saveUrl":  res.SaveURL,
		"objectId": res.ObjectID,
	})
}

func (h *Handler) IssueApple(c *gin.Context) {
	req, err := decodeIssueRequest(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	pass, err := h.issuer.IssueApple(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, pass.Filename))
	c.Data(http.StatusOK, pass.ContentType, pass.Data)
}

// decodeIssueRequest keeps numbers as json.Number so large numeric ids survive.
func decodeIssueRequest(c *gin.Context) (IssueRequest, error) {
	var req IssueRequest
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return req, errutil.BadRequest("invalid request body", err,
			errutil.WithField("required", []string{"customerData.id"}),
		)
	}
	return req, nil
}
