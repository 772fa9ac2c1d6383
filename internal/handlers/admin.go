package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/middleware"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/store"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Mot de passe requis")
		return
	}

	token, expires, err := h.Sessions.Login(req.Password)
	if err != nil {
		log.WithField("ip", c.ClientIP()).Warn("Admin login failed")
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(time.Until(expires).Seconds()), "/", "", h.SecureCookie, true)
	c.JSON(http.StatusOK, models.LoginResponse{
		Success:   true,
		Token:     token,
		ExpiresAt: expires.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.SecureCookie, true)
	c.JSON(http.StatusOK, models.MessageResponse{Success: true, Message: "Déconnecté"})
}

func (h *Handler) listTransactions(c *gin.Context) {
	status := models.TransactionStatus(c.Query("status"))
	switch status {
	case "", models.TransactionStatusPending, models.TransactionStatusCompleted:
	default:
		badRequest(c, "Statut de transaction invalide")
		return
	}

	transactions, err := h.Transactions.List(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DataResponse{Success: true, Data: transactions})
}

func (h *Handler) listLeads(c *gin.Context) {
	source := store.LeadSource(c.DefaultQuery("source", string(store.LeadSourcePromo)))
	ctx := c.Request.Context()

	var (
		data any
		err  error
	)
	switch source {
	case store.LeadSourcePromo:
		data, err = h.LeadStore.ListPromo(ctx)
	case store.LeadSourceFallback:
		data, err = h.LeadStore.ListLeads(ctx)
	case store.LeadSourceEcommerce:
		data, err = h.LeadStore.ListEcommerce(ctx)
	default:
		badRequest(c, "Source de leads inconnue")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DataResponse{Success: true, Data: data})
}

func (h *Handler) updateLeadStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Le statut est requis")
		return
	}
	status := models.LeadStatus(req.Status)
	if !status.Valid() {
		badRequest(c, "Statut de lead invalide")
		return
	}
	source := store.LeadSource(c.Param("source"))
	if _, ok := source.Table(); !ok {
		badRequest(c, "Source de leads inconnue")
		return
	}

	if err := h.LeadStore.UpdateStatus(c.Request.Context(), source, c.Param("id"), status, time.Now()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Success: true, Message: "Statut mis à jour"})
}

func (h *Handler) listActivity(c *gin.Context) {
	entries, err := h.Activity.List(c.Request.Context(), c.Query("type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DataResponse{Success: true, Data: entries})
}
