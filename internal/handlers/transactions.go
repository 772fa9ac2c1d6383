package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/payment"
	log "github.com/sirupsen/logrus"
)

const verifiedMessage = "Transaction vérifiée avec succès"

func (h *Handler) createTransaction(c *gin.Context) {
	var req models.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Données de transaction invalides: "+err.Error())
		return
	}

	checkout, err := h.Payments.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CreateTransactionResponse{
		Success:       true,
		TransactionID: checkout.TransactionID,
		PaymentLink:   checkout.PaymentLink,
	})
}

func (h *Handler) verifyTransaction(c *gin.Context) {
	var req models.VerifyTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "L'identifiant de transaction est requis")
		return
	}

	outcome, err := h.Payments.Verify(c.Request.Context(), req.TransactionID, req.ProviderTransactionID)
	if err != nil {
		respondError(c, err)
		return
	}

	log.WithFields(log.Fields{
		"transaction_id": req.TransactionID,
		"outcome":        outcome.String(),
	}).Info("Transaction verification handled")

	c.JSON(http.StatusOK, models.MessageResponse{Success: true, Message: verifiedMessage})
}

func (h *Handler) paymentQR(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	if size > 1024 {
		size = 1024
	}

	png, err := h.Payments.PaymentQR(c.Request.Context(), c.Param("id"), size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) createPaymentLink(c *gin.Context) {
	var req models.CreatePaymentLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Formation et informations du formulaire requises")
		return
	}

	checkout, err := h.Payments.CreatePaymentLink(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CreatePaymentLinkResponse{
		Success:       true,
		PaymentLink:   checkout.PaymentLink,
		TransactionID: checkout.TransactionID,
	})
}

func (h *Handler) listFormations(c *gin.Context) {
	formations, err := h.Catalog.Active(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	offers := make([]models.FormationOffer, 0, len(formations))
	for _, f := range formations {
		offers = append(offers, payment.Offer(f))
	}
	c.JSON(http.StatusOK, models.DataResponse{Success: true, Data: offers})
}
