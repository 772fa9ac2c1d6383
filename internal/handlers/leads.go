package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
)

func (h *Handler) finalizePromo(c *gin.Context) {
	var req models.FinalizePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Nom, email et nom de l'entreprise sont requis")
		return
	}

	enrollment, err := h.Leads.FinalizePromo(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.FinalizePromoResponse{
		Success: true,
		LeadID:  enrollment.LeadID,
		Message: "Inscription finalisée avec succès",
	})
}

func (h *Handler) createEcommerceLead(c *gin.Context) {
	var req models.CreateEcommerceLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Nom et email sont requis")
		return
	}

	id, err := h.Leads.CreateEcommerceLead(c.Request.Context(), *req.LeadData)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CreateEcommerceLeadResponse{
		Success: true,
		Data: models.CreatedLead{
			ID:      id,
			Message: "Votre demande a bien été enregistrée",
		},
	})
}
