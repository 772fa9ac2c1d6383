package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
)

func (h *Handler) listOpenJobs(c *gin.Context) {
	postings, err := h.Careers.OpenPostings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DataResponse{Success: true, Data: postings})
}

func (h *Handler) getOpenJob(c *gin.Context) {
	posting, err := h.Careers.OpenPosting(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DataResponse{Success: true, Data: posting})
}

func (h *Handler) applyToJob(c *gin.Context) {
	var req models.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Offre, nom et email sont requis")
		return
	}

	application, err := h.Careers.Apply(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.DataResponse{Success: true, Data: application})
}

func (h *Handler) listJobs(c *gin.Context) {
	var active *bool
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "Paramètre active invalide")
			return
		}
		active = &v
	}

	postings, err := h.Careers.Postings(c.Request.Context(), active)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DataResponse{Success: true, Data: postings})
}

func (h *Handler) createJob(c *gin.Context) {
	var req models.JobPostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Le titre du poste est requis")
		return
	}

	posting, err := h.Careers.CreatePosting(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.DataResponse{Success: true, Data: posting})
}

func (h *Handler) updateJob(c *gin.Context) {
	var patch models.JobPostingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Données invalides: "+err.Error())
		return
	}

	posting, err := h.Careers.UpdatePosting(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DataResponse{Success: true, Data: posting})
}

func (h *Handler) toggleJob(c *gin.Context) {
	posting, err := h.Careers.TogglePosting(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DataResponse{Success: true, Data: posting})
}

func (h *Handler) listApplications(c *gin.Context) {
	applications, err := h.Careers.Applications(c.Request.Context(), c.Query("jobId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DataResponse{Success: true, Data: applications})
}

func (h *Handler) updateApplicationStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Le statut est requis")
		return
	}

	status := models.ApplicationStatus(req.Status)
	if err := h.Careers.SetApplicationStatus(c.Request.Context(), c.Param("id"), status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Success: true, Message: "Statut mis à jour"})
}
