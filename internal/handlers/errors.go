package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/auth"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/careers"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/gateway"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/leads"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/payment"
	log "github.com/sirupsen/logrus"
)

var badRequestErrors = []error{
	payment.ErrMissingAmount,
	payment.ErrMissingCustomerData,
	payment.ErrMissingTransactionID,
	payment.ErrUnsupportedProvider,
	leads.ErrMissingFields,
	careers.ErrInvalidStatus,
}

var notFoundErrors = []error{
	payment.ErrFormationNotFound,
	careers.ErrJobNotFound,
	careers.ErrApplicationNotFound,
	gateway.ErrNotFound,
}

// statusFor maps a service error to its HTTP status and client message
func statusFor(err error) (int, string) {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, err.Error()
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return http.StatusNotFound, err.Error()
		}
	}
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidSession),
		errors.Is(err, auth.ErrDisabled):
		return http.StatusUnauthorized, "Non autorisé"
	case errors.Is(err, gateway.ErrInvalidInput):
		return http.StatusBadRequest, "Données invalides"
	case errors.Is(err, payment.ErrAlreadyPaid):
		return http.StatusConflict, err.Error()
	case errors.Is(err, gateway.ErrUnavailable):
		return http.StatusServiceUnavailable, "Service temporairement indisponible"
	}
	return http.StatusInternalServerError, "Erreur interne du serveur"
}

func respondError(c *gin.Context, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"path":  c.FullPath(),
			"error": err.Error(),
		}).Error("Request failed")
	}
	c.JSON(status, models.ErrorResponse{Success: false, Error: message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Error: message})
}
