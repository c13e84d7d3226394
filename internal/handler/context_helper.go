package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tractshare/tract-api/internal/middleware"
	"github.com/tractshare/tract-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		return nil
	}
	return claims
}
