package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/api/middleware"
	"github.com/candlecraft/storefront/internal/auth"
	"github.com/candlecraft/storefront/internal/domain"
)

// AddressRequest represents a new delivery address
type AddressRequest struct {
	Label        string `json:"label"`
	FullName     string `json:"fullName" binding:"required"`
	PhoneNumber  string `json:"phoneNumber" binding:"required"`
	AddressLine1 string `json:"addressLine1" binding:"required"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state" binding:"required"`
	Pincode      string `json:"pincode" binding:"required"`
	IsDefault    bool   `json:"isDefault"`
}

// HandleLogin handles POST /v1/auth/login
func HandleLogin(authSvc *auth.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req auth.LoginRequest
		if !bindJSON(c, &req) {
			return
		}

		session, err := authSvc.Login(c.Request.Context(), req)
		if err != nil {
			respondError(c, logger, err, "log in")
			return
		}

		c.JSON(http.StatusOK, session)
	}
}

// HandleLogout handles POST /v1/auth/logout
func HandleLogout(authSvc *auth.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authSvc.Logout(middleware.GetTokenFromContext(c)); err != nil {
			respondError(c, logger, err, "log out")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// HandleGetMe handles GET /v1/me
func HandleGetMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)
		c.JSON(http.StatusOK, user)
	}
}

// HandleUpdateMe handles PATCH /v1/me
func HandleUpdateMe(authSvc *auth.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)

		var req auth.ProfileUpdate
		if !bindJSON(c, &req) {
			return
		}

		updated, err := authSvc.UpdateProfile(c.Request.Context(), user.ID, req)
		if err != nil {
			respondError(c, logger, err, "update profile")
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// HandleAddAddress handles POST /v1/me/addresses
func HandleAddAddress(authSvc *auth.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)

		var req AddressRequest
		if !bindJSON(c, &req) {
			return
		}

		addr, err := authSvc.AddAddress(c.Request.Context(), user.ID, domain.Address{
			Label:        req.Label,
			FullName:     req.FullName,
			PhoneNumber:  req.PhoneNumber,
			AddressLine1: req.AddressLine1,
			AddressLine2: req.AddressLine2,
			City:         req.City,
			State:        req.State,
			Pincode:      req.Pincode,
			IsDefault:    req.IsDefault,
		})
		if err != nil {
			respondError(c, logger, err, "add address")
			return
		}
		c.JSON(http.StatusCreated, addr)
	}
}

// HandleRemoveAddress handles DELETE /v1/me/addresses/:id
func HandleRemoveAddress(authSvc *auth.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)

		if err := authSvc.RemoveAddress(c.Request.Context(), user.ID, c.Param("id")); err != nil {
			respondError(c, logger, err, "remove address")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
