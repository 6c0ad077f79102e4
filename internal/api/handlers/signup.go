package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/candlecraft/storefront/internal/auth"
	"github.com/candlecraft/storefront/internal/signup"
)

// SubmitPhoneRequest represents the phone-input step
type SubmitPhoneRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

// VerifyCodeRequest represents the phone-verify step
type VerifyCodeRequest struct {
	Code string `json:"code"`
}

// SignupCompletedResponse is returned once the account exists
type SignupCompletedResponse struct {
	signup.State
	Session *auth.Session `json:"session,omitempty"`
}

// HandleStartSignup handles POST /v1/signup
func HandleStartSignup(flows *signup.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		flow := flows.Start()
		c.JSON(http.StatusCreated, flow.State())
	}
}

// HandleGetSignup handles GET /v1/signup/:id
func HandleGetSignup(flows *signup.Registry, logger *zap.Logger) gin.HandlerFunc {
	return withFlow(flows, logger, func(c *gin.Context, flow *signup.Flow) {
		c.JSON(http.StatusOK, flow.State())
	})
}

// HandleSubmitPhone handles POST /v1/signup/:id/phone
func HandleSubmitPhone(flows *signup.Registry, logger *zap.Logger) gin.HandlerFunc {
	return withFlow(flows, logger, func(c *gin.Context, flow *signup.Flow) {
		var req SubmitPhoneRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := flow.SubmitPhone(c.Request.Context(), req.PhoneNumber); err != nil {
			respondError(c, logger, err, "send verification code")
			return
		}
		c.JSON(http.StatusOK, flow.State())
	})
}

// HandleVerifyCode handles POST /v1/signup/:id/verify
func HandleVerifyCode(flows *signup.Registry, logger *zap.Logger) gin.HandlerFunc {
	return withFlow(flows, logger, func(c *gin.Context, flow *signup.Flow) {
		var req VerifyCodeRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := flow.SubmitCode(c.Request.Context(), req.Code); err != nil {
			respondError(c, logger, err, "verify code")
			return
		}
		c.JSON(http.StatusOK, flow.State())
	})
}

// HandleResendCode handles POST /v1/signup/:id/resend
func HandleResendCode(flows *signup.Registry, logger *zap.Logger) gin.HandlerFunc {
	return withFlow(flows, logger, func(c *gin.Context, flow *signup.Flow) {
		if err := flow.Resend(c.Request.Context()); err != nil {
			respondError(c, logger, err, "resend verification code")
			return
		}
		c.JSON(http.StatusOK, flow.State())
	})
}

// HandleChangeNumber handles POST /v1/signup/:id/change-number
func HandleChangeNumber(flows *signup.Registry, logger *zap.Logger) gin.HandlerFunc {
	return withFlow(flows, logger, func(c *gin.Context, flow *signup.Flow) {
		if err := flow.ChangeNumber(); err != nil {
			respondError(c, logger, err, "change number")
			return
		}
		c.JSON(http.StatusOK, flow.State())
	})
}

// HandleSubmitDetails handles POST /v1/signup/:id/details. The new account is
// signed in straight away.
func HandleSubmitDetails(flows *signup.Registry, authSvc *auth.Service, logger *zap.Logger) gin.HandlerFunc {
	return withFlow(flows, logger, func(c *gin.Context, flow *signup.Flow) {
		var req signup.Details
		if !bindJSON(c, &req) {
			return
		}
		if err := flow.SubmitDetails(c.Request.Context(), req); err != nil {
			respondError(c, logger, err, "create account")
			return
		}

		state := flow.State()
		resp := SignupCompletedResponse{State: state}
		token, expiresAt, err := authSvc.IssueToken(state.User)
		if err != nil {
			logger.Error("Failed to sign in new account", zap.Error(err))
		} else {
			resp.Session = &auth.Session{Token: token, ExpiresAt: expiresAt, User: state.User}
		}
		c.JSON(http.StatusCreated, resp)
	})
}

func withFlow(flows *signup.Registry, logger *zap.Logger, fn func(*gin.Context, *signup.Flow)) gin.HandlerFunc {
	return func(c *gin.Context) {
		flow, err := flows.Get(c.Param("id"))
		if err != nil {
			respondError(c, logger, err, "load signup")
			return
		}
		fn(c, flow)
	}
}
