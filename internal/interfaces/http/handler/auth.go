package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pos/backend/internal/infrastructure/auth"
	"github.com/pos/backend/internal/infrastructure/logger"
	"github.com/pos/backend/internal/interfaces/http/dto"
	"github.com/pos/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles operator session endpoints
type AuthHandler struct {
	BaseHandler
	operatorStore *auth.OperatorStore
	jwtService    *auth.JWTService
	blacklist     auth.TokenBlacklist
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(operatorStore *auth.OperatorStore, jwtService *auth.JWTService, blacklist auth.TokenBlacklist) *AuthHandler {
	return &AuthHandler{
		operatorStore: operatorStore,
		jwtService:    jwtService,
		blacklist:     blacklist,
	}
}

// LoginRequest represents an operator login
// @Description Request body for operator login
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=1,max=100" example:"till-1"`
	Password string `json:"password" binding:"required,min=1"`
}

// RefreshRequest represents a token refresh
// @Description Request body for rotating a token pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LoginResponse carries the issued token pair and the operator identity
type LoginResponse struct {
	auth.TokenPair
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// Login godoc
// @Summary      Operator login
// @Description  Authenticates an operator and issues an access/refresh token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Operator credentials"
// @Success      200 {object} dto.Response{data=LoginResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err.Error())
		return
	}

	operator, err := h.operatorStore.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.ErrorWithCode(c, dto.ErrCodeInvalidCredentials, "Invalid username or password")
			return
		}
		logger.L(c.Request.Context()).Error("Operator authentication failed", zap.Error(err))
		h.InternalError(c)
		return
	}

	pair, err := h.jwtService.GenerateTokenPair(operator.Username, operator.Role)
	if err != nil {
		logger.L(c.Request.Context()).Error("Token generation failed", zap.Error(err))
		h.InternalError(c)
		return
	}

	h.Success(c, LoginResponse{
		TokenPair: *pair,
		Username:  operator.Username,
		Role:      operator.Role,
	})
}

// Refresh godoc
// @Summary      Rotate token pair
// @Description  Validates a refresh token and issues a new access/refresh pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest true "Refresh token"
// @Success      200 {object} dto.Response{data=auth.TokenPair}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err.Error())
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		h.Unauthorized(c, "Invalid refresh token")
		return
	}

	// A logged-out operator cannot rotate old refresh tokens
	if claims.IssuedAt != nil {
		invalidated, berr := h.blacklist.IsOperatorTokenInvalidated(c.Request.Context(), claims.Username, claims.IssuedAt.Time)
		if berr != nil {
			logger.L(c.Request.Context()).Error("Blacklist lookup failed", zap.Error(berr))
			h.InternalError(c)
			return
		}
		if invalidated {
			h.Unauthorized(c, "Token has been revoked")
			return
		}
	}

	pair, err := h.jwtService.GenerateTokenPair(claims.Username, claims.Role)
	if err != nil {
		logger.L(c.Request.Context()).Error("Token generation failed", zap.Error(err))
		h.InternalError(c)
		return
	}

	h.Success(c, pair)
}

// Logout godoc
// @Summary      Operator logout
// @Description  Revokes the current session: the access token via its JTI and
// @Description  every previously issued token via the operator invalidation mark
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	ctx := c.Request.Context()

	if ttl := claims.GetRemainingTTL(); ttl > 0 && claims.ID != "" {
		if err := h.blacklist.AddToBlacklist(ctx, claims.ID, ttl); err != nil {
			logger.L(ctx).Error("Failed to blacklist token", zap.Error(err))
			h.InternalError(c)
			return
		}
	}

	// The invalidation mark must outlive the longest-lived token still in
	// circulation, which is the refresh token
	if err := h.blacklist.AddOperatorTokensToBlacklist(ctx, claims.Username, h.jwtService.GetRefreshTokenExpiration()); err != nil {
		logger.L(ctx).Error("Failed to invalidate operator tokens", zap.Error(err))
		h.InternalError(c)
		return
	}

	c.JSON(http.StatusOK, dto.Response{Success: true, Message: "Logged out"})
}
