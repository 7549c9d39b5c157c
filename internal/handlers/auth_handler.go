package handlers

import (
	"context"
	"errors"
	"time"

	"sitehub/internal/models"
	"sitehub/internal/services"
	"sitehub/pkg/jwt"
	"sitehub/pkg/response"

	"github.com/gin-gonic/gin"
)

// OperatorAuthenticator 运维账号认证
type OperatorAuthenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.Operator, error)
	GetByID(ctx context.Context, id uint) (*models.Operator, error)
}

type AuthHandler struct {
	operators  OperatorAuthenticator
	jwtManager *jwt.JWTManager
}

func NewAuthHandler(operators OperatorAuthenticator, jwtManager *jwt.JWTManager) *AuthHandler {
	return &AuthHandler{
		operators:  operators,
		jwtManager: jwtManager,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expires_at"`
	Operator  OperatorInfo `json:"operator"`
}

type OperatorInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

func operatorInfo(o *models.Operator) OperatorInfo {
	return OperatorInfo{ID: o.ID, Username: o.Username, Email: o.Email, Name: o.Name}
}

// Login 运维人员登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	operator, err := h.operators.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrOperatorDisabled):
			response.Unauthorized(c, err.Error())
		default:
			response.ServerError(c, "登录失败")
		}
		return
	}

	token, err := h.jwtManager.GenerateToken(operator.ID, operator.Username)
	if err != nil {
		response.ServerError(c, "生成Token失败")
		return
	}

	response.Success(c, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.jwtManager.GetTokenDuration()).Unix(),
		Operator:  operatorInfo(operator),
	})
}

// Me 当前登录的运维人员
func (h *AuthHandler) Me(c *gin.Context) {
	claims, exists := c.Get("claims")
	if !exists {
		response.Unauthorized(c, "未登录")
		return
	}

	operator, err := h.operators.GetByID(c.Request.Context(), claims.(*jwt.OperatorClaims).OperatorID)
	if err != nil {
		response.NotFound(c, "账号不存在")
		return
	}
	response.Success(c, operatorInfo(operator))
}
