package middleware

import (
	"context"
	"strings"

	"sitehub/internal/models"
	"sitehub/pkg/jwt"
	"sitehub/pkg/response"

	"github.com/gin-gonic/gin"
)

// OperatorLookup 按ID查询运维账号
type OperatorLookup interface {
	GetByID(ctx context.Context, id uint) (*models.Operator, error)
}

// AuthMiddleware 运维人员认证中间件
type AuthMiddleware struct {
	operators  OperatorLookup
	jwtManager *jwt.JWTManager
}

func NewAuthMiddleware(operators OperatorLookup, jwtManager *jwt.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{
		operators:  operators,
		jwtManager: jwtManager,
	}
}

// RequireLogin 校验 Bearer Token 并加载账号
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(c, "认证头格式错误")
			c.Abort()
			return
		}

		claims, err := m.jwtManager.VerifyToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			response.Unauthorized(c, "Token无效或已过期")
			c.Abort()
			return
		}

		operator, err := m.operators.GetByID(c.Request.Context(), claims.OperatorID)
		if err != nil {
			response.Unauthorized(c, "账号不存在")
			c.Abort()
			return
		}

		if operator.Status != models.OperatorStatusActive {
			response.Forbidden(c, "账号已被禁用")
			c.Abort()
			return
		}

		c.Set("operator", operator)
		c.Set("operator_id", claims.OperatorID)
		c.Set("username", claims.Username)
		c.Set("claims", claims)

		c.Next()
	}
}
