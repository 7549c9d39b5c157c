package jwt

import (
	"errors"
	"time"

	"sitehub/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

// OperatorClaims 平台运维人员的JWT声明
type OperatorClaims struct {
	OperatorID uint   `json:"operator_id"`
	Username   string `json:"username"`
	jwt.RegisteredClaims
}

// JWTManager JWT管理器
type JWTManager struct {
	secretKey     string
	tokenDuration time.Duration
}

// NewJWTManager 创建JWT管理器
func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     secretKey,
		tokenDuration: tokenDuration,
	}
}

// GenerateToken 生成JWT令牌
func (manager *JWTManager) GenerateToken(operatorID uint, username string) (string, error) {
	now := time.Now()
	claims := OperatorClaims{
		OperatorID: operatorID,
		Username:   username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(manager.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "sitehub",
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(manager.secretKey))
}

// VerifyToken 验证JWT令牌
func (manager *JWTManager) VerifyToken(tokenString string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&OperatorClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// 验证签名方法
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("意外的签名方法")
			}
			return []byte(manager.secretKey), nil
		},
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid {
		return nil, errors.New("无法解析token声明")
	}

	return claims, nil
}

// GetTokenDuration 获取令牌有效期
func (manager *JWTManager) GetTokenDuration() time.Duration {
	return manager.tokenDuration
}

// FromConfig 按配置创建JWT管理器，有效期无法解析时默认24小时
func FromConfig(cfg config.JWTConfig) *JWTManager {
	tokenDuration, err := time.ParseDuration(cfg.TokenDuration)
	if err != nil || tokenDuration <= 0 {
		tokenDuration = 24 * time.Hour
	}
	return NewJWTManager(cfg.SecretKey, tokenDuration)
}
