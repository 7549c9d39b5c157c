package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sitehub/internal/models"
	"sitehub/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memOperators map[uint]*models.Operator

func (m memOperators) GetByID(_ context.Context, id uint) (*models.Operator, error) {
	if o, ok := m[id]; ok {
		return o, nil
	}
	return nil, errors.New("record not found")
}

func setupRouter(t *testing.T) (*gin.Engine, *jwt.JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := jwt.NewJWTManager("test-secret", time.Hour)
	operators := memOperators{
		1: {BaseModel: models.BaseModel{ID: 1}, Username: "admin", Status: models.OperatorStatusActive},
		2: {BaseModel: models.BaseModel{ID: 2}, Username: "former", Status: models.OperatorStatusInactive},
	}
	auth := NewAuthMiddleware(operators, manager)

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/protected", auth.RequireLogin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 200, "username": c.GetString("username")})
	})
	r.GET("/panic", func(*gin.Context) { panic("boom") })
	return r, manager
}

func call(r *gin.Engine, path, authorization string) map[string]interface{} {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}

func TestRequireLogin(t *testing.T) {
	r, manager := setupRouter(t)

	valid, err := manager.GenerateToken(1, "admin")
	require.NoError(t, err)
	disabled, err := manager.GenerateToken(2, "former")
	require.NoError(t, err)
	unknown, err := manager.GenerateToken(9, "ghost")
	require.NoError(t, err)

	tests := []struct {
		name          string
		authorization string
		code          float64
	}{
		{"missing header", "", 401},
		{"wrong scheme", "Basic abc", 401},
		{"bad token", "Bearer not-a-token", 401},
		{"unknown operator", "Bearer " + unknown, 401},
		{"disabled operator", "Bearer " + disabled, 403},
		{"valid", "Bearer " + valid, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := call(r, "/protected", tt.authorization)
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestRequireLogin_SetsUsername(t *testing.T) {
	r, manager := setupRouter(t)
	token, err := manager.GenerateToken(1, "admin")
	require.NoError(t, err)

	body := call(r, "/protected", "Bearer "+token)
	assert.Equal(t, "admin", body["username"])
}

func TestErrorHandler_RecoversPanic(t *testing.T) {
	r, _ := setupRouter(t)

	body := call(r, "/panic", "")
	assert.Equal(t, float64(500), body["code"])
}
