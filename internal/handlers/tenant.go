package handlers

import (
	"context"
	"errors"
	"strconv"

	"sitehub/internal/contenttype"
	"sitehub/internal/models"
	"sitehub/internal/provisioning"
	"sitehub/internal/services"
	apperrors "sitehub/pkg/errors"
	"sitehub/pkg/pagination"
	"sitehub/pkg/response"

	"github.com/gin-gonic/gin"
)

// TenantOperations 租户管理接口
type TenantOperations interface {
	Provision(ctx context.Context, req services.ProvisionRequest) (*provisioning.Outcome, error)
	List(ctx context.Context, status, keyword string, page, pageSize int) ([]models.Tenant, int64, error)
	Get(ctx context.Context, name string) (*models.Tenant, error)
	Records(ctx context.Context, name string, limit int) ([]models.ProvisioningRecord, error)
	Discover(ctx context.Context, name string) (*services.DiscoverOutcome, error)
	Templates(ctx context.Context, name string) (*contenttype.CachedTemplates, bool, error)
	InvalidateCache(ctx context.Context, name string) error
}

type TenantHandler struct {
	service TenantOperations
}

func NewTenantHandler(service TenantOperations) *TenantHandler {
	return &TenantHandler{
		service: service,
	}
}

// Create 开通租户
func (h *TenantHandler) Create(c *gin.Context) {
	var req services.ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	outcome, err := h.service.Provision(c.Request.Context(), req)
	if err != nil {
		var failed *provisioning.ProvisioningFailedError
		switch {
		case provisioning.IsValidation(err):
			response.BadRequest(c, err.Error())
		case provisioning.IsDuplicate(err):
			response.Conflict(c, err.Error())
		case errors.As(err, &failed) && failed.Step != provisioning.StepReserve:
			response.ErrorWithData(c, apperrors.CodeProvisioningFailed, err.Error(), gin.H{
				"tenant":      failed.Tenant,
				"step":        failed.Step,
				"rolled_back": failed.RolledBack(),
			})
		default:
			response.ServerError(c, "开通失败: "+err.Error())
		}
		return
	}

	response.Success(c, outcome)
}

// GetAll 分页列出租户，支持按状态筛选、关键词搜索
func (h *TenantHandler) GetAll(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)
	filter := pagination.ParseFilter(c)

	tenants, total, err := h.service.List(c.Request.Context(), filter.Status, filter.Keyword, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, tenants, pageInfo)
}

// Get 获取租户
func (h *TenantHandler) Get(c *gin.Context) {
	tenant, err := h.service.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.tenantError(c, err, "查询失败")
		return
	}
	response.Success(c, tenant)
}

// Records 开通流水
func (h *TenantHandler) Records(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		response.BadRequest(c, "limit格式错误")
		return
	}

	records, err := h.service.Records(c.Request.Context(), c.Param("name"), limit)
	if err != nil {
		h.tenantError(c, err, "查询失败")
		return
	}
	response.Success(c, records)
}

// Discover 重新扫描主题模板并登记内容类型
func (h *TenantHandler) Discover(c *gin.Context) {
	outcome, err := h.service.Discover(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.tenantError(c, err, "发现失败: "+err.Error())
		return
	}
	response.Success(c, outcome)
}

// Templates 模板元数据缓存
func (h *TenantHandler) Templates(c *gin.Context) {
	cached, ok, err := h.service.Templates(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.tenantError(c, err, "读取模板缓存失败")
		return
	}
	if !ok {
		response.NotFound(c, "模板缓存为空，请先执行发现")
		return
	}
	response.Success(c, cached)
}

// InvalidateCache 清除租户缓存
func (h *TenantHandler) InvalidateCache(c *gin.Context) {
	if err := h.service.InvalidateCache(c.Request.Context(), c.Param("name")); err != nil {
		h.tenantError(c, err, "清除缓存失败")
		return
	}
	response.SuccessWithMessage(c, "缓存已清除", nil)
}

func (h *TenantHandler) tenantError(c *gin.Context, err error, fallback string) {
	switch {
	case services.IsNotFound(err):
		response.NotFound(c, "租户不存在")
	case errors.Is(err, services.ErrTenantNotActive):
		response.Conflict(c, err.Error())
	default:
		response.ServerError(c, fallback)
	}
}
