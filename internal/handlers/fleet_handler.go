package handlers

import (
	"context"
	"errors"
	"time"

	"sitehub/internal/fleet"
	"sitehub/internal/services"
	apperrors "sitehub/pkg/errors"
	"sitehub/pkg/response"

	"github.com/gin-gonic/gin"
)

// FleetScheduler 全量同步调度
type FleetScheduler interface {
	RunNow(ctx context.Context) (*fleet.Result, error)
	LastRun() (*services.FleetSyncRun, bool)
	GetStatus() map[string]interface{}
}

// 手动同步与请求连接解耦，客户端断开不会中止同步
const manualSyncTimeout = 30 * time.Minute

type FleetHandler struct {
	scheduler FleetScheduler
}

func NewFleetHandler(scheduler FleetScheduler) *FleetHandler {
	return &FleetHandler{scheduler: scheduler}
}

// Sync 立即对所有租户执行一次迁移同步；部分租户失败时返回失败列表
func (h *FleetHandler) Sync(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), manualSyncTimeout)
	defer cancel()

	result, err := h.scheduler.RunNow(ctx)
	if err != nil {
		if errors.Is(err, services.ErrSyncInProgress) {
			response.Conflict(c, err.Error())
			return
		}
		response.ServerError(c, "全量同步失败: "+err.Error())
		return
	}

	if !result.OK() {
		response.ErrorWithData(c, apperrors.CodeFleetSyncPartial, "部分租户同步失败", result)
		return
	}
	response.Success(c, result)
}

// LastRun 最近一次全量同步
func (h *FleetHandler) LastRun(c *gin.Context) {
	run, ok := h.scheduler.LastRun()
	if !ok {
		response.NotFound(c, "尚未执行过全量同步")
		return
	}
	response.Success(c, run)
}

// Status 调度器状态
func (h *FleetHandler) Status(c *gin.Context) {
	response.Success(c, h.scheduler.GetStatus())
}
