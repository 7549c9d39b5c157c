package errors

// ========== 错误码常量定义 ==========

// CodeSuccess 成功码
const (
	CodeSuccess = 200
)

// HTTP层错误码 (400-599)
const (
	CodeInvalidParam = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeConflict     = 409
	CodeServerError  = 500
)

// 业务错误码 (1000+)
const (
	CodeProvisioningFailed = 1001 // 租户开通失败（已回滚）
	CodeFleetSyncPartial   = 1002 // 全量同步存在失败租户
)
