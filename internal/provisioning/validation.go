package provisioning

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// 租户名来自子域名
var tenantNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*[a-z0-9]$|^[a-z0-9]$`)

const maxTenantNameLength = 63

// Credential 租户管理员凭证
type Credential struct {
	Email    string `json:"email" validate:"required,email,max=191"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// ValidateName 校验租户名
func ValidateName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Reason: "不能为空"}
	}
	if len(name) > maxTenantNameLength {
		return &ValidationError{Field: "name", Reason: "长度不能超过63个字符"}
	}
	if !tenantNamePattern.MatchString(name) {
		return &ValidationError{Field: "name", Reason: "只能包含小写字母、数字和连字符，且不能以连字符开头或结尾"}
	}
	return nil
}

func validateCredential(v *validator.Validate, cred Credential) error {
	err := v.Struct(cred)
	if err == nil {
		return nil
	}
	validationErr, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErr) == 0 {
		return &ValidationError{Field: "credential", Reason: err.Error()}
	}
	fieldErr := validationErr[0]
	field := strings.ToLower(fieldErr.Field())
	switch field {
	case "email":
		return &ValidationError{Field: "admin_email", Reason: "必须是合法的邮箱地址"}
	case "password":
		return &ValidationError{Field: "admin_password", Reason: "长度需在8-72个字符之间"}
	default:
		return &ValidationError{Field: field, Reason: fieldErr.Tag()}
	}
}
