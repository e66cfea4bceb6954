package common

import (
	"errors"
	"fmt"
)

// 定义常见错误类型
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidRequest       = errors.New("invalid request")
	// ErrUnknownNode 节点编号越界；同时满足 errors.Is(err, ErrInvalidRequest)
	ErrUnknownNode = fmt.Errorf("%w: unknown node", ErrInvalidRequest)
)

// APIError 对外返回的错误结构
type APIError struct {
	Type    string `json:"type"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Cause   error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// NewAPIError 根据错误分类创建 APIError
func NewAPIError(code int, err error) *APIError {
	apiErr := &APIError{
		Type:    ErrorType(err),
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		apiErr.Message = verr.Message
		apiErr.Details = verr.Field
	}
	return apiErr
}

// ErrorType 返回错误所属分类的名称
func ErrorType(err error) string {
	switch {
	case errors.Is(err, ErrUnknownNode):
		return "UnknownNode"
	case errors.Is(err, ErrInvalidRequest):
		return "InvalidRequest"
	case errors.Is(err, ErrInvalidConfiguration):
		return "InvalidConfiguration"
	default:
		return "InternalError"
	}
}

// ValidationError 验证错误，Kind 为所属的哨兵错误
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Kind    error       `json:"-"`
}

func (e *ValidationError) Error() string {
	if e.Kind != nil {
		return fmt.Sprintf("%s: field '%s': %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// NewValidationError 创建验证错误
func NewValidationError(kind error, field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
		Kind:    kind,
	}
}

// ValidateVector 校验向量长度与非负性
func ValidateVector(kind error, field string, v ResourceVector, length int) error {
	if len(v) != length {
		return NewValidationError(kind, field, fmt.Sprintf("expected %d entries, got %d", length, len(v)), []int64(v))
	}
	if j, ok := v.HasNegative(); ok {
		return NewValidationError(kind, fmt.Sprintf("%s[%d]", field, j), "must not be negative", v[j])
	}
	return nil
}
