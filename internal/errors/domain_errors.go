package errors

import (
	"fmt"
	"net/http"
)

// 配置项相关错误

// InvalidOption 配置项校验失败
func InvalidOption(field, reason string) *AppError {
	message := fmt.Sprintf("invalid option: %s", field)
	if reason != "" {
		message = fmt.Sprintf("%s (%s)", message, reason)
	}
	return New(ErrTypeValidation, message, nil, http.StatusBadRequest).WithField(field).WithStack()
}

// RequiredOption 必填配置项缺失
func RequiredOption(field string) *AppError {
	return New(ErrTypeValidation, fmt.Sprintf("option is required: %s", field), nil, http.StatusBadRequest).
		WithField(field).WithStack()
}

func DecodeOptionsFailed(cause error) *AppError {
	return New(ErrTypeValidation, "failed to decode options", cause, http.StatusBadRequest).WithStack()
}

func InvalidArg(arg string) *AppError {
	return New(ErrTypeInvalidArg, fmt.Sprintf("invalid argument: %s", arg), nil, http.StatusBadRequest).WithStack()
}

// Webhook 投递相关错误

// WebhookUnreachable 网络层失败（DNS、连接、超时）
func WebhookUnreachable(cause error) *AppError {
	return New(ErrTypeWebhook, "webhook unreachable", cause, http.StatusBadGateway).WithStack()
}

// WebhookRejected 对端返回非 2xx
func WebhookRejected(status int, body string) *AppError {
	message := fmt.Sprintf("webhook returned HTTP %d", status)
	if body != "" {
		message = fmt.Sprintf("%s: %s", message, body)
	}
	return New(ErrTypeWebhook, message, nil, http.StatusBadGateway).WithStack()
}

func InvalidWebhookURL(cause error) *AppError {
	return New(ErrTypeWebhook, "invalid webhook url", cause, http.StatusBadRequest).WithStack()
}

func EncodePayloadFailed(cause error) *AppError {
	return New(ErrTypeInternal, "failed to encode webhook payload", cause, http.StatusInternalServerError).WithStack()
}

// 数据库相关错误

func DBOpenFailed(path string, cause error) *AppError {
	return New(ErrTypeDatabase, fmt.Sprintf("db open failed: %s", path), cause, http.StatusInternalServerError).WithStack()
}

func DBInitFailed(cause error) *AppError {
	return New(ErrTypeDatabase, "db init failed", cause, http.StatusInternalServerError).WithStack()
}

func QueryFailed(query string, cause error) *AppError {
	return New(ErrTypeDatabase, fmt.Sprintf("query failed: %s", query), cause, http.StatusInternalServerError).WithStack()
}

func HTTPShutDown(cause error) *AppError {
	return New(ErrTypeHTTP, "http server shut down", cause, http.StatusInternalServerError).WithStack()
}
