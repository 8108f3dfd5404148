package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// WrapIfErr 如果 err 不为 nil，则包装错误并返回，否则返回 nil
func WrapIfErr(err error, errType, message string, code int) error {
	if err == nil {
		return nil
	}
	return Wrap(err, errType, message, code)
}

// JoinErrors 将多个错误合并为一个错误
// 只有一个非 nil 错误时直接返回该错误
func JoinErrors(errs ...error) error {
	var nonNilErrs []error
	for _, err := range errs {
		if err != nil {
			nonNilErrs = append(nonNilErrs, err)
		}
	}

	if len(nonNilErrs) == 0 {
		return nil
	}

	if len(nonNilErrs) == 1 {
		return nonNilErrs[0]
	}

	var messages []string
	for _, err := range nonNilErrs {
		messages = append(messages, err.Error())
	}

	return Internal(
		fmt.Sprintf("multiple errors occurred: %s", strings.Join(messages, "; ")),
		nonNilErrs[0],
	)
}

// AsAppError 将错误转换为 AppError 类型
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// FormatErrorChain 格式化错误链，便于调试
func FormatErrorChain(err error) string {
	if err == nil {
		return "<nil>"
	}

	var result strings.Builder
	result.WriteString(err.Error())

	var appErr *AppError
	if stderrors.As(err, &appErr) && len(appErr.Stack) > 0 {
		result.WriteString("\nStack Trace:\n")
		for _, frame := range appErr.Stack {
			result.WriteString("  ")
			result.WriteString(frame)
			result.WriteString("\n")
		}
	}

	cause := stderrors.Unwrap(err)
	if cause != nil {
		result.WriteString("\nCaused by: ")
		result.WriteString(FormatErrorChain(cause))
	}

	return result.String()
}
