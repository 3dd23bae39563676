// 包 apperr：对外可见的错误种类，HTTP 层据此映射状态码
package apperr

import (
	"errors"
	"fmt"
)

// BadRequest：客户端输入错误，永久性，不重试
type BadRequest struct {
	Msg string
	Err error
}

func (e *BadRequest) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *BadRequest) Unwrap() error { return e.Err }

// NotFound：目标不存在
type NotFound struct{ What string }

func (e *NotFound) Error() string { return e.What + " not found" }

// BadRequestf：格式化构造
func BadRequestf(format string, args ...any) error {
	return &BadRequest{Msg: fmt.Sprintf(format, args...)}
}

// WrapBadRequest：包裹底层解析错误
func WrapBadRequest(err error) error { return &BadRequest{Err: err} }

// IsBadRequest / IsNotFound：errors.As 的简写
func IsBadRequest(err error) bool {
	var e *BadRequest
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFound
	return errors.As(err, &e)
}
