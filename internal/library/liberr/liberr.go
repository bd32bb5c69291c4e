// Package liberr は貸出・返却・罰金が共有するドメインエラーモデル。
// ハンドラはここの Code だけを見てHTTPステータスへ変換する。
package liberr

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-sql-driver/mysql"
)

type Code string

const (
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeNotFound         Code = "NOT_FOUND"
	CodeUnavailable      Code = "UNAVAILABLE"       // 貸出可能な在庫なし
	CodeAlreadyReturned  Code = "ALREADY_RETURNED"  // 返却済み貸出への再返却
	CodeInvalidState     Code = "INVALID_STATE"     // pending 以外の罰金への支払い・免除
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE" // DB到達不能などの基盤障害
	CodeInternal         Code = "INTERNAL"
)

type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrInvalid(msg string) *Error          { return &Error{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *Error         { return &Error{Code: CodeNotFound, Message: msg} }
func ErrUnavailable(msg string) *Error      { return &Error{Code: CodeUnavailable, Message: msg} }
func ErrAlreadyReturned(msg string) *Error  { return &Error{Code: CodeAlreadyReturned, Message: msg} }
func ErrInvalidState(msg string) *Error     { return &Error{Code: CodeInvalidState, Message: msg} }
func ErrStoreUnavailable(msg string) *Error { return &Error{Code: CodeStoreUnavailable, Message: msg} }
func ErrInternal(msg string) *Error         { return &Error{Code: CodeInternal, Message: msg} }

// HasCode はテストやハンドラでの判定用
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

func ToHTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		switch e.Code {
		case CodeInvalidArgument:
			return http.StatusBadRequest
		case CodeNotFound:
			return http.StatusNotFound
		case CodeUnavailable, CodeAlreadyReturned, CodeInvalidState:
			return http.StatusConflict
		case CodeStoreUnavailable:
			return http.StatusServiceUnavailable
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// FromStore はストア層の生エラーをドメインエラーへ変換する。
// 既にドメインエラーならそのまま、接続系の障害は STORE_UNAVAILABLE、
// それ以外は INTERNAL として区別する（基盤障害とドメイン違反を混同しない）。
func FromStore(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ErrStoreUnavailable(err.Error())
	}
	return ErrInternal(err.Error())
}

// ---------- HTTP error body ----------

type ErrorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func Body(code Code, msg string) ErrorDTO {
	var d ErrorDTO
	d.Error.Code = code
	d.Error.Message = msg
	return d
}

func BodyFromErr(err error) ErrorDTO {
	var e *Error
	if errors.As(err, &e) {
		return Body(e.Code, e.Message)
	}
	return Body(CodeInternal, err.Error())
}
