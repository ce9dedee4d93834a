package errno

import "errors"

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Is 按错误码比较，WithDetail 派生出的错误与原始错误码视为同一类
func (e Errno) Is(target error) bool {
	switch t := target.(type) {
	case Errno:
		return t.Code == e.Code
	case *Errno:
		return t != nil && t.Code == e.Code
	}
	return false
}

// WithDetail 返回带补充说明的同码错误
func (e Errno) WithDetail(detail string) Errno {
	if detail == "" {
		return e
	}
	e.Message = e.Message + ": " + detail
	return e
}

// Decode tries to convert an error to Errno
// 包装链中出现的第一个 Errno 决定错误码，消息取最外层 err.Error()
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var typed Errno
	if errors.As(err, &typed) {
		return typed.Code, err.Error()
	}
	var ptr *Errno
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code, err.Error()
	}
	return InternalServerError.Code, err.Error()
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrDatabase         = Errno{Code: 10004, Message: "Database error"}
	ErrValidation       = Errno{Code: 10005, Message: "Validation failed"}
	ErrPermissionDenied = Errno{Code: 10006, Message: "Permission denied"}
)

// Business Errors (20000+)
var (
	ErrProposalNotFound = Errno{Code: 20101, Message: "Proposal not found"}
	ErrSweepInProgress  = Errno{Code: 20102, Message: "Another sweep is already running"}
)

// Ledger Errors (203xx)
var (
	ErrNotConnected        = Errno{Code: 20301, Message: "Not connected to ledger"}
	ErrNotConfigured       = Errno{Code: 20302, Message: "Ledger account not configured"}
	ErrInsufficientBalance = Errno{Code: 20303, Message: "Insufficient balance"}
	ErrBuildFailure        = Errno{Code: 20304, Message: "Failed to build transaction"}
	ErrSubmitFailure       = Errno{Code: 20305, Message: "Failed to submit transaction"}
	ErrSealFailure         = Errno{Code: 20306, Message: "Transaction failed"}
	ErrSealTimeout         = Errno{Code: 20307, Message: "Transaction timeout - please check explorer"}
	ErrDecodeFailure       = Errno{Code: 20308, Message: "Failed to decode ledger value"}
	ErrSigningError        = Errno{Code: 20309, Message: "Signing failed"}
	ErrRateLimited         = Errno{Code: 20310, Message: "Rate limited by access node"}
)
