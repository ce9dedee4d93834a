package service

import (
	"errors"

	"proposal-core/pkg/errno"
)

// SubmissionError 写链失败
// Kind 是错误分类，TxID/ExplorerURL 在交易已提交后才有值，便于到浏览器核对
type SubmissionError struct {
	Kind        errno.Errno
	TxID        string
	ExplorerURL string
	Err         error
}

func (e *SubmissionError) Error() string {
	msg := e.Kind.Message
	if e.Err != nil && e.Err.Error() != msg {
		msg += ": " + e.Err.Error()
	}
	if e.TxID != "" {
		msg += " (tx " + e.TxID + ")"
	}
	return msg
}

// Unwrap 同时暴露分类和底层错误，errors.Is(err, errno.ErrSealTimeout) 可用
func (e *SubmissionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newSubmissionError(kind errno.Errno, err error) *SubmissionError {
	return &SubmissionError{Kind: kind, Err: err}
}

// AsSubmissionError 取出写链错误，非写链错误返回 nil
func AsSubmissionError(err error) *SubmissionError {
	var se *SubmissionError
	if errors.As(err, &se) {
		return se
	}
	return nil
}
