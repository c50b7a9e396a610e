package messenger

import (
	"errors"
	"fmt"
)

// ErrorCode classifies channel-layer failures
type ErrorCode uint8

const (
	ErrorNone ErrorCode = iota
	ErrorParsePayload
	ErrorOperationAborted
	ErrorTransportReceive
	ErrorTransportSend
	ErrorMessageEncrypt
	ErrorMessageDecrypt
	ErrorFrameOversize
	ErrorFrameSequence
	ErrorPromiseSettled
	ErrorInboxOverflow
)

var errorCodeNames = map[ErrorCode]string{
	ErrorNone:             "none",
	ErrorParsePayload:     "parse payload",
	ErrorOperationAborted: "operation aborted",
	ErrorTransportReceive: "transport receive",
	ErrorTransportSend:    "transport send",
	ErrorMessageEncrypt:   "message encrypt",
	ErrorMessageDecrypt:   "message decrypt",
	ErrorFrameOversize:    "frame oversize",
	ErrorFrameSequence:    "frame sequence",
	ErrorPromiseSettled:   "promise already settled",
	ErrorInboxOverflow:    "inbox overflow",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("error(%d)", uint8(c))
}

// Error is a coded failure delivered to OnChannelError or a send promise.
// Two Errors match under errors.Is when their codes match.
type Error struct {
	Code ErrorCode
	Err  error
}

// NewError wraps cause under code
func NewError(code ErrorCode, cause error) *Error {
	return &Error{Code: code, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("messenger: %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("messenger: %s", e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrParsePayload     = &Error{Code: ErrorParsePayload}
	ErrOperationAborted = &Error{Code: ErrorOperationAborted}
	ErrTransportReceive = &Error{Code: ErrorTransportReceive}
	ErrTransportSend    = &Error{Code: ErrorTransportSend}
	ErrMessageEncrypt   = &Error{Code: ErrorMessageEncrypt}
	ErrMessageDecrypt   = &Error{Code: ErrorMessageDecrypt}
	ErrFrameOversize    = &Error{Code: ErrorFrameOversize}
	ErrFrameSequence    = &Error{Code: ErrorFrameSequence}
	ErrPromiseSettled   = &Error{Code: ErrorPromiseSettled}
	ErrInboxOverflow    = &Error{Code: ErrorInboxOverflow}
)
