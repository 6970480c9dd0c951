// Package errors classifies failures produced by magnet clients.
//
// Compile-time failures (bad declarations), bind-time failures (bad call
// arguments) and usage failures are all *CodeError values, so a caller can
// tell them apart from transport failures with Code.
package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
)

type CodeError struct {
	code codes.Code
	err  error
}

func (e *CodeError) Error() string {
	return e.err.Error()
}

func (e *CodeError) Unwrap() error {
	return e.err
}

// Code returns the gRPC-style code of the error.
func (e *CodeError) Code() codes.Code {
	return e.code
}

func (e *CodeError) HttpCode() int {
	return runtime.HTTPStatusFromCode(e.code)
}

func makeError(code codes.Code, format string, a ...interface{}) *CodeError {
	return &CodeError{
		code: code,
		err:  fmt.Errorf(format, a...),
	}
}

// Code returns the code of the first *CodeError in err's chain,
// codes.OK for nil and codes.Unknown for other errors.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	var codeErr *CodeError
	if stderrors.As(err, &codeErr) {
		return codeErr.code
	}
	return codes.Unknown
}

// InvalidArgument indicates client specified an invalid argument:
// a malformed declaration or a call argument that can not be bound.
func InvalidArgument(format string, a ...interface{}) *CodeError {
	return makeError(codes.InvalidArgument, format, a...)
}

// NotFound means the requested method is not declared by the service.
func NotFound(format string, a ...interface{}) *CodeError {
	return makeError(codes.NotFound, format, a...)
}

// FailedPrecondition indicates operation was rejected because the
// object is not in a state required for the operation's execution,
// e.g. a pending call that was already executed.
func FailedPrecondition(format string, a ...interface{}) *CodeError {
	return makeError(codes.FailedPrecondition, format, a...)
}

// Unavailable indicates the request could not be exchanged with the server.
func Unavailable(format string, a ...interface{}) *CodeError {
	return makeError(codes.Unavailable, format, a...)
}

// Internal errors. Means the response does not match the type expected
// by the caller.
func Internal(format string, a ...interface{}) *CodeError {
	return makeError(codes.Internal, format, a...)
}
