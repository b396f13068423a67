package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/DEFRA/forms-designer-sub008/internal/types"
)

// Error mapping:
//   - model validation errors map to INVALID_ARGUMENT
//   - unregistered fields and unknown references map to FAILED_PRECONDITION
//   - missing conditions map to NOT_FOUND, taken names to ALREADY_EXISTS
//   - context errors map to DEADLINE_EXCEEDED / CANCELED
//   - anything else is a storage failure and maps to UNAVAILABLE

var invalidArgument = []error{
	types.ErrInvalidCoordinator,
	types.ErrInvalidField,
	types.ErrInvalidValue,
	types.ErrUnknownValueType,
	types.ErrUnregisteredValue,
	types.ErrInvalidGroupRange,
	types.ErrGroupOutOfBounds,
	types.ErrInvalidGroup,
	types.ErrNotAGroup,
	types.ErrIndexOutOfRange,
	types.ErrMissingCoordinator,
	types.ErrCoordinatorInvariant,
	types.ErrUnsupportedOperator,
	types.ErrInvalidReference,
	types.ErrMalformedItem,
	types.ErrMalformedExpression,
}

var failedPrecondition = []error{
	types.ErrFieldNotRegistered,
	types.ErrUnknownConditionRef,
	types.ErrConditionInUse,
}

// ToStatus converts err into a gRPC status error. Errors that already carry
// a status pass through unchanged.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codeOf(err), err.Error())
}

func codeOf(err error) codes.Code {
	switch {
	case errors.Is(err, types.ErrConditionNotFound):
		return codes.NotFound
	case errors.Is(err, types.ErrDuplicateConditionName):
		return codes.AlreadyExists
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	}
	for _, target := range failedPrecondition {
		if errors.Is(err, target) {
			return codes.FailedPrecondition
		}
	}
	for _, target := range invalidArgument {
		if errors.Is(err, target) {
			return codes.InvalidArgument
		}
	}
	return codes.Unavailable
}
