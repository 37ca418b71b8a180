package query

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/orbital-fleet-economics/internal/forecast"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/sim/state"
	"github.com/signalsfoundry/orbital-fleet-economics/model"
	"github.com/signalsfoundry/orbital-fleet-economics/timectrl"
)

// ErrInvalidRequest is used for requests that fail to decode or validate.
var ErrInvalidRequest = errors.New("invalid request")

// ToStatusError maps engine errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, state.ErrEntryNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, model.ErrUnknownScenario),
		errors.Is(err, model.ErrInvalidConfig),
		errors.Is(err, forecast.ErrInvalidSpec):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())

	case errors.Is(err, context.Canceled),
		errors.Is(err, timectrl.ErrStopped):
		return status.Error(codes.Canceled, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
