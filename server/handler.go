// Package server exposes the workflows over Connect RPC.
//
// The service has two unary procedures whose request and response are both
// google.protobuf.Struct, so no generated code is needed:
//
//	/statekit.v1.WorkflowService/RunBasic    {"count": 0}                -> {"count": 1}
//	/statekit.v1.WorkflowService/RunComplex  {"count": 0, "messages": []} -> {"count": 1, "messages": [...]}
//
// Connect, gRPC and gRPC-Web clients can all call it; curl works with the
// Connect JSON encoding:
//
//	curl -H 'Content-Type: application/json' -d '{"count": 0}' \
//	    http://127.0.0.1:8080/statekit.v1.WorkflowService/RunBasic
package server

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/statekit/observability"
	"github.com/tailored-agentic-units/statekit/record"
)

const (
	ServiceName = "statekit.v1.WorkflowService"

	RunBasicProcedure   = "/" + ServiceName + "/RunBasic"
	RunComplexProcedure = "/" + ServiceName + "/RunComplex"
)

// Runner executes the workflows behind the procedures.
type Runner interface {
	RunBasic(ctx context.Context, r record.Basic) (record.Basic, error)
	RunComplex(ctx context.Context, r record.Complex) (record.Complex, error)
}

// NewHandler returns an http.Handler serving both procedures. A nil observer
// disables request events.
func NewHandler(runner Runner, observer observability.Observer, opts ...connect.HandlerOption) http.Handler {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}

	mux := http.NewServeMux()
	mux.Handle(RunBasicProcedure, connect.NewUnaryHandler(
		RunBasicProcedure,
		unary(observer, RunBasicProcedure, runner.RunBasic),
		opts...,
	))
	mux.Handle(RunComplexProcedure, connect.NewUnaryHandler(
		RunComplexProcedure,
		unary(observer, RunComplexProcedure, runner.RunComplex),
		opts...,
	))
	return mux
}

// unary adapts a record workflow to a Struct-in, Struct-out handler. Bad
// input maps to CodeInvalidArgument and workflow failures to CodeInternal.
func unary[R any](
	observer observability.Observer,
	procedure string,
	run func(context.Context, R) (R, error),
) func(context.Context, *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	return func(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
		start := time.Now()

		out, err := handle(ctx, req.Msg, run)

		code := "ok"
		if err != nil {
			code = connect.CodeOf(err).String()
		}

		level := observability.LevelInfo
		if err != nil {
			level = observability.LevelWarning
		}

		observer.OnEvent(ctx, observability.Event{
			Type:      EventRequest,
			Level:     level,
			Timestamp: time.Now(),
			Source:    "server",
			Data: map[string]any{
				"procedure": procedure,
				"protocol":  req.Peer().Protocol,
				"code":      code,
				"duration":  time.Since(start).String(),
			},
		})

		if err != nil {
			return nil, err
		}
		return connect.NewResponse(out), nil
	}
}

func handle[R any](ctx context.Context, msg *structpb.Struct, run func(context.Context, R) (R, error)) (*structpb.Struct, error) {
	if msg == nil {
		msg = &structpb.Struct{}
	}

	in, err := DecodeRecord[R](msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	result, err := run(ctx, in)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out, err := EncodeRecord(result)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return out, nil
}
