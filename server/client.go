package server

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/statekit/record"
)

// Client calls a remote WorkflowService with typed records.
//
//	client := server.NewClient(http.DefaultClient, "http://127.0.0.1:8080")
//	out, err := client.RunBasic(ctx, record.Basic{Count: 0})
type Client struct {
	basicClient   *connect.Client[structpb.Struct, structpb.Struct]
	complexClient *connect.Client[structpb.Struct, structpb.Struct]
}

// NewClient creates a Client for the service at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		basicClient:   connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+RunBasicProcedure, opts...),
		complexClient: connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+RunComplexProcedure, opts...),
	}
}

func (c *Client) RunBasic(ctx context.Context, r record.Basic) (record.Basic, error) {
	return call(ctx, c.basicClient, r)
}

func (c *Client) RunComplex(ctx context.Context, r record.Complex) (record.Complex, error) {
	return call(ctx, c.complexClient, r)
}

func call[R any](ctx context.Context, client *connect.Client[structpb.Struct, structpb.Struct], r R) (R, error) {
	var zero R

	msg, err := EncodeRecord(r)
	if err != nil {
		return zero, err
	}

	resp, err := client.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return zero, err
	}

	return DecodeRecord[R](resp.Msg)
}
