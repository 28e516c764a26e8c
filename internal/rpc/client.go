package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/wellness-risk/internal/widget"
)

// #region client
// Client calls wellness.RiskService. It implements widget.Fetcher.
type Client struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// Dial connects to the risk service at addr without transport security.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClientWithConn wraps an existing connection. Close is then a no-op.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Close shuts down a connection opened by Dial.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// FetchRisk reads the latest assessment.
func (c *Client) FetchRisk(ctx context.Context, userID string) (widget.Snapshot, error) {
	return c.invoke(ctx, methodGetRiskScore, userID)
}

// CalculateRisk asks the service to score the user now.
func (c *Client) CalculateRisk(ctx context.Context, userID string) (widget.Snapshot, error) {
	return c.invoke(ctx, methodCalculateRisk, userID)
}

func (c *Client) invoke(ctx context.Context, method, userID string) (widget.Snapshot, error) {
	in, err := structpb.NewStruct(map[string]any{"userId": userID})
	if err != nil {
		return widget.Snapshot{}, fmt.Errorf("%s: %w", method, err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out); err != nil {
		return widget.Snapshot{}, classify(method, err)
	}
	resp, err := fromStruct(out)
	if err != nil {
		return widget.Snapshot{}, fmt.Errorf("%w: %s: %w", widget.ErrTransport, method, err)
	}
	return resp.Snapshot()
}

// classify maps server-decided status codes to rejections and everything
// else to transport failures.
func classify(method string, err error) error {
	switch status.Code(err) {
	case codes.InvalidArgument, codes.Internal, codes.NotFound, codes.FailedPrecondition:
		return fmt.Errorf("%w: %s: %s", widget.ErrServiceRejected, method, status.Convert(err).Message())
	default:
		return fmt.Errorf("%w: %s: %w", widget.ErrTransport, method, err)
	}
}

// #endregion client
