// Package grpcclient is a reference chunkstore.NetworkClient implementation
// over gRPC, grounded in the teacher's fluid/replicas.go Dial/DialTLS
// connection patterns. It forwards GetBlob/PutBlob/DeleteBlob as plain
// RPCs using the raw binary codec of codec.go rather than protoc-generated
// stubs, since blob.Address and blob.Blob already carry the deterministic
// MarshalBinary/UnmarshalBinary encoding spec.md §6 requires.
package grpcclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"

	"github.com/bbengfort/fluidblob/blob"
	"github.com/bbengfort/fluidblob/chunkstore"
)

// service is the gRPC service path every RPC below is issued against.
const service = "/fluidblob.ChunkService/"

// Client implements chunkstore.NetworkClient over a single gRPC
// connection to a network replica.
type Client struct {
	conn *grpc.ClientConn
}

// DialInsecure connects to addr with no transport security, mirroring the
// teacher's Replica.DialInsecure — intended for tests and local networks
// only.
func DialInsecure(addr string) (*Client, error) {
	conn, err := grpc.Dial(addr, grpc.WithInsecure())
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// DialTLS connects to addr, verifying the server's certificate against
// caCertPath, mirroring the teacher's Replica.DialTLS.
func DialTLS(addr, caCertPath string) (*Client, error) {
	creds, err := credentials.NewClientTLSFromFile(caCertPath, "")
	if err != nil {
		return nil, err
	}
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// DialMutualTLS connects to addr presenting a client certificate and
// verifying the server against caCertPath, mirroring the teacher's
// Replica.DialMutualTLS.
func DialMutualTLS(addr, caCertPath, clientCertPath, clientKeyPath string) (*Client, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caCert)

	cert, err := tls.LoadX509KeyPair(clientCertPath, clientKeyPath)
	if err != nil {
		return nil, err
	}

	creds := credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
	})

	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, args, reply interface{}) error {
	err := c.conn.Invoke(ctx, service+method, args, reply, grpc.CallContentSubtype(codecName))
	if err == nil {
		return nil
	}
	return translateStatus(err)
}

// GetBlob implements chunkstore.NetworkClient.
func (c *Client) GetBlob(ctx context.Context, addr blob.Address) (blob.Blob, error) {
	var b blob.Blob
	if err := c.invoke(ctx, "GetBlob", &addr, &b); err != nil {
		return blob.Blob{}, err
	}
	return b, nil
}

// PutBlob implements chunkstore.NetworkClient.
func (c *Client) PutBlob(ctx context.Context, b blob.Blob) error {
	var a ack
	return c.invoke(ctx, "PutBlob", &b, &a)
}

// DeleteBlob implements chunkstore.NetworkClient.
func (c *Client) DeleteBlob(ctx context.Context, addr blob.Address) error {
	var a ack
	return c.invoke(ctx, "DeleteBlob", &addr, &a)
}

// translateStatus maps gRPC status codes onto the sentinel errors package
// chunkstore classifies, per spec.md §6's RPC outcome set (Ok | Full |
// Unauthorised | NotFound).
func translateStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return chunkstore.ErrNotFound
	case codes.ResourceExhausted:
		return chunkstore.ErrFull
	case codes.PermissionDenied, codes.Unauthenticated:
		return chunkstore.ErrUnauthorised
	default:
		return err
	}
}
