package qdrant

import (
	"context"
	"crypto/tls"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const (
	contentKey   = "content"
	metadataKey  = "metadata"
	sourceFilter = "metadata.source"
)

type Config struct {
	Host               string
	Port               int
	APIKey             string
	UseTLS             bool
	ChunksCollection   string
	FullDocsCollection string
}

// Client owns the gRPC connection shared by the chunk index and the document store.
type Client struct {
	conn   *grpc.ClientConn
	points pb.PointsClient
	apiKey string

	chunks   string
	fullDocs string
}

func NewClient(cfg Config) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	creds := insecure.NewCredentials()
	if cfg.UseTLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s: %w", addr, err)
	}

	return &Client{
		conn:     conn,
		points:   pb.NewPointsClient(conn),
		apiKey:   cfg.APIKey,
		chunks:   cfg.ChunksCollection,
		fullDocs: cfg.FullDocsCollection,
	}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// ChunkIndex returns the similarity searcher over collection, or over the
// configured chunks collection when collection is empty.
func (c *Client) ChunkIndex(collection string) *ChunkIndex {
	if collection == "" {
		collection = c.chunks
	}
	return &ChunkIndex{points: c.points, apiKey: c.apiKey, collection: collection}
}

// DocumentStore returns the full-document lookup over collection, or over
// the configured full-docs collection when collection is empty.
func (c *Client) DocumentStore(collection string) *DocumentStore {
	if collection == "" {
		collection = c.fullDocs
	}
	return &DocumentStore{points: c.points, apiKey: c.apiKey, collection: collection}
}

func withAPIKey(ctx context.Context, apiKey string) context.Context {
	if apiKey == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
}
