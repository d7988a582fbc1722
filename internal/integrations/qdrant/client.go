package qdrant

import (
	"context"
	"fmt"
	"strings"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Client implements the VectorStore interface for Qdrant.
type Client struct {
	conn        *grpc.ClientConn
	collections pb.CollectionsClient
	points      pb.PointsClient
	apiKey      string
	timeout     time.Duration
}

// NewClient creates a new Qdrant client. URL can be "localhost:6334",
// "host:port" or "https://cloud.qdrant.io:6334"; TLS is enabled for
// https:// URLs and cloud-looking hostnames.
func NewClient(url, apiKey string) (*Client, error) {
	target := url
	useTLS := false

	if strings.HasPrefix(url, "https://") {
		target = strings.TrimPrefix(url, "https://")
		useTLS = true
	} else if strings.HasPrefix(url, "http://") {
		target = strings.TrimPrefix(url, "http://")
	} else {
		useTLS = strings.Contains(strings.ToLower(url), "cloud") ||
			strings.Contains(strings.ToLower(url), ".qdrant.io")
	}

	var opts []grpc.DialOption
	if useTLS {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(credentials.NewTLS(nil))}
	} else {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}

	return &Client{
		conn:        conn,
		collections: pb.NewCollectionsClient(conn),
		points:      pb.NewPointsClient(conn),
		apiKey:      apiKey,
		timeout:     30 * time.Second,
	}, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// ctxWithAuth adds authentication to an existing context with timeout.
func (c *Client) ctxWithAuth(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	if c.apiKey != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", c.apiKey)
	}
	return ctx, cancel
}

// CreateCollection creates a new collection if it doesn't exist. Vectors
// use cosine distance, which suits normalized text embeddings.
func (c *Client) CreateCollection(ctx context.Context, name string, dimension int) error {
	authCtx, cancel := c.ctxWithAuth(ctx)
	defer cancel()

	exists, err := c.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = c.collections.Create(authCtx, &pb.CreateCollection{
		CollectionName: name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// CollectionExists checks if a collection exists.
func (c *Client) CollectionExists(ctx context.Context, name string) (bool, error) {
	authCtx, cancel := c.ctxWithAuth(ctx)
	defer cancel()

	resp, err := c.collections.List(authCtx, &pb.ListCollectionsRequest{})
	if err != nil {
		return false, fmt.Errorf("failed to list collections: %w", err)
	}

	for _, col := range resp.Collections {
		if col.Name == name {
			return true, nil
		}
	}

	return false, nil
}

// Upsert inserts or updates points in the collection.
func (c *Client) Upsert(ctx context.Context, collectionName string, points []*Point) error {
	authCtx, cancel := c.ctxWithAuth(ctx)
	defer cancel()

	qPoints := make([]*pb.PointStruct, len(points))
	for i, p := range points {
		payload := make(map[string]*pb.Value)
		for k, v := range p.Payload {
			payload[k] = toQdrantValue(v)
		}

		qPoints[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: p.ID}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: p.Vector}}},
			Payload: payload,
		}
	}

	_, err := c.points.Upsert(authCtx, &pb.UpsertPoints{
		CollectionName: collectionName,
		Points:         qPoints,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

// Search finds the nearest neighbors for a given vector.
func (c *Client) Search(ctx context.Context, collectionName string, vector []float32, limit int, threshold float64) ([]*SearchResult, error) {
	authCtx, cancel := c.ctxWithAuth(ctx)
	defer cancel()

	scoreThreshold := float32(threshold)
	resp, err := c.points.Search(authCtx, &pb.SearchPoints{
		CollectionName: collectionName,
		Vector:         vector,
		Limit:          uint64(limit),
		ScoreThreshold: &scoreThreshold,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]*SearchResult, len(resp.Result))
	for i, hit := range resp.Result {
		payload := make(map[string]interface{})
		for k, v := range hit.Payload {
			payload[k] = fromQdrantValue(v)
		}

		id := hit.Id.GetUuid()
		if id == "" {
			id = fmt.Sprintf("%d", hit.Id.GetNum())
		}

		results[i] = &SearchResult{
			ID:      id,
			Score:   hit.Score,
			Payload: payload,
		}
	}

	return results, nil
}

// Delete removes a point by ID.
func (c *Client) Delete(ctx context.Context, collectionName string, id string) error {
	authCtx, cancel := c.ctxWithAuth(ctx)
	defer cancel()

	_, err := c.points.Delete(authCtx, &pb.DeletePoints{
		CollectionName: collectionName,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{{PointIdOptions: &pb.PointId_Uuid{Uuid: id}}},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete point: %w", err)
	}

	return nil
}

// toQdrantValue converts a Go value to a Qdrant payload value. String
// slices map to list values so skill lists survive the round trip.
func toQdrantValue(v interface{}) *pb.Value {
	switch val := v.(type) {
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: val}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(val)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: val}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: val}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: val}}
	case []string:
		values := make([]*pb.Value, len(val))
		for i, s := range val {
			values[i] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: values}}}
	case []interface{}:
		values := make([]*pb.Value, len(val))
		for i, item := range val {
			values[i] = toQdrantValue(item)
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: values}}}
	default:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprintf("%v", val)}}
	}
}

// fromQdrantValue converts a Qdrant payload value back to a Go value.
func fromQdrantValue(v *pb.Value) interface{} {
	switch k := v.Kind.(type) {
	case *pb.Value_StringValue:
		return k.StringValue
	case *pb.Value_IntegerValue:
		return k.IntegerValue
	case *pb.Value_DoubleValue:
		return k.DoubleValue
	case *pb.Value_BoolValue:
		return k.BoolValue
	case *pb.Value_ListValue:
		items := make([]interface{}, len(k.ListValue.Values))
		for i, item := range k.ListValue.Values {
			items[i] = fromQdrantValue(item)
		}
		return items
	default:
		return nil
	}
}

// StringList extracts a []string from a payload value produced by
// fromQdrantValue. Non-string items are skipped.
func StringList(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
