package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/scopeworks/kbpipeline/vectorstore"
)

// Config holds Qdrant connection configuration.
type Config struct {
	// URL is the Qdrant server address (e.g., "https://example.qdrant.io:6334").
	URL string

	// Collection is the name of the collection holding knowledge-base vectors.
	Collection string

	// APIKey is an optional API key for authentication.
	APIKey string
}

// Client implements vectorstore.Index for Qdrant.
type Client struct {
	client     *qdrant.Client
	collection string
}

var _ vectorstore.Index = (*Client)(nil)

// New creates a new Qdrant-backed vector index.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection is required")
	}

	parsedURL := cfg.URL
	if !strings.HasPrefix(parsedURL, "http://") && !strings.HasPrefix(parsedURL, "https://") {
		parsedURL = "https://" + parsedURL
	}

	u, err := url.Parse(parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse qdrant url: %w", err)
	}

	host := u.Hostname()
	port := 6334 // default gRPC port
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid port: %w", err)
		}
		port = p
	}

	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &Client{
		client:     qdrantClient,
		collection: cfg.Collection,
	}, nil
}

// EnsureCollection creates the collection with a cosine-distance vector
// schema if it does not already exist.
func (c *Client) EnsureCollection(ctx context.Context, dimension uint64) error {
	exists, err := c.client.CollectionExists(ctx, c.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", c.collection, err)
	}
	if exists {
		return nil
	}

	err = c.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: c.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", c.collection, err)
	}
	return nil
}

// Search implements vectorstore.Index.
func (c *Client) Search(ctx context.Context, vector []float32, topK int, scoreThreshold float32) ([]vectorstore.Match, error) {
	limit := uint64(topK)
	points, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		ScoreThreshold: &scoreThreshold,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	matches := make([]vectorstore.Match, 0, len(points))
	for _, point := range points {
		match := vectorstore.Match{
			Score:   point.Score,
			Payload: extractPayload(point.Payload),
		}

		if point.Id != nil {
			if uuid := point.Id.GetUuid(); uuid != "" {
				match.PointID = uuid
			} else if num := point.Id.GetNum(); num != 0 {
				match.PointID = fmt.Sprintf("%d", num)
			}
		}

		matches = append(matches, match)
	}

	return matches, nil
}

// Upsert implements vectorstore.Index.
func (c *Client) Upsert(ctx context.Context, points []vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		structs[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"document_path": p.Payload.DocumentPath,
				"document_name": p.Payload.DocumentName,
				"chunk_index":   int64(p.Payload.ChunkIndex),
				"content":       p.Payload.Content,
				"created_at":    p.Payload.CreatedAt.UTC().Format(time.RFC3339),
			}),
		}
	}

	wait := true
	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.collection,
		Points:         structs,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

// Delete implements vectorstore.Index.
func (c *Client) Delete(ctx context.Context, pointIDs []string) error {
	if len(pointIDs) == 0 {
		return nil
	}

	ids := make([]*qdrant.PointId, len(pointIDs))
	for i, id := range pointIDs {
		ids[i] = qdrant.NewID(id)
	}

	wait := true
	_, err := c.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: c.collection,
		Points:         qdrant.NewPointsSelector(ids...),
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("qdrant delete failed: %w", err)
	}
	return nil
}

// Close implements vectorstore.Index.
func (c *Client) Close() error {
	return c.client.Close()
}

// extractPayload converts a Qdrant payload map into the typed Payload.
func extractPayload(payload map[string]*qdrant.Value) vectorstore.Payload {
	var p vectorstore.Payload
	if payload == nil {
		return p
	}

	if v, ok := payload["document_path"]; ok {
		p.DocumentPath = v.GetStringValue()
	}
	if v, ok := payload["document_name"]; ok {
		p.DocumentName = v.GetStringValue()
	}
	if v, ok := payload["chunk_index"]; ok {
		p.ChunkIndex = int(v.GetIntegerValue())
	}
	if v, ok := payload["content"]; ok {
		p.Content = v.GetStringValue()
	}
	if v, ok := payload["created_at"]; ok {
		if ts, err := time.Parse(time.RFC3339, v.GetStringValue()); err == nil {
			p.CreatedAt = ts
		}
	}
	return p
}
