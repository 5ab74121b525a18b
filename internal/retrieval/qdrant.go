// ABOUTME: Qdrant-backed VectorRetriever over the gRPC points API
// ABOUTME: Boundary adapter - nearest-neighbor search itself lives in Qdrant
package retrieval

import (
	"context"
	"fmt"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// QdrantRetriever implements VectorRetriever against a Qdrant collection.
// Chunk ids are stored in the point payload under "chunk_id".
type QdrantRetriever struct {
	points     qdrantclient.PointsClient
	conn       *grpc.ClientConn
	collection string
}

// NewQdrantRetriever connects to a Qdrant server at addr (host:port gRPC)
func NewQdrantRetriever(addr, collection string) (*QdrantRetriever, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant at %s: %w", addr, err)
	}
	return &QdrantRetriever{
		points:     qdrantclient.NewPointsClient(conn),
		conn:       conn,
		collection: collection,
	}, nil
}

// Search runs a similarity search and maps points to VectorHits
func (q *QdrantRetriever) Search(ctx context.Context, vector []float32, topK int, namespace string, filter map[string]string) ([]VectorHit, error) {
	req := &qdrantclient.SearchPoints{
		CollectionName: q.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	}

	conditions := make(map[string]string, len(filter)+1)
	for k, v := range filter {
		conditions[k] = v
	}
	if namespace != "" {
		conditions["namespace"] = namespace
	}
	if len(conditions) > 0 {
		req.Filter = keywordFilter(conditions)
	}

	resp, err := q.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	hits := make([]VectorHit, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		payload := point.GetPayload()
		metadata := make(map[string]string, len(payload))
		for k, v := range payload {
			if s := v.GetStringValue(); s != "" {
				metadata[k] = s
			}
		}

		id := metadata["chunk_id"]
		if id == "" {
			id = point.GetId().GetUuid()
		}

		hits = append(hits, VectorHit{
			ID:       id,
			Score:    float64(point.GetScore()),
			Metadata: metadata,
		})
	}
	return hits, nil
}

// Close releases the gRPC connection
func (q *QdrantRetriever) Close() error {
	return q.conn.Close()
}

// keywordFilter builds a must-match-all filter over string payload fields
func keywordFilter(conditions map[string]string) *qdrantclient.Filter {
	filter := &qdrantclient.Filter{}
	for key, value := range conditions {
		filter.Must = append(filter.Must, &qdrantclient.Condition{
			ConditionOneOf: &qdrantclient.Condition_Field{
				Field: &qdrantclient.FieldCondition{
					Key: key,
					Match: &qdrantclient.Match{
						MatchValue: &qdrantclient.Match_Keyword{Keyword: value},
					},
				},
			},
		})
	}
	return filter
}
