// Package qdrant implements vectorstore.Index on a Qdrant collection. It
// backs the persistent reference corpus; per-report embeddings stay in the
// in-memory store.
package qdrant

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/doc2book/originality/internal/vectorstore"
)

// Index is a Qdrant-backed corpus index.
type Index struct {
	conn       *grpc.ClientConn
	points     pb.PointsClient
	collection string
}

// New connects to Qdrant over gRPC.
func New(host string, port int, collection string) (*Index, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	return &Index{
		conn:       conn,
		points:     pb.NewPointsClient(conn),
		collection: collection,
	}, nil
}

func (x *Index) Upsert(ctx context.Context, entries []vectorstore.Entry) error {
	points := make([]*pb.PointStruct, len(entries))
	for i, e := range entries {
		payload := map[string]*pb.Value{
			"text": {Kind: &pb.Value_StringValue{StringValue: e.Text}},
		}
		for k, v := range e.Metadata {
			payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
		}
		points[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: e.ID}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: toFloat32(e.Vector)}}},
			Payload: payload,
		}
	}

	_, err := x.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: x.collection,
		Points:         points,
	})
	return err
}

func (x *Index) Search(ctx context.Context, vector []float64, topK int) ([]vectorstore.SearchResult, error) {
	resp, err := x.points.Search(ctx, &pb.SearchPoints{
		CollectionName: x.collection,
		Vector:         toFloat32(vector),
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, err
	}

	results := make([]vectorstore.SearchResult, len(resp.Result))
	for i, pt := range resp.Result {
		text := ""
		meta := make(map[string]string)
		for k, v := range pt.Payload {
			if k == "text" {
				text = v.GetStringValue()
			} else {
				meta[k] = v.GetStringValue()
			}
		}
		results[i] = vectorstore.SearchResult{
			ID:         pt.Id.GetUuid(),
			Text:       text,
			Similarity: float64(pt.Score),
			Metadata:   meta,
		}
	}
	return results, nil
}

func (x *Index) Close() error {
	return x.conn.Close()
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

var _ vectorstore.Index = (*Index)(nil)
