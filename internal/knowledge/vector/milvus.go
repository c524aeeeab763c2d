package vector

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/lexfisc/lexfisc/internal/model"
	"github.com/lexfisc/lexfisc/pkg/component/milvus"
)

// MilvusIndex implements Index on a Milvus collection.
type MilvusIndex struct {
	client     *milvus.Client
	collection string
}

// NewMilvusIndex creates the index and ensures its collection exists.
func NewMilvusIndex(ctx context.Context, client *milvus.Client, collection string, dimension int) (*MilvusIndex, error) {
	schema := &milvus.CollectionSchema{
		Name:        collection,
		Description: "LexFisc knowledge chunk embeddings",
		Dimension:   dimension,
		MetaFields: []milvus.MetaField{
			{Name: "chunk_id", DataType: entity.FieldTypeInt64},
			{Name: "document_id", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "tenant_id", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "title", DataType: entity.FieldTypeVarChar, MaxLen: 255},
			{Name: "ordinal", DataType: entity.FieldTypeInt64},
			{Name: "content", DataType: entity.FieldTypeVarChar, MaxLen: 65535},
		},
	}
	if err := client.CreateCollection(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to ensure collection %s: %w", collection, err)
	}

	return &MilvusIndex{client: client, collection: collection}, nil
}

// Name identifies the index implementation.
func (m *MilvusIndex) Name() string {
	return "milvus"
}

// Ping reports whether Milvus is reachable.
func (m *MilvusIndex) Ping(ctx context.Context) error {
	return m.client.Ping(ctx)
}

// Insert indexes chunks with their embeddings. Shared chunks are stored
// with an empty tenant_id.
func (m *MilvusIndex) Insert(ctx context.Context, chunks []*model.Chunk, embeddings [][]float32) ([]int64, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	if len(chunks) != len(embeddings) {
		return nil, fmt.Errorf("chunks and embeddings length mismatch: %d vs %d", len(chunks), len(embeddings))
	}

	metadata := map[string][]any{
		"chunk_id":    make([]any, len(chunks)),
		"document_id": make([]any, len(chunks)),
		"tenant_id":   make([]any, len(chunks)),
		"title":       make([]any, len(chunks)),
		"ordinal":     make([]any, len(chunks)),
		"content":     make([]any, len(chunks)),
	}

	for i, chunk := range chunks {
		tenant := ""
		if chunk.TenantID != nil {
			tenant = *chunk.TenantID
		}
		metadata["chunk_id"][i] = chunk.ID
		metadata["document_id"][i] = chunk.DocumentID
		metadata["tenant_id"][i] = tenant
		metadata["title"][i] = chunk.Title
		metadata["ordinal"][i] = int64(chunk.Ordinal)
		metadata["content"][i] = chunk.Content
	}

	ids, err := m.client.Insert(ctx, m.collection, &milvus.InsertData{
		Embeddings: embeddings,
		Metadata:   metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert into milvus: %w", err)
	}
	return ids, nil
}

// Search performs a tenant-scoped similarity search and drops results
// below minScore.
func (m *MilvusIndex) Search(ctx context.Context, vector []float32, scope Scope, k int, minScore float32) ([]model.RetrievedChunk, error) {
	filter := `tenant_id == ""`
	if scope.TenantID != nil {
		filter = fmt.Sprintf(`tenant_id == "" || tenant_id == %q`, *scope.TenantID)
	}

	outputFields := []string{"chunk_id", "document_id", "title", "ordinal", "content"}
	results, err := m.client.Search(ctx, m.collection, vector, k, filter, outputFields)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	retrieved := make([]model.RetrievedChunk, 0, len(results))
	for _, r := range results {
		if r.Score < minScore {
			continue
		}
		rc := model.RetrievedChunk{Score: r.Score}
		if v, ok := r.Metadata["chunk_id"].(int64); ok {
			rc.ChunkID = v
		}
		if v, ok := r.Metadata["document_id"].(string); ok {
			rc.DocumentID = v
		}
		if v, ok := r.Metadata["title"].(string); ok {
			rc.Title = v
		}
		if v, ok := r.Metadata["ordinal"].(int64); ok {
			rc.Ordinal = int(v)
		}
		if v, ok := r.Metadata["content"].(string); ok {
			rc.Content = v
		}
		retrieved = append(retrieved, rc)
	}

	return retrieved, nil
}

// DeleteByDocument removes all indexed chunks of a document.
func (m *MilvusIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	expr := fmt.Sprintf(`document_id == %q`, documentID)
	if err := m.client.DeleteByExpr(ctx, m.collection, expr); err != nil {
		return fmt.Errorf("failed to delete document %s from milvus: %w", documentID, err)
	}
	return nil
}

var _ Index = (*MilvusIndex)(nil)
