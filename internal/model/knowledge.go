// Package model provides data models for the LexFisc knowledge service.
package model

import (
	"time"
)

// Document statuses.
const (
	DocumentStatusPending  = "pending"
	DocumentStatusIndexed  = "indexed"
	DocumentStatusFailed   = "failed"
	DocumentStatusDeleting = "deleting"
)

// Ingest job statuses.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Document represents a tax-guidance document in the knowledge base.
// TenantID is nil for documents shared across all tenants.
type Document struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	TenantID  *string   `json:"tenant_id,omitempty" gorm:"type:varchar(64);index"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	Source    string    `json:"source" gorm:"type:varchar(512);not null"` // Uploaded file path
	Hash      string    `json:"hash" gorm:"type:varchar(64);index"`       // Content hash for deduplication
	Pages     int       `json:"pages" gorm:"default:0"`
	ChunkNum  int       `json:"chunk_num" gorm:"default:0"`
	Status    string    `json:"status" gorm:"type:varchar(32);default:'pending'"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Document.
func (Document) TableName() string {
	return "knowledge_documents"
}

// Chunk represents a text chunk of an ingested document. Ordinal is the
// 1-based position of the chunk within its document and is the section
// number used in citation markers. Embedding holds the vector as JSON so
// the brute-force retriever can scan without the vector index.
type Chunk struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	DocumentID string    `json:"document_id" gorm:"type:varchar(64);index;not null"`
	TenantID   *string   `json:"tenant_id,omitempty" gorm:"type:varchar(64);index"`
	Title      string    `json:"title" gorm:"type:varchar(255)"` // Denormalized document title for citations
	Ordinal    int       `json:"ordinal" gorm:"not null"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	Embedding  string    `json:"-" gorm:"type:text"`
	VectorID   int64     `json:"vector_id" gorm:"index"` // ID in Milvus
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for Chunk.
func (Chunk) TableName() string {
	return "knowledge_chunks"
}

// IngestJob tracks one ingestion run for a document.
type IngestJob struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(64)"`
	DocumentID string     `json:"document_id" gorm:"type:varchar(64);index;not null"`
	Status     string     `json:"status" gorm:"type:varchar(32);default:'pending'"`
	Progress   int        `json:"progress" gorm:"default:0"` // 0-100
	Total      int        `json:"total" gorm:"default:0"`    // Total chunks in the run
	Processed  int        `json:"processed" gorm:"default:0"`
	Error      string     `json:"error,omitempty" gorm:"type:text"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for IngestJob.
func (IngestJob) TableName() string {
	return "knowledge_ingest_jobs"
}

// IsTerminal reports whether the job has finished.
func (j *IngestJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// QASession records one answered (or refused) question.
type QASession struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	TenantID   *string   `json:"tenant_id,omitempty" gorm:"type:varchar(64);index"`
	Question   string    `json:"question" gorm:"type:text;not null"`
	Answer     string    `json:"answer" gorm:"type:text"`
	Citations  string    `json:"-" gorm:"type:text"` // JSON-encoded []Citation
	ChunkCount int       `json:"chunk_count" gorm:"default:0"`
	DurationMs int64     `json:"duration_ms" gorm:"default:0"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for QASession.
func (QASession) TableName() string {
	return "knowledge_qa_sessions"
}

// Citation is a reference from an answer to a source chunk. Resolved is
// false when the answer cited a marker that matched no retrieved chunk.
type Citation struct {
	Title      string `json:"title"`
	Ordinal    int    `json:"ordinal"`
	DocumentID string `json:"document_id,omitempty"`
	ChunkID    int64  `json:"chunk_id,omitempty"`
	Snippet    string `json:"snippet,omitempty"`
	Resolved   bool   `json:"resolved"`
}

// Answer is the synthesized response returned to callers.
type Answer struct {
	Text      string     `json:"answer"`
	Citations []Citation `json:"citations"`
	Refused   bool       `json:"refused"`
	SessionID string     `json:"session_id,omitempty"`
}

// RetrievedChunk is a chunk returned by similarity search, with its score.
type RetrievedChunk struct {
	ChunkID    int64   `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Ordinal    int     `json:"ordinal"`
	Content    string  `json:"content"`
	Score      float32 `json:"score"`
}
