package errors

// Knowledge service code: 20 (business service range 20-79).
const (
	// ServiceKnowledge is for the knowledge base service.
	ServiceKnowledge = 20
)

var (
	// Request errors (category 01)
	ErrKnowledgeInvalidRequest = Register(New(MakeCode(ServiceKnowledge, CategoryRequest, 1), 400, "Invalid request parameters"))
	ErrKnowledgeEmptyQuestion  = Register(New(MakeCode(ServiceKnowledge, CategoryRequest, 2), 400, "Question cannot be empty"))
	ErrKnowledgeInvalidUpload  = Register(New(MakeCode(ServiceKnowledge, CategoryRequest, 3), 400, "Invalid document upload"))

	// Resource errors (category 04)
	ErrDocumentNotFound = Register(New(MakeCode(ServiceKnowledge, CategoryResource, 1), 404, "Document not found"))
	ErrJobNotFound      = Register(New(MakeCode(ServiceKnowledge, CategoryResource, 2), 404, "Ingestion job not found"))

	// Conflict errors (category 05)
	ErrIngestInProgress = Register(New(MakeCode(ServiceKnowledge, CategoryConflict, 1), 409, "Ingestion already in progress for this document"))

	// Internal errors (category 07)
	ErrExtractFailed   = Register(New(MakeCode(ServiceKnowledge, CategoryInternal, 1), 500, "Document text extraction failed"))
	ErrUnreadableDoc   = Register(New(MakeCode(ServiceKnowledge, CategoryInternal, 2), 422, "Document is empty or unreadable"))
	ErrEmbeddingFailed = Register(New(MakeCode(ServiceKnowledge, CategoryInternal, 3), 500, "Embedding generation failed"))
	ErrIngestFailed    = Register(New(MakeCode(ServiceKnowledge, CategoryInternal, 4), 500, "Document ingestion failed"))
	ErrQueryFailed     = Register(New(MakeCode(ServiceKnowledge, CategoryInternal, 5), 500, "Knowledge query failed"))
	ErrSynthesisFailed = Register(New(MakeCode(ServiceKnowledge, CategoryInternal, 6), 500, "Answer synthesis failed"))

	// Timeout errors (category 11)
	ErrIngestTimeout = Register(New(MakeCode(ServiceKnowledge, CategoryTimeout, 1), 504, "Ingestion exceeded its time budget"))

	// Network errors (category 10)
	ErrKnowledgeUnavailable = Register(New(MakeCode(ServiceKnowledge, CategoryNetwork, 1), 503, "Knowledge service unavailable"))
)
