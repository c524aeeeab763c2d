package errors

import "net/http"

// Common errors shared by all services (service code 00).
var (
	// OK indicates success.
	OK = &Errno{Code: 0, HTTP: http.StatusOK, Message: "OK"}

	// ErrInvalidParam indicates invalid request parameters.
	ErrInvalidParam = Register(New(MakeCode(ServiceCommon, CategoryRequest, 1), http.StatusBadRequest, "Invalid request parameters"))

	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = Register(New(MakeCode(ServiceCommon, CategoryAuth, 1), http.StatusUnauthorized, "Unauthorized"))

	// ErrForbidden indicates insufficient permissions.
	ErrForbidden = Register(New(MakeCode(ServiceCommon, CategoryPermission, 1), http.StatusForbidden, "Forbidden"))

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = Register(New(MakeCode(ServiceCommon, CategoryResource, 1), http.StatusNotFound, "Resource not found"))

	// ErrConflict indicates a resource conflict.
	ErrConflict = Register(New(MakeCode(ServiceCommon, CategoryConflict, 1), http.StatusConflict, "Resource conflict"))

	// ErrInternal indicates an internal server error.
	ErrInternal = Register(New(MakeCode(ServiceCommon, CategoryInternal, 1), http.StatusInternalServerError, "Internal server error"))

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = Register(New(MakeCode(ServiceCommon, CategoryTimeout, 1), http.StatusGatewayTimeout, "Operation timed out"))
)

// Infrastructure errors.
var (
	// ErrDatabase indicates a database failure.
	ErrDatabase = Register(New(MakeCode(ServiceInfraDB, CategoryDatabase, 1), http.StatusInternalServerError, "Database error"))

	// ErrCache indicates a cache failure.
	ErrCache = Register(New(MakeCode(ServiceInfraCache, CategoryCache, 1), http.StatusInternalServerError, "Cache error"))

	// ErrVectorStore indicates a vector store failure.
	ErrVectorStore = Register(New(MakeCode(ServiceInfraVector, CategoryInternal, 1), http.StatusInternalServerError, "Vector store error"))

	// ErrLLMProvider indicates an LLM provider failure.
	ErrLLMProvider = Register(New(MakeCode(ServiceThirdPartyLLM, CategoryNetwork, 1), http.StatusBadGateway, "LLM provider error"))
)
