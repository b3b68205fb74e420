package httpadapter

import (
	"net/http"

	"github.com/aalnuaimi/legaledge/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrEmbeddingUnavailable),
		domain.IsKind(err, domain.ErrGenerationUnavailable):
		// Degraded modes absorb these in the pipeline; an escapee means no
		// fallback applied and the client should retry later.
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
