package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/api/shared"
	"github.com/phrazzld/loopmind-api/internal/domain"
	"github.com/phrazzld/loopmind-api/internal/platform/logger"
)

// getUserIDFromContext extracts the authenticated user's UUID placed in the
// request context by the authentication middleware.
func getUserIDFromContext(r *http.Request) (uuid.UUID, bool) {
	return shared.UserIDFromContext(r.Context())
}

// getPathUUID parses a UUID path parameter. Missing and malformed values
// return a ValidationError naming the parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	// Extract parameter from URL path using chi router
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	// Parse parameter as UUID
	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}

	return id, nil
}

// handleUserIDAndPathUUIDs extracts the user ID from context and the named
// path UUIDs, in order. It writes an error response and returns false if any
// extraction fails.
func handleUserIDAndPathUUIDs(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
	paramNames ...string,
) (uuid.UUID, []uuid.UUID, bool) {
	// Get logger from context if not provided
	if log == nil {
		log = logger.FromContextOrDefault(r.Context(), slog.Default())
	}

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return uuid.Nil, nil, false
	}

	ids := make([]uuid.UUID, 0, len(paramNames))
	for _, name := range paramNames {
		id, err := getPathUUID(r, name)
		if err != nil {
			log.Warn("invalid "+name, slog.String("param_name", name), slog.String("value", chi.URLParam(r, name)))
			HandleAPIError(w, r, err, "")
			return uuid.Nil, nil, false
		}
		ids = append(ids, id)
	}

	return userID, ids, true
}
