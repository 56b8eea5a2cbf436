package server

import (
	"net/http"

	apperrors "github.com/zballl/vibecheck-app/internal/errors"
)

// HandleError writes every server-side error through the shared envelope responder.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}
