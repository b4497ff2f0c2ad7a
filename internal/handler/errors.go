package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/latihanku/latihanku-backend/internal/repository"
	"github.com/latihanku/latihanku-backend/internal/response"
	"github.com/latihanku/latihanku-backend/internal/service"
)

// failDomain maps a service-layer error onto the response envelope. Unknown
// errors become a 500 without leaking detail to the client.
func failDomain(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrMembershipRequired):
		response.Fail(c, http.StatusForbidden, response.ErrMembershipRequired)
	case errors.Is(err, service.ErrFeatureNotEntitled):
		response.Fail(c, http.StatusForbidden, response.ErrFeatureNotEntitled)
	case errors.Is(err, service.ErrQuotaExhausted):
		response.Fail(c, http.StatusForbidden, response.ErrQuotaExhausted)
	case errors.Is(err, service.ErrNotYetOpen):
		response.Fail(c, http.StatusForbidden, response.ErrNotYetOpen)
	case errors.Is(err, service.ErrClosed):
		response.Fail(c, http.StatusForbidden, response.ErrClosed)
	case errors.Is(err, service.ErrBlocked):
		response.Fail(c, http.StatusLocked, response.ErrBlocked)
	case errors.Is(err, service.ErrInvalidCode):
		response.Fail(c, http.StatusForbidden, response.ErrInvalidCode)
	case errors.Is(err, service.ErrNoActiveBlock):
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveBlock)
	case errors.Is(err, service.ErrAttemptCompleted):
		response.Fail(c, http.StatusConflict, response.ErrAttemptCompleted)
	case errors.Is(err, service.ErrQuestionSetInvalid):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrQuestionSetInvalid)
	case errors.Is(err, repository.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
