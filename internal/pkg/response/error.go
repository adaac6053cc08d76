package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
// Rejected state changes carry the violated invariant and both states so staff
// clients can explain why an action failed.
type ErrorResponse struct {
	Error     string `json:"error"`
	Invariant string `json:"invariant,omitempty"`
	Current   string `json:"current,omitempty"`
	Attempted string `json:"attempted,omitempty"`
}

// Error sends a JSON error response.
// It checks if the error is an AppError to determine the status code.
// If it's not an AppError, it logs the cause and defaults to 500 Internal Server Error.
func Error(c *gin.Context, err error) {
	code, body := Describe(err)
	if code == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).WithError(err).Error("unhandled request error")
	}
	c.JSON(code, body)
}

// Describe maps err to a status code and response body without writing
// anything. Bulk endpoints use it to report per-item failures.
func Describe(err error) (int, ErrorResponse) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Code, ErrorResponse{
			Error:     appErr.Message,
			Invariant: appErr.Invariant,
			Current:   appErr.Current,
			Attempted: appErr.Attempted,
		}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
}
