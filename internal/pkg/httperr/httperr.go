package httperr

import (
	"errors"
	"net/http"

	"github.com/atelier/atelier-sales-service/internal/apperr"
	"github.com/gin-gonic/gin"
)

// Respond maps the error taxonomy onto HTTP. Conflict means the retry
// budget was exhausted; the client may resubmit.
func Respond(c *gin.Context, err error) {
	var vErr *apperr.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation_error",
			"field":  vErr.Field,
			"detail": vErr.Message,
		})
		return
	}

	var sErr *apperr.InsufficientStockError
	if errors.As(err, &sErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":      "insufficient_stock",
			"product_id": sErr.ProductID,
			"requested":  sErr.Requested,
			"available":  sErr.Available,
		})
		return
	}

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "detail": err.Error()})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict", "detail": "operation conflicted with concurrent activity, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
