package utils

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standardized error body. The detail field carries the
// human-readable reason and is the stable part of the contract.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Detail    string `json:"detail"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, detail string) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Detail:    detail,
	})
}
