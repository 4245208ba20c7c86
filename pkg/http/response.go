package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIResponse is the uniform envelope for every JSON reply.
type APIResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func reply(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, APIResponse{Status: status, Message: message, Data: data})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return reply(c, http.StatusOK, http.StatusText(http.StatusOK), data)
}

// BadRequestResponse carries validation errors back to the caller.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return reply(c, http.StatusBadRequest, http.StatusText(http.StatusBadRequest), data)
}

// ErrorResponse writes an error reply with the given status.
func ErrorResponse(c echo.Context, status int, message string) error {
	return reply(c, status, message, nil)
}
