package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers GET / for load balancer checks
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, APIResponse{Success: true, Message: "GoLanka Travel API is running"})
}
