package middleware

import (
	"measurement-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags each request with an id and a logger carrying it.
// An id sent by the caller is kept.
func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.New().String()
		}

		c.Request().Header.Set(RequestIDHeader, requestID)
		c.Response().Header().Set(RequestIDHeader, requestID)
		c.Set("request_id", requestID)

		log := logger.GetLogger().With(zap.String("request_id", requestID))
		c.Set(logger.EchoKey, log)

		// services read the logger from the request context
		req := c.Request()
		c.SetRequest(req.WithContext(logger.WithContext(req.Context(), log)))

		return next(c)
	}
}
