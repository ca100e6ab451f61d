package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// ErrorHandler renders errors that escape handlers (router misses, body
// limits, recovered panics) as the response envelope.
func ErrorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := msgInternal
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok && m != "" {
				message = m
			} else {
				message = http.StatusText(status)
			}
			if he.Internal != nil {
				err = he.Internal
			}
		}
		if status >= http.StatusInternalServerError {
			if logger != nil {
				logger.WithFields(log.Fields{
					"method": c.Request().Method,
					"path":   c.Request().URL.Path,
					"error":  err,
				}).Error("unhandled request error")
			}
			message = msgInternal
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, envelope{Success: false, Error: message})
		}
		if writeErr != nil && logger != nil {
			logger.WithError(writeErr).Warn("failed to write error response")
		}
	}
}
