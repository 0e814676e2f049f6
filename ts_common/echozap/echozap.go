/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// Package echozap routes echo request logging through a zap logger, so
// that daemon logs and access logs share one stream and one format.
package echozap

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo"
	"go.uber.org/zap"
)

// Logger is an echo middleware that logs one zap entry per request.  The
// entry level tracks the response class: server errors log at ERROR,
// client errors at WARN, everything else at INFO.
func Logger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			fields := []zap.Field{
				zap.String("remote_ip", c.RealIP()),
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
				zap.Int64("bytes_out", res.Size),
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}

			n := res.Status
			statusText := http.StatusText(n)
			if statusText != "" {
				statusText = " " + statusText
			}
			msg := fmt.Sprintf("(%d%s): %s %s", n, statusText,
				req.Method, req.RequestURI)

			switch {
			case n >= 500:
				log.Error("Server error "+msg, fields...)
			case n >= 400:
				log.Warn("Client error "+msg, fields...)
			default:
				log.Info("Success "+msg, fields...)
			}

			return nil
		}
	}
}
