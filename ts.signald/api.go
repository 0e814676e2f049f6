/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package main

import (
	"encoding/hex"
	"net/http"
	"time"

	"ts/common/chantree"
	"ts/common/colors"
	"ts/common/treemap"
	"ts/ts_common/echozap"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/satori/uuid"
	"go.uber.org/zap"
)

type apiHandler struct {
	service *service
}

// messageIngress is the body accepted by POST /v1/messages
type messageIngress struct {
	Channel  string            `json:"channel"`
	Payload  string            `json:"payload"`
	Severity string            `json:"severity"`
	Metadata map[string]string `json:"metadata"`
}

// messageIngressResponse acknowledges an accepted message
type messageIngressResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// messageRecord is the outbound representation of a stored message
type messageRecord struct {
	ID         string            `json:"id"`
	Channel    []string          `json:"channel"`
	Payload    string            `json:"payload"`
	Severity   string            `json:"severity"`
	ReceivedAt time.Time         `json:"received_at"`
	Metadata   map[string]string `json:"metadata"`
}

// decayConfig is both the request and response body for
// POST /v1/control/decay
type decayConfig struct {
	HoldSeconds  float64 `json:"hold_seconds"`
	DecaySeconds float64 `json:"decay_seconds"`
}

// colorConfig is both the request and response body for
// /v1/control/colors
type colorConfig struct {
	AssignmentMode  string `json:"assignment_mode"`
	InheritanceMode string `json:"inheritance_mode"`
}

type pruneRequest struct {
	Channel string `json:"channel"`
}

// parseChannel converts a wire channel into a Path, mapping rejections to
// 422s the producer can act on.
func parseChannel(raw string) (chantree.Path, error) {
	path, err := chantree.ParsePath(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnprocessableEntity,
			err.Error())
	}
	return path, nil
}

// getHealth implements GET /healthz
func (a *apiHandler) getHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// postMessage implements POST /v1/messages
func (a *apiHandler) postMessage(c echo.Context) error {
	var req messageIngress
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity,
			"invalid request body")
	}

	path, err := parseChannel(req.Channel)
	if err != nil {
		return err
	}

	raw := req.Severity
	if raw == "" {
		raw = string(chantree.SeverityInfo)
	}
	severity, serr := chantree.ParseSeverity(raw)
	if serr != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity,
			serr.Error())
	}

	msg := &chantree.Message{
		ID:         hex.EncodeToString(uuid.NewV4().Bytes()),
		Path:       path,
		Payload:    req.Payload,
		Severity:   severity,
		ReceivedAt: time.Now().UTC(),
		Metadata:   req.Metadata,
		Lifespan:   chantree.DefaultLifespan,
	}

	s := a.service
	s.Lock()
	s.tree.Ingest(msg, 1.0)
	s.Unlock()
	metrics.ingests.Inc()

	return c.JSON(http.StatusAccepted,
		&messageIngressResponse{ID: msg.ID, Status: "accepted"})
}

// getMessages implements GET /v1/messages/:channel
func (a *apiHandler) getMessages(c echo.Context) error {
	path, err := parseChannel(c.Param("channel"))
	if err != nil {
		return err
	}

	s := a.service
	s.Lock()
	history := s.tree.GetHistory(path)
	s.Unlock()

	records := make([]*messageRecord, 0, len(history))
	for _, msg := range history {
		records = append(records, &messageRecord{
			ID:         msg.ID,
			Channel:    msg.Path,
			Payload:    msg.Payload,
			Severity:   string(msg.Severity),
			ReceivedAt: msg.ReceivedAt,
			Metadata:   msg.Metadata,
		})
	}

	return c.JSON(http.StatusOK, records)
}

// postDecay implements POST /v1/control/decay
func (a *apiHandler) postDecay(c echo.Context) error {
	var req decayConfig
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity,
			"invalid request body")
	}

	if req.HoldSeconds <= 0 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity,
			"hold_seconds must be positive")
	}
	if req.DecaySeconds <= 0 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity,
			"decay_seconds must be positive")
	}
	if req.DecaySeconds < 0.1 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity,
			"decay_seconds must be at least 0.1 seconds")
	}

	hold := time.Duration(req.HoldSeconds * float64(time.Second))
	decay := time.Duration(req.DecaySeconds * float64(time.Second))

	s := a.service
	s.Lock()
	s.tree.ConfigureDecay(hold, decay)
	s.Unlock()

	return c.JSON(http.StatusOK, &req)
}

// postColors implements POST /v1/control/colors.  The color service is
// replaced outright, resetting its index state, and the layout generator
// is re-pointed at the new service.
func (a *apiHandler) postColors(c echo.Context) error {
	var req colorConfig
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity,
			"invalid request body")
	}

	mode, err := colors.ParseAssignmentMode(req.AssignmentMode)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity,
			err.Error())
	}
	inherit, err := colors.ParseInheritanceMode(req.InheritanceMode)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity,
			err.Error())
	}

	s := a.service
	s.Lock()
	s.colors = colors.NewService(mode, inherit)
	s.layout = treemap.NewGenerator(s.colors)
	s.Unlock()

	return c.JSON(http.StatusOK,
		&colorConfig{
			AssignmentMode:  string(mode),
			InheritanceMode: string(inherit),
		})
}

// getColors implements GET /v1/control/colors
func (a *apiHandler) getColors(c echo.Context) error {
	s := a.service
	s.Lock()
	resp := &colorConfig{
		AssignmentMode:  string(s.colors.Mode()),
		InheritanceMode: string(s.colors.Inheritance()),
	}
	s.Unlock()

	return c.JSON(http.StatusOK, resp)
}

// postPrune implements POST /v1/control/prune.  Producers prune
// best-effort, so a missing path still succeeds.
func (a *apiHandler) postPrune(c echo.Context) error {
	var req pruneRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity,
			"invalid request body")
	}

	path, err := parseChannel(req.Channel)
	if err != nil {
		return err
	}

	s := a.service
	s.Lock()
	err = s.tree.Prune(path)
	s.Unlock()
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity,
			err.Error())
	}
	metrics.prunes.Inc()

	return c.NoContent(http.StatusNoContent)
}

// getLayout implements GET /v1/layout
func (a *apiHandler) getLayout(c echo.Context) error {
	now := time.Now().UTC()

	s := a.service
	start := time.Now()
	s.Lock()
	frames := s.layout.Generate(s.tree, now)
	s.Unlock()
	metrics.layoutTimes.Observe(time.Since(start).Seconds())

	return c.JSON(http.StatusOK, frames)
}

// getClientConfig implements GET /v1/client/config
func (a *apiHandler) getClientConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, &a.service.cfg.Client)
}

// httpErrorHandler renders every error as a {"detail": ...} body.
// Internal failures get a generic detail; stack traces never leave the
// process.
func httpErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	detail := "internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok && code < http.StatusInternalServerError {
			detail = msg
		} else if code < http.StatusInternalServerError {
			detail = http.StatusText(code)
		}
	}

	if !c.Response().Committed {
		if c.Request().Method == echo.HEAD {
			_ = c.NoContent(code)
		} else {
			_ = c.JSON(code, map[string]string{"detail": detail})
		}
	}
}

func newRouter(s *service, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpErrorHandler
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(echozap.Logger(log))

	a := &apiHandler{service: s}
	e.GET("/healthz", a.getHealth)
	e.POST("/v1/messages", a.postMessage)
	e.GET("/v1/messages/:channel", a.getMessages)
	e.POST("/v1/control/decay", a.postDecay)
	e.POST("/v1/control/colors", a.postColors)
	e.GET("/v1/control/colors", a.getColors)
	e.POST("/v1/control/prune", a.postPrune)
	e.GET("/v1/layout", a.getLayout)
	e.GET("/v1/client/config", a.getClientConfig)

	return e
}
