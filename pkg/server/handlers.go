package server

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sumatoshi-tech/tsfold/pkg/alg/treecut"
	"github.com/Sumatoshi-tech/tsfold/pkg/fold"
	"github.com/Sumatoshi-tech/tsfold/pkg/render"
	"github.com/Sumatoshi-tech/tsfold/pkg/series"
)

// FoldRequest is the body of POST /v1/fold.
type FoldRequest struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"           binding:"required,min=2"`
	Labels []string  `json:"labels,omitempty"`

	fold.Request
}

type errorBody struct {
	Error string `json:"error"`
}

var contentTypes = map[render.Format]string{
	render.FormatText: "text/plain; charset=utf-8",
	render.FormatYAML: "application/yaml",
	render.FormatHTML: "text/html; charset=utf-8",
}

// handleFold runs one segmentation. The format query parameter selects json
// (default), yaml, text or html output.
func (s *Server) handleFold(c *gin.Context) {
	format := render.FormatJSON

	if q := c.Query("format"); q != "" {
		parsed, err := render.ParseFormat(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})

			return
		}

		format = parsed
	}

	var body FoldRequest

	err := c.ShouldBindJSON(&body)
	if err != nil {
		status := http.StatusBadRequest

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}

		c.JSON(status, errorBody{Error: err.Error()})

		return
	}

	name := body.Name
	if name == "" {
		name = "request"
	}

	ser, err := series.New(name, body.Labels, body.Values)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})

		return
	}

	res, err := s.deps.Segmenter.Run(c.Request.Context(), ser, body.Request)
	if err != nil {
		c.JSON(statusFor(err), errorBody{Error: err.Error()})

		return
	}

	if format == render.FormatJSON {
		c.JSON(http.StatusOK, render.NewReport(res))

		return
	}

	var buf bytes.Buffer

	err = render.Write(&buf, format, ser, res, render.Options{Summary: render.SummaryOptions{NoColor: true}})
	if err != nil {
		s.deps.Logger.ErrorContext(c.Request.Context(), "render response", "error", err, "format", format)
		c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})

		return
	}

	c.Data(http.StatusOK, contentTypes[format], buf.Bytes())
}

// statusFor maps segmentation errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, fold.ErrInvalidRequest),
		errors.Is(err, series.ErrTooFewPoints),
		errors.Is(err, series.ErrChunkSize),
		errors.Is(err, series.ErrNonFinite):
		return http.StatusBadRequest
	case errors.Is(err, treecut.ErrTreeTooLarge):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
