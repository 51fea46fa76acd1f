package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/FranksOps/sift/internal/model"
	"github.com/FranksOps/sift/internal/pipeline"
	"github.com/FranksOps/sift/internal/report"
)

type analyzeRequest struct {
	Niche    string `json:"niche"`
	Platform string `json:"platform"`
	Audience string `json:"audience"`
	Goal     string `json:"goal"`
}

var fieldLimits = []struct {
	name     string
	get      func(analyzeRequest) string
	min, max int
}{
	{"niche", func(r analyzeRequest) string { return r.Niche }, 2, 200},
	{"platform", func(r analyzeRequest) string { return r.Platform }, 2, 50},
	{"audience", func(r analyzeRequest) string { return r.Audience }, 2, 300},
	{"goal", func(r analyzeRequest) string { return r.Goal }, 2, 300},
}

func (r analyzeRequest) validate() error {
	for _, f := range fieldLimits {
		n := utf8.RuneCountInString(strings.TrimSpace(f.get(r)))
		if n < f.min || n > f.max {
			return fmt.Errorf("%s must be between %d and %d characters", f.name, f.min, f.max)
		}
	}
	return nil
}

type analyzeResponse struct {
	Success     bool             `json:"success"`
	HumanReport *string          `json:"human_report"`
	Data        *pipeline.Result `json:"data"`
	Error       *string          `json:"error"`
	ErrorType   *string          `json:"error_type"`
}

func failure(msg, class string) analyzeResponse {
	return analyzeResponse{Error: &msg, ErrorType: &class}
}

// analyze runs the pipeline synchronously. ?format=html answers with the
// rendered report instead of JSON.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSONStatus(w, failure("invalid request body: "+err.Error(), pipeline.ErrorValidation), http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeJSONStatus(w, failure(err.Error(), pipeline.ErrorValidation), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if s.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RunTimeout)
		defer cancel()
	}

	brief := model.Brief{Niche: req.Niche, Platform: req.Platform, Audience: req.Audience, Goal: req.Goal}
	s.logger.Info("analyze request", "niche", brief.Niche, "platform", brief.Platform,
		"request_id", middleware.GetReqID(r.Context()))

	res, err := s.runner.Run(ctx, brief, nil)
	if err != nil {
		class := pipeline.Classify(err)
		s.logger.Warn("analyze failed", "type", class, "err", err)
		resp := failure(err.Error(), class)
		resp.Data = res
		writeJSONStatus(w, resp, statusFor(class, err))
		return
	}

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := report.WriteHTML(w, res); err != nil {
			s.logger.Error("render html report", "run_id", res.Meta.RunID, "err", err)
		}
		return
	}

	text := report.Text(res)
	writeJSON(w, analyzeResponse{Success: true, HumanReport: &text, Data: res})
}

func statusFor(class string, err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case class == pipeline.ErrorValidation:
		return http.StatusBadRequest
	case class == pipeline.ErrorConnectivity:
		return http.StatusServiceUnavailable
	case class == pipeline.ErrorNoData:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
