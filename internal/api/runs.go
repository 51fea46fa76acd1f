package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/FranksOps/sift/internal/storage"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

type runSummary struct {
	ID             string          `json:"id"`
	Niche          string          `json:"niche"`
	Platform       string          `json:"platform"`
	Audience       string          `json:"audience"`
	Goal           string          `json:"goal"`
	Failed         bool            `json:"failed"`
	Error          string          `json:"error,omitempty"`
	ElapsedSeconds float64         `json:"elapsed_seconds"`
	ResearchCount  int             `json:"research_count"`
	GapsFound      int             `json:"gaps_found"`
	CreatedAt      time.Time       `json:"created_at"`
	Result         json.RawMessage `json:"result,omitempty"`
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeJSONStatus(w, map[string]string{"error": "run archive is disabled"}, http.StatusNotFound)
		return
	}

	f, err := parseFilter(r)
	if err != nil {
		writeJSONStatus(w, map[string]string{"error": err.Error()}, http.StatusBadRequest)
		return
	}
	full := r.URL.Query().Get("full") == "true"

	recs, err := s.archive.Query(r.Context(), f)
	if err != nil {
		s.logger.Error("query run archive", "err", err)
		writeJSONStatus(w, map[string]string{"error": "failed to query runs"}, http.StatusInternalServerError)
		return
	}

	out := make([]runSummary, 0, len(recs))
	for _, rec := range recs {
		sum := runSummary{
			ID:             rec.ID,
			Niche:          rec.Niche,
			Platform:       rec.Platform,
			Audience:       rec.Audience,
			Goal:           rec.Goal,
			Failed:         rec.Failed,
			Error:          rec.Error,
			ElapsedSeconds: rec.ElapsedSeconds,
			ResearchCount:  rec.ResearchCount,
			GapsFound:      rec.GapsFound,
			CreatedAt:      rec.CreatedAt,
		}
		if full {
			sum.Result = rec.Payload()
		}
		out = append(out, sum)
	}
	writeJSON(w, map[string]any{"runs": out})
}

func parseFilter(r *http.Request) (storage.Filter, error) {
	q := r.URL.Query()
	f := storage.Filter{
		Niche:    q.Get("niche"),
		Platform: q.Get("platform"),
		Limit:    defaultRunsLimit,
	}
	if v := q.Get("failed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, errInvalidParam("failed", v)
		}
		f.Failed = &b
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errInvalidParam("since", v)
		}
		f.Since = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return f, errInvalidParam("limit", v)
		}
		f.Limit = min(n, maxRunsLimit)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errInvalidParam("offset", v)
		}
		f.Offset = n
	}
	return f, nil
}

func errInvalidParam(name, value string) error {
	return fmt.Errorf("invalid %s parameter %q", name, value)
}
