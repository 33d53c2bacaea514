package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mohammed-shakir/topo-nomenclature/internal/core/ogc"
	"github.com/mohammed-shakir/topo-nomenclature/internal/neighbors"
	"github.com/mohammed-shakir/topo-nomenclature/internal/nomenclature"
)

type errorBody struct {
	Error string `json:"error"`
}

// sheetJSON is a sheet as served: the codec fields plus derived ones.
type sheetJSON struct {
	nomenclature.Sheet
	Denominator int    `json:"denominator"`
	WKT         string `json:"wkt"`
}

func toJSON(s nomenclature.Sheet) sheetJSON {
	return sheetJSON{Sheet: s, Denominator: s.Scale.Denominator(), WKT: ogc.BBoxToWKT(s.BBox)}
}

func toJSONs(sheets []nomenclature.Sheet) []sheetJSON {
	out := make([]sheetJSON, 0, len(sheets))
	for _, s := range sheets {
		out = append(out, toJSON(s))
	}
	return out
}

func wantGeoJSON(r *http.Request) bool {
	return strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("format")), "geojson")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeGeoJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps lookup errors to HTTP statuses. Input that names a
// sheet the series does not publish is unprocessable rather than bad.
func statusFor(err error) int {
	switch {
	case errors.Is(err, nomenclature.ErrUnsupportedMerge):
		return http.StatusUnprocessableEntity
	case errors.Is(err, nomenclature.ErrLongitudeOutOfDomain),
		errors.Is(err, nomenclature.ErrLatitudeOutOfDomain),
		errors.Is(err, nomenclature.ErrUnknownLabel),
		errors.Is(err, nomenclature.ErrUnparseable),
		errors.Is(err, nomenclature.ErrUnknownScale),
		errors.Is(err, neighbors.ErrTooManySheets),
		errors.Is(err, neighbors.ErrInvalidBBox):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// outcome is the metric label of a lookup result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, nomenclature.ErrUnsupportedMerge):
		return "unsupported_merge"
	case errors.Is(err, nomenclature.ErrLongitudeOutOfDomain),
		errors.Is(err, nomenclature.ErrLatitudeOutOfDomain):
		return "out_of_domain"
	case errors.Is(err, nomenclature.ErrUnknownLabel):
		return "unknown_label"
	case errors.Is(err, nomenclature.ErrUnparseable):
		return "unparseable"
	case errors.Is(err, nomenclature.ErrUnknownScale):
		return "unknown_scale"
	case errors.Is(err, neighbors.ErrTooManySheets):
		return "too_many_sheets"
	}
	return "error"
}
