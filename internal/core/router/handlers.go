package router

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/topo-nomenclature/internal/core/observability"
	"github.com/mohammed-shakir/topo-nomenclature/internal/core/ogc"
	"github.com/mohammed-shakir/topo-nomenclature/internal/logger"
	"github.com/mohammed-shakir/topo-nomenclature/internal/lookupevents"
	"github.com/mohammed-shakir/topo-nomenclature/internal/neighbors"
	"github.com/mohammed-shakir/topo-nomenclature/internal/nomenclature"
)

// fail records a failed lookup and writes the mapped error.
func (a *API) fail(ctx context.Context, w http.ResponseWriter, op, scale string, start time.Time, err error) {
	status := statusFor(err)
	observability.ObserveLookup(op, scale, outcome(err), time.Since(start).Seconds())
	if status >= http.StatusInternalServerError {
		a.log.ErrorContext(ctx, "lookup failed", "err", err)
	} else {
		a.log.DebugContext(ctx, "lookup rejected", "err", err)
	}
	writeError(w, status, err.Error())
}

func (a *API) succeed(ctx context.Context, op, scale string, start time.Time, sheets []nomenclature.Sheet, at *nomenclature.Point) {
	observability.ObserveLookup(op, scale, "ok", time.Since(start).Seconds())
	reqID := logger.RequestID(ctx)
	for _, sh := range sheets {
		p := sh.Center()
		if at != nil {
			p = *at
		}
		a.events.Publish(ctx, lookupevents.Event{
			Op:           op,
			Scale:        sh.Scale.String(),
			Nomenclature: sh.Nomenclature,
			Lon:          p.Lon,
			Lat:          p.Lat,
			RequestID:    reqID,
		})
	}
}

func (a *API) writeSheet(w http.ResponseWriter, r *http.Request, sh nomenclature.Sheet) {
	if wantGeoJSON(r) {
		writeGeoJSON(w, ogc.SheetFeature(sh))
		return
	}
	writeJSON(w, http.StatusOK, toJSON(sh))
}

func (a *API) writeSheets(w http.ResponseWriter, r *http.Request, sheets []nomenclature.Sheet, extra map[string]any) {
	if wantGeoJSON(r) {
		writeGeoJSON(w, ogc.SheetCollection(sheets))
		return
	}
	body := map[string]any{"sheets": toJSONs(sheets)}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// GET /v1/encode?lon=&lat=[&scale=]
func (a *API) handleEncode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := logger.WithOp(r.Context(), "encode")

	lon, err := requiredFloat(r, "lon")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lat, err := requiredFloat(r, "lat")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s, err := optScale(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p := nomenclature.Point{Lon: lon, Lat: lat}
	label := scaleLabel(s)
	ctx = logger.WithScale(ctx, label)

	if s != nil {
		sh, err := a.codec.Encode(p, *s)
		if err != nil {
			a.fail(ctx, w, "encode", label, start, err)
			return
		}
		a.succeed(ctx, "encode", label, start, []nomenclature.Sheet{sh}, &p)
		a.writeSheet(w, r, sh)
		return
	}

	// every scale; 1:2 000 is not published above 76 degrees and only
	// 1:1 000 000 reaches the polar cap
	sheets := make([]nomenclature.Sheet, 0, len(nomenclature.Scales()))
	for _, sc := range nomenclature.Scales() {
		sh, err := a.codec.Encode(p, sc)
		if sc != nomenclature.Scale1M && (errors.Is(err, nomenclature.ErrUnsupportedMerge) ||
			errors.Is(err, nomenclature.ErrLatitudeOutOfDomain)) {
			continue
		}
		if err != nil {
			a.fail(ctx, w, "encode", label, start, err)
			return
		}
		sheets = append(sheets, sh)
	}
	a.succeed(ctx, "encode", label, start, sheets, &p)
	a.writeSheets(w, r, sheets, map[string]any{"lon": lon, "lat": lat})
}

// GET /v1/decode?nomenclature=[&scale=]
func (a *API) handleDecode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := logger.WithOp(r.Context(), "decode")

	text := strings.TrimSpace(r.URL.Query().Get("nomenclature"))
	if text == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter: nomenclature")
		return
	}
	s, err := optScale(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	label := scaleLabel(s)
	ctx = logger.WithScale(ctx, label)

	sh, err := a.decode(ctx, text, s)
	if err != nil {
		a.fail(ctx, w, "decode", label, start, err)
		return
	}
	a.succeed(ctx, "decode", label, start, []nomenclature.Sheet{sh}, nil)
	a.writeSheet(w, r, sh)
}

// GET /v1/neighbors?nomenclature=...[&nomenclature=...][&scale=]
func (a *API) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := logger.WithOp(r.Context(), "neighbors")

	var texts []string
	for _, t := range r.URL.Query()["nomenclature"] {
		if t = strings.TrimSpace(t); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		writeError(w, http.StatusBadRequest, "missing required parameter: nomenclature")
		return
	}
	s, err := optScale(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	label := scaleLabel(s)
	ctx = logger.WithScale(ctx, label)

	if s == nil {
		first, err := a.decode(ctx, texts[0], nil)
		if err != nil {
			a.fail(ctx, w, "neighbors", label, start, err)
			return
		}
		s = &first.Scale
	}

	names, err := neighbors.AroundAll(ctx, a.codec, texts, *s)
	if err != nil {
		a.fail(ctx, w, "neighbors", label, start, err)
		return
	}

	if !wantGeoJSON(r) {
		observability.ObserveLookup("neighbors", label, "ok", time.Since(start).Seconds())
		writeJSON(w, http.StatusOK, map[string]any{
			"nomenclature": texts,
			"scale":        s.String(),
			"neighbors":    names,
		})
		return
	}

	sheets := make([]nomenclature.Sheet, 0, len(names))
	for _, n := range names {
		sh, err := a.decode(ctx, n, s)
		if err != nil {
			a.fail(ctx, w, "neighbors", label, start, err)
			return
		}
		sheets = append(sheets, sh)
	}
	observability.ObserveLookup("neighbors", label, "ok", time.Since(start).Seconds())
	writeGeoJSON(w, ogc.SheetCollection(sheets))
}

// GET /v1/cover?bbox=x1,y1,x2,y2[,EPSG:4326]&scale=
func (a *API) handleCover(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := logger.WithOp(r.Context(), "cover")

	raw := strings.TrimSpace(r.URL.Query().Get("bbox"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter: bbox")
		return
	}
	bb, err := parseBBOX(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bbox: "+err.Error())
		return
	}
	s, err := optScale(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s == nil {
		writeError(w, http.StatusBadRequest, "missing required parameter: scale")
		return
	}
	ctx = logger.WithScale(ctx, s.String())

	sheets, err := neighbors.Cover(ctx, a.codec, bb, *s, a.coverLimit)
	if err != nil {
		a.fail(ctx, w, "cover", s.String(), start, err)
		return
	}
	observability.ObserveLookup("cover", s.String(), "ok", time.Since(start).Seconds())
	a.writeSheets(w, r, sheets, map[string]any{"bbox": bb, "scale": s.String()})
}

// GET /v1/cells?nomenclature=[&scale=][&res=][&parent=]
func (a *API) handleCells(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := logger.WithOp(r.Context(), "cells")

	text := strings.TrimSpace(r.URL.Query().Get("nomenclature"))
	if text == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter: nomenclature")
		return
	}
	s, err := optScale(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := a.intParam(r, "res", a.resDefault)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	parent, err := a.intParam(r, "parent", -1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if parent > res {
		writeError(w, http.StatusBadRequest, "parent must not exceed res")
		return
	}
	label := scaleLabel(s)
	ctx = logger.WithScale(ctx, label)

	sh, err := a.decode(ctx, text, s)
	if err != nil {
		a.fail(ctx, w, "cells", label, start, err)
		return
	}
	cells, err := a.cells.CellsForBBox(sh.BBox, res)
	if err != nil {
		a.fail(ctx, w, "cells", label, start, err)
		return
	}
	if parent >= 0 {
		if cells, err = a.cells.ToParents(cells, parent); err != nil {
			a.fail(ctx, w, "cells", label, start, err)
			return
		}
		res = parent
	}

	a.succeed(ctx, "cells", label, start, []nomenclature.Sheet{sh}, nil)
	writeJSON(w, http.StatusOK, map[string]any{
		"nomenclature": sh.Nomenclature,
		"scale":        sh.Scale.String(),
		"res":          res,
		"cells":        cells,
	})
}

// intParam reads an optional H3 resolution bounded by the configured maximum.
func (a *API) intParam(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid " + name + ": " + raw)
	}
	if n < 0 || n > a.resMax {
		return 0, errors.New(name + " must be in [0," + strconv.Itoa(a.resMax) + "]")
	}
	return n, nil
}
