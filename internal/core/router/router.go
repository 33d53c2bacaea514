// Package router exposes the nomenclature codec over HTTP.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/topo-nomenclature/internal/core/config"
	"github.com/mohammed-shakir/topo-nomenclature/internal/core/model"
	"github.com/mohammed-shakir/topo-nomenclature/internal/lookupevents"
	"github.com/mohammed-shakir/topo-nomenclature/internal/mapper"
	"github.com/mohammed-shakir/topo-nomenclature/internal/nomenclature"
)

// Codec is satisfied by *nomenclature.Codec and *sheetcache.Cache.
type Codec interface {
	Encode(p nomenclature.Point, s nomenclature.Scale) (nomenclature.Sheet, error)
	Decode(text string) (nomenclature.Sheet, error)
	DecodeAt(text string, s nomenclature.Scale) (nomenclature.Sheet, error)
}

// contextDecoder is implemented by codecs whose lookups may block.
type contextDecoder interface {
	DecodeContext(ctx context.Context, text string) (nomenclature.Sheet, error)
	DecodeAtContext(ctx context.Context, text string, s nomenclature.Scale) (nomenclature.Sheet, error)
}

type API struct {
	codec  Codec
	cells  mapper.Interface
	events lookupevents.Publisher
	log    *slog.Logger

	resDefault int
	resMax     int
	coverLimit int
}

// New builds the API. A nil publisher disables lookup events.
func New(logger *slog.Logger, cfg config.Config, codec Codec, cells mapper.Interface, events lookupevents.Publisher) *API {
	if events == nil {
		events = lookupevents.Noop{}
	}
	return &API{
		codec:      codec,
		cells:      cells,
		events:     events,
		log:        logger,
		resDefault: cfg.H3ResDefault,
		resMax:     cfg.H3ResMax,
		coverLimit: cfg.CoverLimit,
	}
}

// Mount registers the /v1 routes on r.
func (a *API) Mount(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/encode", a.handleEncode)
		r.Get("/decode", a.handleDecode)
		r.Get("/neighbors", a.handleNeighbors)
		r.Get("/cover", a.handleCover)
		r.Get("/cells", a.handleCells)
	})
}

func (a *API) decode(ctx context.Context, text string, s *nomenclature.Scale) (nomenclature.Sheet, error) {
	if cd, ok := a.codec.(contextDecoder); ok {
		if s == nil {
			return cd.DecodeContext(ctx, text)
		}
		return cd.DecodeAtContext(ctx, text, *s)
	}
	if s == nil {
		return a.codec.Decode(text)
	}
	return a.codec.DecodeAt(text, *s)
}

// optScale reads an optional scale parameter; nil means detect.
func optScale(r *http.Request) (*nomenclature.Scale, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("scale"))
	if raw == "" || strings.EqualFold(raw, "auto") {
		return nil, nil
	}
	s, err := nomenclature.ParseScale(raw)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scaleLabel(s *nomenclature.Scale) string {
	if s == nil {
		return "auto"
	}
	return s.String()
}

func parseBBOX(bboxParam string) (model.BBox, error) {
	parts := strings.Split(bboxParam, ",")
	if len(parts) != 4 && len(parts) != 5 {
		return model.BBox{}, errors.New("expected 4 or 5 comma-separated values: x1,y1,x2,y2[,EPSG:4326]")
	}
	xMin, err := parseFloat(parts[0])
	if err != nil {
		return model.BBox{}, fmt.Errorf("x1: %w", err)
	}
	yMin, err := parseFloat(parts[1])
	if err != nil {
		return model.BBox{}, fmt.Errorf("y1: %w", err)
	}
	xMax, err := parseFloat(parts[2])
	if err != nil {
		return model.BBox{}, fmt.Errorf("x2: %w", err)
	}
	yMax, err := parseFloat(parts[3])
	if err != nil {
		return model.BBox{}, fmt.Errorf("y2: %w", err)
	}

	srid := model.SRID4326
	if len(parts) == 5 {
		srid = strings.ToUpper(strings.TrimSpace(parts[4]))
	}
	if srid != model.SRID4326 {
		return model.BBox{}, fmt.Errorf("only EPSG:4326 is supported (got %q)", srid)
	}

	if !(xMin >= -180 && xMin <= 180 && xMax >= -180 && xMax <= 180) {
		return model.BBox{}, errors.New("longitude must be in [-180,180]")
	}
	if !(yMin >= -90 && yMin <= 90 && yMax >= -90 && yMax <= 90) {
		return model.BBox{}, errors.New("latitude must be in [-90,90]")
	}
	if xMax <= xMin || yMax <= yMin {
		return model.BBox{}, errors.New("coordinates must satisfy x2>x1 and y2>y1")
	}
	return model.BBox{X1: xMin, Y1: yMin, X2: xMax, Y2: yMax, SRID: srid}, nil
}

func parseFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("parse float: %w", err)
	}
	return f, nil
}

func requiredFloat(r *http.Request, name string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, fmt.Errorf("missing required parameter: %s", name)
	}
	f, err := parseFloat(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return f, nil
}
