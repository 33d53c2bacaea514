package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/topo-nomenclature/internal/core/model"
	"github.com/mohammed-shakir/topo-nomenclature/internal/neighbors"
	"github.com/mohammed-shakir/topo-nomenclature/internal/nomenclature"
)

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Name the sheets containing a point",
		Long: `Print the sheet containing the point at every scale, or at one scale
with --scale. Scales where the point has no published sheet are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lon, _ := cmd.Flags().GetFloat64("lon")
			lat, _ := cmd.Flags().GetFloat64("lat")
			wkt, _ := cmd.Flags().GetBool("wkt")
			s, one, err := scaleFlag(cmd)
			if err != nil {
				return err
			}
			p := nomenclature.Point{Lon: lon, Lat: lat}

			scales := nomenclature.Scales()
			if one {
				scales = []nomenclature.Scale{s}
			}
			var sheets []nomenclature.Sheet
			for _, sc := range scales {
				sh, err := nomenclature.Encode(p, sc)
				if errors.Is(err, nomenclature.ErrUnsupportedMerge) && !one {
					continue
				}
				if err != nil {
					return err
				}
				sheets = append(sheets, sh)
			}
			mode := printBBox
			if wkt {
				mode = printWKT
			}
			return printSheets(cmd.OutOrStdout(), sheets, mode)
		},
	}
	cmd.Flags().Float64("lon", 0, "longitude in degrees (required)")
	cmd.Flags().Float64("lat", 0, "latitude in degrees (required)")
	cmd.Flags().StringP("scale", "s", "", "scale, e.g. 1m, 100k, 1:25000")
	cmd.Flags().Bool("wkt", false, "print sheet polygons as WKT")
	_ = cmd.MarkFlagRequired("lon")
	_ = cmd.MarkFlagRequired("lat")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode NOMENCLATURE",
		Short: "Print the extent of a named sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wkt, _ := cmd.Flags().GetBool("wkt")
			geo, _ := cmd.Flags().GetBool("geojson")
			s, ok, err := scaleFlag(cmd)
			if err != nil {
				return err
			}
			var sh nomenclature.Sheet
			if ok {
				sh, err = nomenclature.DecodeAt(args[0], s)
			} else {
				sh, err = nomenclature.Decode(args[0])
			}
			if err != nil {
				return err
			}
			mode := printBBox
			switch {
			case geo:
				mode = printGeoJSON
			case wkt:
				mode = printWKT
			}
			return printSheets(cmd.OutOrStdout(), []nomenclature.Sheet{sh}, mode)
		},
	}
	cmd.Flags().StringP("scale", "s", "", "scale of the name instead of detecting it")
	cmd.Flags().Bool("wkt", false, "print the sheet polygon as WKT")
	cmd.Flags().Bool("geojson", false, "print the sheet as a GeoJSON feature")
	cmd.MarkFlagsMutuallyExclusive("wkt", "geojson")
	return cmd
}

func newNeighborsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "neighbors NOMENCLATURE...",
		Short: "List the sheets adjacent to one or more sheets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, ok, err := scaleFlag(cmd)
			if err != nil {
				return err
			}
			if !ok {
				first, err := nomenclature.Decode(args[0])
				if err != nil {
					return err
				}
				s = first.Scale
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			names, err := neighbors.AroundAll(ctx, nomenclature.New(), args, s)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, n := range names {
				fmt.Fprintln(out, n)
			}
			return nil
		},
	}
	cmd.Flags().StringP("scale", "s", "", "scale of the names instead of detecting it")
	return cmd
}

func newCoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cover",
		Short: "List the sheets intersecting a bounding box",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, _ := cmd.Flags().GetString("bbox")
			limit, _ := cmd.Flags().GetInt("limit")
			wkt, _ := cmd.Flags().GetBool("wkt")
			s, ok, err := scaleFlag(cmd)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("--scale is required")
			}
			bb, err := parseBBox(raw)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			sheets, err := neighbors.Cover(ctx, nomenclature.New(), bb, s, limit)
			if err != nil {
				return err
			}
			mode := printBBox
			if wkt {
				mode = printWKT
			}
			return printSheets(cmd.OutOrStdout(), sheets, mode)
		},
	}
	cmd.Flags().String("bbox", "", "minlon,minlat,maxlon,maxlat (required)")
	cmd.Flags().StringP("scale", "s", "", "scale of the sheets (required)")
	cmd.Flags().Int("limit", 1000, "maximum number of sheets")
	cmd.Flags().Bool("wkt", false, "print sheet polygons as WKT")
	_ = cmd.MarkFlagRequired("bbox")
	return cmd
}

func parseBBox(raw string) (model.BBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return model.BBox{}, fmt.Errorf("bbox %q: want minlon,minlat,maxlon,maxlat", raw)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return model.BBox{}, fmt.Errorf("bbox %q: %w", raw, err)
		}
		v[i] = f
	}
	return model.BBox{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3], SRID: model.SRID4326}, nil
}
