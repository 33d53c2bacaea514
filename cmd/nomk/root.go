package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/topo-nomenclature/internal/core/ogc"
	"github.com/mohammed-shakir/topo-nomenclature/internal/nomenclature"
)

// newRootCmd builds the command tree; tests run it with their own output.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nomk",
		Short: "Convert between coordinates and topographic map sheet names",
		Long: `nomk converts between geographic coordinates (WGS84 degrees) and the
nomenclature of topographic map sheets from 1:1 000 000 to 1:2 000.

Examples:
  nomk encode --lon 37.61556 --lat 55.75222
  nomk encode --lon 37.61556 --lat 55.75222 --scale 100k --wkt
  nomk decode "N-37-004-В-а"
  nomk neighbors N-36-012`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newEncodeCmd(), newDecodeCmd(), newNeighborsCmd(), newCoverCmd())
	return root
}

// scaleFlag resolves --scale; ok is false when the flag was not set.
func scaleFlag(cmd *cobra.Command) (s nomenclature.Scale, ok bool, err error) {
	if !cmd.Flags().Changed("scale") {
		return 0, false, nil
	}
	raw, _ := cmd.Flags().GetString("scale")
	s, err = nomenclature.ParseScale(raw)
	if err != nil {
		return 0, false, err
	}
	return s, true, nil
}

type printMode int

const (
	printBBox printMode = iota
	printWKT
	printGeoJSON
)

func printSheets(w io.Writer, sheets []nomenclature.Sheet, mode printMode) error {
	if mode == printGeoJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(sheets) == 1 {
			return enc.Encode(ogc.SheetFeature(sheets[0]))
		}
		return enc.Encode(ogc.SheetCollection(sheets))
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, sh := range sheets {
		geom := fmt.Sprintf("[%g %g, %g %g]", sh.BBox.X1, sh.BBox.Y1, sh.BBox.X2, sh.BBox.Y2)
		if mode == printWKT {
			geom = ogc.BBoxToWKT(sh.BBox)
		}
		fmt.Fprintf(tw, "1:%d\t%s\t%s\n", sh.Scale.Denominator(), sh.Nomenclature, geom)
	}
	return tw.Flush()
}
