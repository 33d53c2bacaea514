package main

import (
	"fmt"
	"math/rand/v2"
	"net/url"

	"github.com/mohammed-shakir/topo-nomenclature/internal/nomenclature"
)

// target is one precomputed request of the workload pool.
type target struct {
	Op    string // "encode" or "decode"
	Query url.Values
}

func (t target) String() string { return t.Op + "?" + t.Query.Encode() }

var hotCenters = [][2]float64{
	{37.6173, 55.7558}, // Moscow
	{30.3351, 59.9343}, // Saint Petersburg
	{82.9346, 55.0084}, // Novosibirsk
	{69.2401, 41.2995}, // Tashkent
	{97.2000, 76.6000}, // Taymyr, merged sheets
}

// makeTargets builds a pool whose first quarter clusters around hot
// centers; Zipf sampling over the pool then concentrates load on it.
// decodeShare of the targets ask for the name of a sheet instead of a point.
func makeTargets(count int, decodeShare float64, r *rand.Rand) ([]target, error) {
	if count <= 0 {
		return nil, fmt.Errorf("target count must be positive, got %d", count)
	}
	scales := nomenclature.Scales()
	hot := max(len(hotCenters), count/4)

	out := make([]target, 0, count)
	for len(out) < count {
		var lon, lat float64
		if len(out) < hot {
			c := hotCenters[len(out)%len(hotCenters)]
			lon = c[0] + (r.Float64()-0.5)*0.2
			lat = c[1] + (r.Float64()-0.5)*0.2
		} else {
			lon = -180 + r.Float64()*360
			lat = -84 + r.Float64()*168
		}
		s := scales[r.IntN(len(scales))]
		sh, err := nomenclature.Encode(nomenclature.Point{Lon: lon, Lat: lat}, s)
		if err != nil {
			// 1:2 000 above 76 degrees has no sheet; draw again
			continue
		}

		if r.Float64() >= decodeShare {
			out = append(out, target{Op: "encode", Query: url.Values{
				"lon":   {fmt.Sprintf("%.6f", lon)},
				"lat":   {fmt.Sprintf("%.6f", lat)},
				"scale": {s.String()},
			}})
			continue
		}
		out = append(out, target{Op: "decode", Query: url.Values{
			"nomenclature": {sh.Nomenclature},
		}})
	}
	return out, nil
}
