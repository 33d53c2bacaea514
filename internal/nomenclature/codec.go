// Package nomenclature converts between geographic coordinates and the
// names of sheets in the Soviet topographic map series, from 1:1 000 000
// down to 1:2 000.
//
// Sheets poleward of 60 degrees are published merged along longitude
// (two sheets up to 76, four up to 88, three for 1:200 000), and the
// merged name lists every member: "T-47-123-А,Б,124-А,Б". Southern
// hemisphere names carry the "(ЮП)" suffix and number their cells from
// the equator side.
//
// All functions are pure and safe for concurrent use.
package nomenclature

// Codec is the method-set form of the package functions.
type Codec struct{}

func New() *Codec { return &Codec{} }

func (*Codec) Encode(p Point, s Scale) (Sheet, error) { return Encode(p, s) }

func (*Codec) Decode(text string) (Sheet, error) { return Decode(text) }

func (*Codec) DecodeAt(text string, s Scale) (Sheet, error) { return DecodeAt(text, s) }
