package nomenclature

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func TestDecode_KnownSheets(t *testing.T) {
	for _, name := range []string{
		"N-37",
		"N-37-А",
		"N-37-В(ЮП)",
		"N-37-II",
		"N-37-004",
		"N-37-004-В-а",
		"O-41-109-(064)",
		"M-38-125-(063)-а",
		"S-47-003-А,Б",
		"T-47-123-А,Б,124-А,Б",
		"T-45,46,47,48",
		"T-47-В,Г,48-В,Г",
		"T-48-XXVIII,XXIX,XXX",
		"U-48-141,142,143,144",
		"T-48-033-А,Б,034-А,Б",
		"U-49-135-В,Г,136-В,Г(ЮП)",
		"T-48-047-А-а,б,Б-а,б",
		"T-47-004-А-а-1,2,б-1,2",
		"Z",
		"Z(ЮП)",
	} {
		sh, err := Decode(name)
		if err != nil {
			t.Fatalf("Decode(%q): %v", name, err)
		}
		if sh.Nomenclature != name {
			t.Fatalf("Decode(%q) = %q", name, sh.Nomenclature)
		}
	}
}

func TestDecode_BBox(t *testing.T) {
	sh, err := Decode("N-37")
	if err != nil {
		t.Fatal(err)
	}
	if !bboxNear(sh.BBox, 36, 52, 42, 56) || sh.Scale != Scale1M {
		t.Fatalf("N-37 => %+v", sh)
	}
	sh, err = Decode("T-47-123-А,Б,124-А,Б")
	if err != nil {
		t.Fatal(err)
	}
	if !bboxNear(sh.BBox, 97.0, 76.5, 98.0, 76.667) || sh.Band != BandExtreme {
		t.Fatalf("T-47-123-А,Б,124-А,Б => %+v", sh)
	}
	sh, err = Decode("N-37(ЮП)")
	if err != nil {
		t.Fatal(err)
	}
	if !bboxNear(sh.BBox, 36, -56, 42, -52) || !sh.South {
		t.Fatalf("N-37(ЮП) => %+v", sh)
	}
}

func TestDecode_Canonicalizes(t *testing.T) {
	sh, err := Decode("Р-47-9-А-а, б")
	if err != nil {
		t.Fatal(err)
	}
	if sh.Nomenclature != "P-47-009-А-а,б" {
		t.Fatalf("got %q", sh.Nomenclature)
	}
	// a single member of a merged block names the whole block
	sh, err = Decode("S-47-003-Б")
	if err != nil {
		t.Fatal(err)
	}
	if sh.Nomenclature != "S-47-003-А,Б" {
		t.Fatalf("got %q", sh.Nomenclature)
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode("not a sheet"); !errors.Is(err, ErrUnparseable) {
		t.Fatalf("err = %v", err)
	}
	if _, err := Decode("N-37-145"); !errors.Is(err, ErrUnknownLabel) {
		t.Fatalf("err = %v", err)
	}
	if _, err := Decode("T-47-123-(001)-а"); !errors.Is(err, ErrUnsupportedMerge) {
		t.Fatalf("err = %v", err)
	}
	if _, err := DecodeAt("N-37-004", Scale200K); !errors.Is(err, ErrUnparseable) {
		t.Fatalf("err = %v", err)
	}
	if _, err := DecodeParsed(Parsed{Scale: Scale50K, Tokens: []string{"N", "37"}}); !errors.Is(err, ErrUnparseable) {
		t.Fatalf("short tokens: err = %v", err)
	}
}

func TestCodec_DelegatesToPackage(t *testing.T) {
	c := New()
	a, err := c.Encode(moscow, Scale50K)
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.DecodeAt(a.Nomenclature, Scale50K)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("round trip through Codec: %+v != %+v", a, b)
	}
}

func randomPoint(r *rand.Rand) Point {
	return Point{Lon: r.Float64()*360 - 180, Lat: r.Float64()*175.98 - 87.99}
}

func TestProperty_RoundTripAndContainment(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	const n = 10000
	for _, s := range Scales() {
		for i := 0; i < n; i++ {
			p := randomPoint(r)
			sh, err := Encode(p, s)
			if s == Scale2K && errors.Is(err, ErrUnsupportedMerge) {
				continue
			}
			if err != nil {
				t.Fatalf("Encode(%v, %s): %v", p, s, err)
			}
			if !sh.BBox.Contains(p.Lon, p.Lat) {
				t.Fatalf("%s: %q bbox %v misses %v", s, sh.Nomenclature, sh.BBox, p)
			}
			if sh.South != (p.Lat < 0) {
				t.Fatalf("%s: hemisphere flag wrong for %v", s, p)
			}
			back, err := Decode(sh.Nomenclature)
			if err != nil {
				t.Fatalf("Decode(%q): %v", sh.Nomenclature, err)
			}
			if back != sh {
				t.Fatalf("%s: round trip %+v != %+v", s, back, sh)
			}
			again, err := Encode(back.Center(), s)
			if err != nil || again != sh {
				t.Fatalf("%s: center of %q encodes to %+v (%v)", s, sh.Nomenclature, again, err)
			}
		}
	}
}

func TestProperty_DecodeAtAgreesWithDecode(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 2000; i++ {
		p := randomPoint(r)
		s := Scales()[i%8]
		sh, err := Encode(p, s)
		if err != nil {
			t.Fatalf("Encode(%v, %s): %v", p, s, err)
		}
		at, err := DecodeAt(sh.Nomenclature, s)
		if err != nil || at != sh {
			t.Fatalf("DecodeAt(%q, %s) = %+v, %v", sh.Nomenclature, s, at, err)
		}
	}
}
