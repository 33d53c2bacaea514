package keys

import (
	"math"
	"regexp"
	"strings"
	"testing"
	"unicode"
)

func TestDeterminism_SameInputsSameKey(t *testing.T) {
	k1 := Decode("auto", "T-47-123-А,Б,124-А,Б")
	k2 := Decode("auto", "T-47-123-А,Б,124-А,Б")
	if k1 != k2 {
		t.Fatalf("determinism failed:\n k1=%s\n k2=%s", k1, k2)
	}
}

func TestNormalization_SpacingVariantsProduceSameKey(t *testing.T) {
	k1 := Decode("50k", " T-47-123-А, Б, 124-А, Б ")
	k2 := Decode("50k", "T-47-123-А,Б,124-А,Б")
	if k1 != k2 {
		t.Fatalf("normalized keys differ:\n k1=%s\n k2=%s", k1, k2)
	}
	if !regexp.MustCompile(`^[A-Za-z0-9:_=,\-]+$`).MatchString(k1) {
		t.Fatalf("key contains disallowed characters: %s", k1)
	}
}

func TestDifference_CyrillicLabelsAreDistinct(t *testing.T) {
	// the readable parts collapse to the same text; the hash must not
	a := Decode("auto", "N-37-А")
	b := Decode("auto", "N-37-Б")
	if a == b {
		t.Fatalf("different labels must produce different keys: %s", a)
	}
	if Decode("auto", "N-37-В") == Decode("auto", "N-37-В(ЮП)") {
		t.Fatalf("hemisphere must be part of the key")
	}
	if Decode("auto", "N-37-004") == Decode("100k", "N-37-004") {
		t.Fatalf("scale hint must be part of the key")
	}
}

func TestUnicodeSafety_NoPanicAndHashSuffixPresent(t *testing.T) {
	k := Decode("2k", "M-38-125-(063)-а")

	for _, r := range k {
		if r > unicode.MaxASCII {
			t.Fatalf("non-ASCII rune leaked into key: %q in %s", r, k)
		}
	}

	m := regexp.MustCompile(`:h=([0-9a-f]{16})$`).FindStringSubmatch(k)
	if len(m) != 2 {
		t.Fatalf("missing or invalid :h=<hex64> suffix in key: %s", k)
	}
	if !strings.HasPrefix(k, "nomk:v1:decode:2k:") {
		t.Fatalf("unexpected prefix: %s", k)
	}
}

func TestEncode_ExactCoordinates(t *testing.T) {
	a := Encode("100k", 37.61556, 55.75222)
	if a != "nomk:v1:encode:100k:37.61556:55.75222" {
		t.Fatalf("unexpected key %s", a)
	}
	if a == Encode("50k", 37.61556, 55.75222) {
		t.Fatalf("scale must be part of the key")
	}
	if Encode("1m", 6-1e-10, 50) == Encode("1m", 6+1e-10, 50) {
		t.Fatalf("points on either side of a sheet edge share a key")
	}
	negZero := math.Copysign(0, -1)
	if Encode("1m", 37, negZero) == Encode("1m", 37, 0) || Encode("1m", 37, negZero) == Encode("1m", 37, -1e-10) {
		t.Fatalf("latitudes around the equator share a key")
	}
}
