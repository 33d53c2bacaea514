package nomenclature

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// Parsed is a syntactically valid nomenclature reduced to the chain of
// labels of one representative sheet.
type Parsed struct {
	Scale Scale
	// Tokens holds the row letter followed by one label per level of the
	// scale's chain, e.g. [O 41 109 064]. Merged names keep their last
	// member. A polar sheet is the single token "Z".
	Tokens []string
	South  bool
}

type pattern struct {
	scale   Scale
	re      *regexp.Regexp
	grouped bool // last capture is "parent-child,..." and yields two tokens
}

func listRe(item string) string {
	return item + "(?:," + item + ")*"
}

func groupRe(parent, child string) string {
	one := parent + "-" + listRe(child)
	return one + "(?:," + one + ")*"
}

// patterns are tried finest scale first.
var patterns = []pattern{
	{scale: Scale10K, grouped: true,
		re: regexp.MustCompile(`^([A-V])-(\d{1,2})-(\d{1,3})-([А-Г])-(` + groupRe(`[а-г]`, `[1-4]`) + `)$`)},
	{scale: Scale25K, grouped: true,
		re: regexp.MustCompile(`^([A-V])-(\d{1,2})-(\d{1,3})-(` + groupRe(`[А-Г]`, `[а-г]`) + `)$`)},
	{scale: Scale50K, grouped: true,
		re: regexp.MustCompile(`^([A-V])-(\d{1,2})-(` + groupRe(`\d{1,3}`, `[А-Г]`) + `)$`)},
	{scale: Scale2K,
		re: regexp.MustCompile(`^([A-V])-(\d{1,2})-(\d{1,3})-\((\d{1,3})\)-(` + listRe(`[а-и]`) + `)$`)},
	{scale: Scale5K,
		re: regexp.MustCompile(`^([A-V])-(\d{1,2})-(\d{1,3})-\((` + listRe(`\d{1,3}`) + `)\)$`)},
	{scale: Scale100K,
		re: regexp.MustCompile(`^([A-V])-(\d{1,2})-(` + listRe(`\d{1,3}`) + `)$`)},
	{scale: Scale200K,
		re: regexp.MustCompile(`^([A-V])-(\d{1,2})-(` + listRe(`[IVX]+`) + `)$`)},
	{scale: Scale500K, grouped: true,
		re: regexp.MustCompile(`^([A-V])-(` + groupRe(`\d{1,2}`, `[А-Г]`) + `)$`)},
	{scale: Scale1M,
		re: regexp.MustCompile(`^([A-V])-(` + listRe(`\d{1,2}`) + `)$`)},
}

var dashes = strings.NewReplacer("–", "-", "—", "-", "−", "-", "‐", "-", "‑", "-")

// Cyrillic capitals that are commonly typed in place of the Latin row letter.
var rowLookalikes = map[rune]rune{
	'А': 'A', 'В': 'B', 'Е': 'E', 'К': 'K', 'М': 'M', 'Н': 'H',
	'О': 'O', 'Р': 'P', 'С': 'C', 'Т': 'T',
}

// normalize folds full-width forms and dash variants and drops whitespace.
func normalize(s string) string {
	s = width.Fold.String(s)
	s = dashes.Replace(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	first, n := utf8.DecodeRuneInString(s)
	if lat, ok := rowLookalikes[first]; ok {
		s = string(lat) + s[n:]
	}
	return s
}

// Parse recognizes the scale of a nomenclature and splits it into tokens.
func Parse(text string) (Parsed, error) {
	s, south := splitSouth(normalize(text))
	if s == polarLetter {
		return Parsed{Scale: Scale1M, Tokens: []string{polarLetter}, South: south}, nil
	}
	for _, p := range patterns {
		if toks, ok := p.match(s); ok {
			return validate(Parsed{Scale: p.scale, Tokens: toks, South: south})
		}
	}
	return Parsed{}, fmt.Errorf("%w: %q", ErrUnparseable, text)
}

// ParseAt parses text as a nomenclature of scale sc only.
func ParseAt(text string, sc Scale) (Parsed, error) {
	if !sc.Valid() {
		return Parsed{}, fmt.Errorf("%w: %d", ErrUnknownScale, int(sc))
	}
	s, south := splitSouth(normalize(text))
	if s == polarLetter && sc == Scale1M {
		return Parsed{Scale: Scale1M, Tokens: []string{polarLetter}, South: south}, nil
	}
	for _, p := range patterns {
		if p.scale != sc {
			continue
		}
		if toks, ok := p.match(s); ok {
			return validate(Parsed{Scale: sc, Tokens: toks, South: south})
		}
	}
	return Parsed{}, fmt.Errorf("%w: %q is not a %s nomenclature", ErrUnparseable, text, sc)
}

func splitSouth(s string) (string, bool) {
	if strings.HasSuffix(s, SouthSuffix) {
		return strings.TrimSuffix(s, SouthSuffix), true
	}
	return s, false
}

func (p pattern) match(s string) ([]string, bool) {
	m := p.re.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	toks := append([]string(nil), m[1:len(m)-1]...)
	parent, child := lastOfGroup(m[len(m)-1])
	if p.grouped {
		toks = append(toks, parent)
	}
	return append(toks, child), true
}

// lastOfGroup returns the last member of "p-c,c,p-c,c" or "c,c,c".
func lastOfGroup(g string) (parent, child string) {
	for _, item := range strings.Split(g, ",") {
		if i := strings.Index(item, "-"); i >= 0 {
			parent, child = item[:i], item[i+1:]
			continue
		}
		child = item
	}
	return parent, child
}

// validate checks every token against the alphabet of its level.
func validate(p Parsed) (Parsed, error) {
	if _, err := rowIndex(p.Tokens[0]); err != nil {
		return Parsed{}, err
	}
	if _, err := columnIndex(p.Tokens[1]); err != nil {
		return Parsed{}, err
	}
	for i, sc := range chains[p.Scale][1:] {
		if _, err := levels[sc].alpha.index(p.Tokens[i+2]); err != nil {
			return Parsed{}, err
		}
	}
	return p, nil
}
