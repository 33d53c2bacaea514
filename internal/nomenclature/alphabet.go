package nomenclature

import (
	"fmt"
	"strconv"
)

const (
	worldRows = 22 // A..V, 4 degrees each, 0..88 absolute latitude
	worldCols = 60 // 6 degrees each, column 1 starts at -180

	polarLetter = "Z"

	// SouthSuffix marks southern hemisphere sheets.
	SouthSuffix = "(ЮП)"
)

// alphabet labels the cells of an n x n subdivision in row-major order
// starting from the north-west corner of the parent sheet.
type alphabet struct {
	name       string
	rows, cols int
	labels     []string // nil for numeric alphabets
	width      int      // zero padding of numeric labels
}

var (
	cyrUpper = alphabet{name: "uppercase Cyrillic", rows: 2, cols: 2,
		labels: []string{"А", "Б", "В", "Г"}}
	cyrLower = alphabet{name: "lowercase Cyrillic", rows: 2, cols: 2,
		labels: []string{"а", "б", "в", "г"}}
	cyrNine = alphabet{name: "lowercase Cyrillic", rows: 3, cols: 3,
		labels: []string{"а", "б", "в", "г", "д", "е", "ж", "з", "и"}}
	roman = alphabet{name: "Roman numeral", rows: 6, cols: 6,
		labels: []string{
			"I", "II", "III", "IV", "V", "VI",
			"VII", "VIII", "IX", "X", "XI", "XII",
			"XIII", "XIV", "XV", "XVI", "XVII", "XVIII",
			"XIX", "XX", "XXI", "XXII", "XXIII", "XXIV",
			"XXV", "XXVI", "XXVII", "XXVIII", "XXIX", "XXX",
			"XXXI", "XXXII", "XXXIII", "XXXIV", "XXXV", "XXXVI",
		}}
	num144 = alphabet{name: "1:100 000 number", rows: 12, cols: 12, width: 3}
	num4   = alphabet{name: "1:10 000 number", rows: 2, cols: 2, width: 1}
	num256 = alphabet{name: "1:5 000 number", rows: 16, cols: 16, width: 3}
)

func (a *alphabet) size() int { return a.rows * a.cols }

// labelAt returns the label of the cell at (row, col), row counted from the
// equator side in the absolute-latitude frame. Northern sheets are numbered
// from their poleward edge, so the row is mirrored there.
func (a *alphabet) labelAt(row, col int, south bool) string {
	if !south {
		row = a.rows - 1 - row
	}
	i := row*a.cols + col
	if a.labels == nil {
		return fmt.Sprintf("%0*d", a.width, i+1)
	}
	return a.labels[i]
}

// positionOf is the inverse of labelAt.
func (a *alphabet) positionOf(label string, south bool) (row, col int, err error) {
	i, err := a.index(label)
	if err != nil {
		return 0, 0, err
	}
	row, col = i/a.cols, i%a.cols
	if !south {
		row = a.rows - 1 - row
	}
	return row, col, nil
}

func (a *alphabet) index(label string) (int, error) {
	if a.labels == nil {
		n, err := strconv.Atoi(label)
		if err != nil || n < 1 || n > a.size() {
			return 0, fmt.Errorf("%w: %q is not a %s (1..%d)", ErrUnknownLabel, label, a.name, a.size())
		}
		return n - 1, nil
	}
	for i, l := range a.labels {
		if l == label {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q is not a %s label", ErrUnknownLabel, label, a.name)
}

// rowLetter indexes the 1:1 000 000 rows by latitude magnitude in both
// hemispheres.
func rowLetter(row int) string {
	return string(rune('A' + row))
}

func rowIndex(letter string) (int, error) {
	if len(letter) == 1 && letter[0] >= 'A' && letter[0] < 'A'+worldRows {
		return int(letter[0] - 'A'), nil
	}
	return 0, fmt.Errorf("%w: %q is not a row letter (A..V)", ErrUnknownLabel, letter)
}

func columnNumber(col int) string {
	return strconv.Itoa(col + 1)
}

func columnIndex(label string) (int, error) {
	n, err := strconv.Atoi(label)
	if err != nil || n < 1 || n > worldCols {
		return 0, fmt.Errorf("%w: %q is not a column number (1..%d)", ErrUnknownLabel, label, worldCols)
	}
	return n - 1, nil
}
