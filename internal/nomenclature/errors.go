package nomenclature

import "errors"

var (
	ErrLongitudeOutOfDomain = errors.New("longitude out of domain")
	ErrLatitudeOutOfDomain  = errors.New("latitude out of domain")
	ErrUnknownLabel         = errors.New("unknown label")
	ErrUnparseable          = errors.New("unparseable nomenclature")
	ErrUnsupportedMerge     = errors.New("unsupported merge configuration")
	ErrUnknownScale         = errors.New("unknown scale")
)
