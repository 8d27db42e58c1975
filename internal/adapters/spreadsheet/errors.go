package spreadsheet

import "errors"

// Sentinel kinds for spreadsheet errors.
var (
	ErrNoGroups          = errors.New("no groups to write")
	ErrEncode            = errors.New("workbook encode failed")
	ErrMalformedWorkbook = errors.New("malformed workbook")
)
