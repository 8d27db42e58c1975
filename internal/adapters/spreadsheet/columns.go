// Package spreadsheet converts group lists to and from xlsx workbooks: one
// sheet per group, a header row, then one row per player in a fixed 14-column
// order.
package spreadsheet

import (
	"fmt"
	"time"

	"github.com/okian/handball/internal/domain/model"
)

// MIMEType is the content type of exported workbooks.
const MIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// minColumnWidth is the narrowest column written, in characters.
const minColumnWidth = 14

// Columns are the header labels, aligned with model.Fields.
var Columns = []string{
	"Imię",
	"Nazwisko",
	"Czas Biegu 30m",
	"Punkty Bieg 30m",
	"Rzut Piłką Lek. Do Przodu",
	"Rzut Piłką Lek. Do Tyłu",
	"Suma Rzutów Piłką Lek.",
	"Punkty Rzut Piłką Lek.",
	"Dystans Pięcioskoku",
	"Punkty Pięcioskok",
	"Dystans Rzutu Ręcznego",
	"Punkty Rzut Ręczny",
	"Czas Testu Koperta",
	"Punkty Test Koperta",
}

// columnFields maps a column index to its player field.
var columnFields = model.Fields

// ExportFileName is the download name of a workbook exported at t,
// e.g. dane_testowe_zawodnikow_06-05-24-07-08-09.xlsx.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("dane_testowe_zawodnikow_%s.xlsx", t.Format("02-01-06-15-04-05"))
}
