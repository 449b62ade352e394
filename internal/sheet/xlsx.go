package sheet

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheets is returned when a workbook carries no worksheets at all.
var ErrNoSheets = errors.New("sheet: workbook has no worksheets")

// ParseXLSX reads the first worksheet of an xlsx export and applies the same
// header zipping and trimming rules as ParseCSV.
func ParseXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("sheet: open workbook: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, ErrNoSheets
	}
	records, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("sheet: read rows of %q: %w", name, err)
	}
	return zipRows(records), nil
}
