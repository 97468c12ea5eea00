package sheets

import (
	"context"
	"fmt"
)

// ValueInput controls how written cells are interpreted by the store.
type ValueInput string

const (
	// Raw stores values exactly as given.
	Raw ValueInput = "RAW"
	// UserEntered parses values as if typed into the UI, so "=SUM(...)" becomes a formula.
	UserEntered ValueInput = "USER_ENTERED"
)

// SheetInfo identifies a single sheet (tab) inside a workbook.
type SheetInfo struct {
	ID    int64  `json:"sheetId"`
	Title string `json:"title"`
}

// Store is the tabular store behind the stats service. Ranges use A1
// notation, see A1.
type Store interface {
	ListSheets(ctx context.Context) ([]SheetInfo, error)
	GetValues(ctx context.Context, rng string) ([][]interface{}, error)
	AppendValues(ctx context.Context, rng string, rows [][]interface{}, input ValueInput) error
	UpdateValues(ctx context.Context, rng string, rows [][]interface{}, input ValueInput) error
	AddSheet(ctx context.Context, title string) (SheetInfo, error)
	// DuplicateSheet copies sourceID into a new sheet called title.
	DuplicateSheet(ctx context.Context, sourceID int64, title string) (SheetInfo, error)
	// DeleteRows removes the zero based, half open row range [start, end).
	DeleteRows(ctx context.Context, sheetID int64, start, end int64) error
}

// FindSheet looks a sheet up by title.
func FindSheet(list []SheetInfo, title string) (SheetInfo, bool) {
	for _, sh := range list {
		if sh.Title == title {
			return sh, true
		}
	}
	return SheetInfo{}, false
}

// Error is returned by Store implementations when the backing store fails.
type Error struct {
	Op   string
	Code int
	Err  error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %v (status %d)", e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
