package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// WorkbookStore is a Store kept in a local .xlsx workbook. With an empty
// path the workbook only lives in memory, which is what tests and demos use.
type WorkbookStore struct {
	mu   sync.Mutex
	file *excelize.File
	path string
}

// Excel rejects these characters in sheet names; Google Sheets does not, and
// date sheets are named like 9/28/2025. Titles are mapped to look-alike runes.
var (
	titleToName = strings.NewReplacer("/", "∕", "\\", "⧵", ":", "∶", "?", "？", "*", "∗", "[", "［", "]", "］")
	nameToTitle = strings.NewReplacer("∕", "/", "⧵", "\\", "∶", ":", "？", "?", "∗", "*", "［", "[", "］", "]")
)

// NewWorkbookStore opens path, creating a new workbook when it does not exist.
func NewWorkbookStore(path string) (*WorkbookStore, error) {
	if path == "" {
		return &WorkbookStore{file: excelize.NewFile()}, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open workbook %s: %w", path, err)
		}
		log.Infof("Workbook %s not found, starting a new one", path)
		f = excelize.NewFile()
	}
	return &WorkbookStore{file: f, path: path}, nil
}

// File exposes the underlying workbook, mostly for inspection in tests.
func (s *WorkbookStore) File() *excelize.File {
	return s.file
}

// Close releases the workbook.
func (s *WorkbookStore) Close() error {
	return s.file.Close()
}

func (s *WorkbookStore) ListSheets(ctx context.Context) ([]SheetInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sheetList(), nil
}

func (s *WorkbookStore) GetValues(ctx context.Context, rng string) ([][]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, b, err := ParseA1(rng)
	if err != nil {
		return nil, &Error{Op: "get " + rng, Code: 400, Err: err}
	}
	rows, err := s.file.GetRows(titleToName.Replace(sheet))
	if err != nil {
		return nil, &Error{Op: "get " + rng, Code: 400, Err: err}
	}

	first := 0
	if b.Row1 > 0 {
		first = b.Row1 - 1
	}
	last := len(rows)
	if b.Row2 > 0 && b.Row2 < last {
		last = b.Row2
	}

	var out [][]interface{}
	for r := first; r < last; r++ {
		out = append(out, sliceColumns(rows[r], b))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func sliceColumns(row []string, b Bounds) []interface{} {
	from := 0
	if b.Col1 > 0 {
		from = b.Col1 - 1
	}
	to := len(row)
	if b.Col2 > 0 && b.Col2 < to {
		to = b.Col2
	}
	for to > from && row[to-1] == "" {
		to--
	}
	if from >= to {
		return []interface{}{}
	}
	cells := make([]interface{}, 0, to-from)
	for _, v := range row[from:to] {
		cells = append(cells, v)
	}
	return cells
}

func (s *WorkbookStore) AppendValues(ctx context.Context, rng string, rows [][]interface{}, input ValueInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, b, err := ParseA1(rng)
	if err != nil {
		return &Error{Op: "append " + rng, Code: 400, Err: err}
	}
	sheet = titleToName.Replace(sheet)
	existing, err := s.file.GetRows(sheet)
	if err != nil {
		return &Error{Op: "append " + rng, Code: 400, Err: err}
	}
	col := max(b.Col1, 1)
	next := usedRows(existing, b) + 1
	for i, row := range rows {
		if err := s.writeRow(sheet, col, next+i, row, input); err != nil {
			return &Error{Op: "append " + rng, Err: err}
		}
	}
	return s.save()
}

func (s *WorkbookStore) UpdateValues(ctx context.Context, rng string, rows [][]interface{}, input ValueInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, b, err := ParseA1(rng)
	if err != nil {
		return &Error{Op: "update " + rng, Code: 400, Err: err}
	}
	if !s.hasSheet(sheet) {
		return &Error{Op: "update " + rng, Code: 400, Err: fmt.Errorf("sheet %s does not exist", sheet)}
	}
	sheet = titleToName.Replace(sheet)
	col, row := max(b.Col1, 1), max(b.Row1, 1)
	for i, values := range rows {
		if err := s.writeRow(sheet, col, row+i, values, input); err != nil {
			return &Error{Op: "update " + rng, Err: err}
		}
	}
	return s.save()
}

func (s *WorkbookStore) AddSheet(ctx context.Context, title string) (SheetInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasSheet(title) {
		return SheetInfo{}, &Error{Op: "add sheet " + title, Code: 400, Err: fmt.Errorf("a sheet with the name %q already exists", title)}
	}
	if _, err := s.file.NewSheet(titleToName.Replace(title)); err != nil {
		return SheetInfo{}, &Error{Op: "add sheet " + title, Code: 400, Err: err}
	}
	info, _ := FindSheet(s.sheetList(), title)
	return info, s.save()
}

func (s *WorkbookStore) DuplicateSheet(ctx context.Context, sourceID int64, title string) (SheetInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op := "duplicate sheet as " + title
	source, ok := s.file.GetSheetMap()[int(sourceID)]
	if !ok {
		return SheetInfo{}, &Error{Op: op, Code: 404, Err: fmt.Errorf("no sheet with id %d", sourceID)}
	}
	if s.hasSheet(title) {
		return SheetInfo{}, &Error{Op: op, Code: 400, Err: fmt.Errorf("a sheet with the name %q already exists", title)}
	}
	from, err := s.file.GetSheetIndex(source)
	if err != nil {
		return SheetInfo{}, &Error{Op: op, Err: err}
	}
	to, err := s.file.NewSheet(titleToName.Replace(title))
	if err != nil {
		return SheetInfo{}, &Error{Op: op, Code: 400, Err: err}
	}
	if err := s.file.CopySheet(from, to); err != nil {
		return SheetInfo{}, &Error{Op: op, Err: err}
	}
	info, _ := FindSheet(s.sheetList(), title)
	return info, s.save()
}

func (s *WorkbookStore) DeleteRows(ctx context.Context, sheetID int64, start, end int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op := fmt.Sprintf("delete rows %d-%d", start, end)
	name, ok := s.file.GetSheetMap()[int(sheetID)]
	if !ok {
		return &Error{Op: op, Code: 404, Err: fmt.Errorf("no sheet with id %d", sheetID)}
	}
	for r := end; r > start; r-- {
		if err := s.file.RemoveRow(name, int(r)); err != nil {
			return &Error{Op: op, Err: err}
		}
	}
	return s.save()
}

func (s *WorkbookStore) writeRow(sheet string, col, row int, values []interface{}, input ValueInput) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+i, row)
		if err != nil {
			return err
		}
		if str, ok := v.(string); ok && input == UserEntered && strings.HasPrefix(str, "=") {
			if err := s.file.SetCellFormula(sheet, cell, strings.TrimPrefix(str, "=")); err != nil {
				return err
			}
			continue
		}
		if err := s.file.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// usedRows counts rows up to the last one holding a value inside the
// columns of b, so cells to the right of the table do not move the end.
func usedRows(rows [][]string, b Bounds) int {
	n := len(rows)
	for n > 0 && len(sliceColumns(rows[n-1], b)) == 0 {
		n--
	}
	return n
}

func (s *WorkbookStore) sheetList() []SheetInfo {
	ids := make(map[string]int)
	for id, name := range s.file.GetSheetMap() {
		ids[name] = id
	}
	var list []SheetInfo
	for _, name := range s.file.GetSheetList() {
		list = append(list, SheetInfo{ID: int64(ids[name]), Title: nameToTitle.Replace(name)})
	}
	return list
}

func (s *WorkbookStore) hasSheet(title string) bool {
	_, ok := FindSheet(s.sheetList(), title)
	return ok
}

func (s *WorkbookStore) save() error {
	if s.path == "" {
		return nil
	}
	if err := s.file.SaveAs(s.path); err != nil {
		return &Error{Op: "save " + s.path, Err: err}
	}
	return nil
}
