package stats

import (
	"context"
	"testing"

	"practicestats/pkg/config"
	"practicestats/pkg/sheets"

	"github.com/stretchr/testify/require"
)

// recordingStore wraps a real store, counting structural changes and
// optionally failing reads of one range.
type recordingStore struct {
	sheets.Store
	DuplicateCalls []string
	DeleteCalls    [][2]int64
	AppendCalls    []string
	FailGet        map[string]error
}

func (m *recordingStore) GetValues(ctx context.Context, rng string) ([][]interface{}, error) {
	if err, ok := m.FailGet[rng]; ok {
		return nil, err
	}
	return m.Store.GetValues(ctx, rng)
}

func (m *recordingStore) AppendValues(ctx context.Context, rng string, rows [][]interface{}, input sheets.ValueInput) error {
	m.AppendCalls = append(m.AppendCalls, rng)
	return m.Store.AppendValues(ctx, rng, rows, input)
}

func (m *recordingStore) DuplicateSheet(ctx context.Context, sourceID int64, title string) (sheets.SheetInfo, error) {
	m.DuplicateCalls = append(m.DuplicateCalls, title)
	return m.Store.DuplicateSheet(ctx, sourceID, title)
}

func (m *recordingStore) DeleteRows(ctx context.Context, sheetID int64, start, end int64) error {
	m.DeleteCalls = append(m.DeleteCalls, [2]int64{start, end})
	return m.Store.DeleteRows(ctx, sheetID, start, end)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Store = config.StoreWorkbook
	return cfg
}

// newTestService returns a service over an in-memory workbook holding a
// ledger with its header and the date sheet template.
func newTestService(t *testing.T) (*Service, *recordingStore) {
	t.Helper()
	ctx := context.Background()
	wb, err := sheets.NewWorkbookStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = wb.Close() })

	cfg := testConfig()
	_, err = wb.AddSheet(ctx, cfg.Layout.LedgerSheet)
	require.NoError(t, err)
	require.NoError(t, wb.UpdateValues(ctx, sheets.A1(cfg.Layout.LedgerSheet, "A1"),
		[][]interface{}{{"Player", "Stat", "Timestamp", "Count"}}, sheets.Raw))
	_, err = wb.AddSheet(ctx, cfg.Layout.TemplateSheet)
	require.NoError(t, err)
	require.NoError(t, wb.UpdateValues(ctx, sheets.A1(cfg.Layout.TemplateSheet, "A1"),
		[][]interface{}{{"Player", "Stat", "Timestamp", "Count"}}, sheets.Raw))

	rec := &recordingStore{Store: wb}
	return NewService(cfg, rec), rec
}

func ledgerRows(t *testing.T, s *Service) [][]interface{} {
	t.Helper()
	rows, err := s.store.GetValues(context.Background(), sheets.A1(s.layout.LedgerSheet, "A:D"))
	require.NoError(t, err)
	return rows
}

func sheetTitles(t *testing.T, s *Service) []string {
	t.Helper()
	list, err := s.store.ListSheets(context.Background())
	require.NoError(t, err)
	var titles []string
	for _, sh := range list {
		titles = append(titles, sh.Title)
	}
	return titles
}
