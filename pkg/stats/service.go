package stats

import (
	"context"
	"fmt"
	"time"

	"practicestats/pkg/config"
	"practicestats/pkg/sheets"

	log "github.com/sirupsen/logrus"
)

// Service records and reads practice stats. It holds no state of its own;
// every call reads the store again.
type Service struct {
	store  sheets.Store
	layout config.Layout
	loc    *time.Location
	cfgErr error
}

// NewService builds a Service for cfg. A configuration problem or a nil
// store does not fail here; every operation returns ErrConfig instead.
func NewService(cfg *config.Config, store sheets.Store) *Service {
	s := &Service{store: store, layout: cfg.Layout, loc: time.UTC}
	if err := cfg.Check(); err != nil {
		s.cfgErr = configError(err)
		return s
	}
	loc, err := cfg.Location()
	if err != nil {
		s.cfgErr = configError(err)
		return s
	}
	s.loc = loc
	if store == nil {
		s.cfgErr = configError(fmt.Errorf("no store connection, check the credentials"))
	}
	return s
}

// OpenStore connects to the backend selected in cfg.
func OpenStore(ctx context.Context, cfg *config.Config) (sheets.Store, error) {
	if err := cfg.Check(); err != nil {
		return nil, configError(err)
	}
	switch cfg.Store {
	case config.StoreWorkbook:
		log.Infof("Using workbook store %q", cfg.WorkbookPath)
		wb, err := sheets.NewWorkbookStore(cfg.WorkbookPath)
		if err != nil {
			return nil, configError(err)
		}
		return wb, nil
	default:
		cred := sheets.CredentialsFile(cfg.CredentialsFile)
		if cfg.CredentialsJSON != "" {
			cred = sheets.CredentialsJSON([]byte(cfg.CredentialsJSON))
		}
		client, err := sheets.NewSheetClient(ctx, cfg.SpreadsheetID, cred)
		if err != nil {
			return nil, configError(err)
		}
		return client, nil
	}
}

// Location is the time zone dates are formatted in.
func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) ready() error {
	return s.cfgErr
}

func (s *Service) findSheet(ctx context.Context, title string) (sheets.SheetInfo, bool, error) {
	list, err := s.store.ListSheets(ctx)
	if err != nil {
		return sheets.SheetInfo{}, false, remoteError(err)
	}
	info, ok := sheets.FindSheet(list, title)
	return info, ok, nil
}

// ListSheets returns every sheet except the ledger and the roster.
func (s *Service) ListSheets(ctx context.Context) ([]sheets.SheetInfo, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	list, err := s.store.ListSheets(ctx)
	if err != nil {
		return nil, remoteError(err)
	}
	out := make([]sheets.SheetInfo, 0, len(list))
	for _, sh := range list {
		if sh.Title == s.layout.LedgerSheet || sh.Title == s.layout.RosterSheet {
			continue
		}
		out = append(out, sh)
	}
	return out, nil
}

// TestConnection reads the first rows of the ledger.
func (s *Service) TestConnection(ctx context.Context) ([][]interface{}, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.store.GetValues(ctx, sheets.A1(s.layout.LedgerSheet, "A1:D5"))
	if err != nil {
		return nil, remoteError(err)
	}
	return rows, nil
}

var (
	ledgerHeader = []interface{}{"Player", "Stat", "Timestamp", "Count", "Notes"}
	rosterHeader = []interface{}{"Number", "Full Name", "Short Name"}
)

// Bootstrap creates the ledger, roster and template sheets that are missing,
// each with a header row, and returns the titles it created. Existing sheets
// are left alone.
func (s *Service) Bootstrap(ctx context.Context) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	list, err := s.store.ListSheets(ctx)
	if err != nil {
		return nil, remoteError(err)
	}
	wanted := []struct {
		title  string
		header []interface{}
	}{
		{s.layout.LedgerSheet, ledgerHeader},
		{s.layout.RosterSheet, rosterHeader},
		{s.layout.TemplateSheet, ledgerHeader},
	}
	var created []string
	for _, w := range wanted {
		if w.title == "" {
			continue
		}
		if _, ok := sheets.FindSheet(list, w.title); ok {
			continue
		}
		if _, err := s.store.AddSheet(ctx, w.title); err != nil {
			return created, remoteError(err)
		}
		if err := s.store.UpdateValues(ctx, sheets.A1(w.title, "A1"), [][]interface{}{w.header}, sheets.Raw); err != nil {
			return created, remoteError(err)
		}
		log.Infof("Created sheet %s", w.title)
		created = append(created, w.title)
	}
	return created, nil
}
