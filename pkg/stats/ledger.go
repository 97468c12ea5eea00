package stats

import (
	"context"
	"strings"
	"time"

	"practicestats/pkg/sheets"

	log "github.com/sirupsen/logrus"
)

// RecordResult describes what RecordStat did.
type RecordResult struct {
	DateSheet    string `json:"dateSheet"`
	CreatedSheet bool   `json:"createdSheet"`
}

// DeletedEntry is the ledger row removed by UndoLastStat.
type DeletedEntry struct {
	Player    string `json:"player"`
	Stat      string `json:"stat"`
	Timestamp string `json:"timestamp"`
	Date      string `json:"date"`
	// DateSheetCleaned is true when the matching date sheet row was removed too.
	DateSheetCleaned bool `json:"dateSheetCleaned"`
}

// DateSheetName formats a stat timestamp as the M/D/YYYY name of its date
// sheet, in loc.
func DateSheetName(timestamp string, loc *time.Location) (string, error) {
	ts := strings.TrimSpace(timestamp)
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, ts, loc)
		if err == nil {
			return t.In(loc).Format(DateSheetLayout), nil
		}
	}
	return "", validationError("unrecognised timestamp %q", timestamp)
}

func (s *Service) ledgerRange() string {
	return sheets.A1(s.layout.LedgerSheet, "A:E")
}

// Validate checks that every field of the event is present.
func (e StatEvent) Validate() error {
	var missing []string
	if strings.TrimSpace(e.Player) == "" {
		missing = append(missing, "name")
	}
	if e.Stat == "" {
		missing = append(missing, "stat")
	}
	if strings.TrimSpace(e.Timestamp) == "" {
		missing = append(missing, "timestamp")
	}
	if e.Count == 0 {
		missing = append(missing, "count")
	}
	if len(missing) > 0 {
		return validationError("missing required fields: %s", strings.Join(missing, ", "))
	}
	if !e.Stat.Valid() {
		return validationError("unknown stat %q", e.Stat)
	}
	if e.Count < 1 {
		return validationError("count must be at least 1, got %d", e.Count)
	}
	return nil
}

// RecordStat makes sure the date sheet for the event exists, then appends
// the event to the ledger.
func (s *Service) RecordStat(ctx context.Context, ev StatEvent) (RecordResult, error) {
	if err := s.ready(); err != nil {
		return RecordResult{}, err
	}
	if err := ev.Validate(); err != nil {
		return RecordResult{}, err
	}
	name, err := DateSheetName(ev.Timestamp, s.loc)
	if err != nil {
		return RecordResult{}, err
	}

	created, err := s.EnsureDateSheet(ctx, name)
	if err != nil {
		return RecordResult{}, err
	}
	if err := s.AppendEntry(ctx, ev); err != nil {
		return RecordResult{DateSheet: name, CreatedSheet: created}, err
	}
	log.WithFields(log.Fields{
		"player": ev.Player,
		"stat":   ev.Stat,
		"sheet":  name,
	}).Info("Recorded stat")
	return RecordResult{DateSheet: name, CreatedSheet: created}, nil
}

// EnsureDateSheet creates the date sheet from the template unless a sheet
// with that name already exists. It reports whether a sheet was created.
func (s *Service) EnsureDateSheet(ctx context.Context, name string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	list, err := s.store.ListSheets(ctx)
	if err != nil {
		return false, remoteError(err)
	}
	if _, ok := sheets.FindSheet(list, name); ok {
		return false, nil
	}
	tmpl, ok := sheets.FindSheet(list, s.layout.TemplateSheet)
	if !ok {
		return false, notFound("template sheet %q", s.layout.TemplateSheet)
	}

	if _, err := s.store.DuplicateSheet(ctx, tmpl.ID, name); err != nil {
		return false, remoteError(err)
	}
	if s.layout.MarkerCell != "" {
		marker := sheets.A1(name, s.layout.MarkerCell)
		if err := s.store.UpdateValues(ctx, marker, [][]interface{}{{name}}, sheets.Raw); err != nil {
			return true, remoteError(err)
		}
	}
	log.Infof("Created date sheet %s from template %s", name, s.layout.TemplateSheet)
	return true, nil
}

// AppendEntry appends one row to the ledger.
func (s *Service) AppendEntry(ctx context.Context, ev StatEvent) error {
	if err := s.ready(); err != nil {
		return err
	}
	err := s.store.AppendValues(ctx, sheets.A1(s.layout.LedgerSheet, "A:D"), [][]interface{}{ev.ToRow()}, sheets.Raw)
	if err != nil {
		return remoteError(err)
	}
	return nil
}

// LastEntry returns the most recent ledger row. The bool is false when the
// ledger holds nothing but its header.
func (s *Service) LastEntry(ctx context.Context) (LedgerRow, bool, error) {
	if err := s.ready(); err != nil {
		return LedgerRow{}, false, err
	}
	rows, err := s.store.GetValues(ctx, s.ledgerRange())
	if err != nil {
		return LedgerRow{}, false, remoteError(err)
	}
	if len(rows) <= 1 {
		return LedgerRow{}, false, nil
	}
	return rowToLedgerRow(rows[len(rows)-1], len(rows)), true, nil
}

// DeleteLastEntry removes the last ledger row and returns it.
func (s *Service) DeleteLastEntry(ctx context.Context) (LedgerRow, error) {
	last, ok, err := s.LastEntry(ctx)
	if err != nil {
		return LedgerRow{}, err
	}
	if !ok {
		return LedgerRow{}, notFound("no stat entries found to delete")
	}
	ledger, found, err := s.findSheet(ctx, s.layout.LedgerSheet)
	if err != nil {
		return LedgerRow{}, err
	}
	if !found {
		return LedgerRow{}, notFound("ledger sheet %q", s.layout.LedgerSheet)
	}
	start := int64(last.RowNumber - 1)
	if err := s.store.DeleteRows(ctx, ledger.ID, start, start+1); err != nil {
		return LedgerRow{}, remoteError(err)
	}
	return last, nil
}

// RemoveFromDateSheet deletes the last row of the entry's date sheet that
// matches player, stat and timestamp. It reports whether a row was removed.
func (s *Service) RemoveFromDateSheet(ctx context.Context, entry LedgerRow) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	name, err := DateSheetName(entry.Timestamp, s.loc)
	if err != nil {
		return false, err
	}
	sheet, found, err := s.findSheet(ctx, name)
	if err != nil || !found {
		return false, err
	}
	rows, err := s.store.GetValues(ctx, sheets.A1(name, "A:E"))
	if err != nil {
		return false, remoteError(err)
	}
	for i := len(rows) - 1; i >= 0; i-- {
		if !entry.Matches(rows[i]) {
			continue
		}
		if err := s.store.DeleteRows(ctx, sheet.ID, int64(i), int64(i+1)); err != nil {
			return false, remoteError(err)
		}
		return true, nil
	}
	return false, nil
}

// UndoLastStat deletes the most recent ledger row. Cleaning up the date
// sheet is best effort: failures there are logged and not returned.
func (s *Service) UndoLastStat(ctx context.Context) (DeletedEntry, error) {
	last, err := s.DeleteLastEntry(ctx)
	if err != nil {
		return DeletedEntry{}, err
	}
	deleted := DeletedEntry{
		Player:    last.Player,
		Stat:      last.Stat,
		Timestamp: last.Timestamp,
	}
	if date, err := DateSheetName(last.Timestamp, s.loc); err == nil {
		deleted.Date = date
	}

	cleaned, err := s.RemoveFromDateSheet(ctx, last)
	if err != nil {
		log.WithError(err).WithField("entry", last.RowNumber).Warn("Could not delete from date sheet")
	}
	deleted.DateSheetCleaned = cleaned
	log.WithFields(log.Fields{
		"player": last.Player,
		"stat":   last.Stat,
		"row":    last.RowNumber,
	}).Info("Deleted last stat entry")
	return deleted, nil
}
