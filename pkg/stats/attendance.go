package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"practicestats/pkg/sheets"

	log "github.com/sirupsen/logrus"
)

// Attendance sheet rows: 1 header, 2 totals, data from 3.
const (
	attendanceHeaderRows = 2
	attendanceFirstRow   = attendanceHeaderRows + 1
)

// AttendanceResult describes what RecordAttendance wrote.
type AttendanceResult struct {
	Date         string `json:"date"`
	Message      string `json:"message"`
	PresentCount int    `json:"presentCount"`
	TotalCount   int    `json:"totalCount"`
	Overwritten  bool   `json:"overwritten"`
	Row          int    `json:"row"`
}

// AttendanceStatus tells whether attendance was already taken today.
type AttendanceStatus struct {
	AttendanceTaken          bool   `json:"attendanceTaken"`
	Today                    string `json:"today"`
	Yesterday                string `json:"yesterday"`
	AttendanceTakenYesterday bool   `json:"attendanceTakenYesterday"`
	Message                  string `json:"message"`
}

func uniquePlayers(presence []Presence) ([]string, map[string]bool) {
	var order []string
	present := make(map[string]bool)
	seen := make(map[string]bool)
	for _, p := range presence {
		name := strings.TrimSpace(p.PlayerName)
		if name == "" {
			continue
		}
		if !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
		if p.Present {
			present[name] = true
		}
	}
	return order, present
}

// countPresent counts entries marked present, duplicates included.
func countPresent(presence []Presence) int {
	n := 0
	for _, p := range presence {
		if p.Present && strings.TrimSpace(p.PlayerName) != "" {
			n++
		}
	}
	return n
}

// totalsRow sums every player column over the data rows 3..lastRow.
func totalsRow(players int, lastRow int) []interface{} {
	row := []interface{}{"TOTALS"}
	for i := 0; i < players; i++ {
		if lastRow < attendanceFirstRow {
			row = append(row, "")
			continue
		}
		col := sheets.ColumnName(i + 2)
		row = append(row, fmt.Sprintf("=SUM(%s%d:%s%d)", col, attendanceFirstRow, col, lastRow))
	}
	return row
}

func (s *Service) ensureAttendanceSheet(ctx context.Context) error {
	_, found, err := s.findSheet(ctx, s.layout.AttendanceSheet)
	if err != nil || found {
		return err
	}
	log.Infof("Creating %s sheet", s.layout.AttendanceSheet)
	if _, err := s.store.AddSheet(ctx, s.layout.AttendanceSheet); err != nil {
		return remoteError(err)
	}
	return nil
}

// RecordAttendance writes one row for date. A row already holding date is
// replaced in full; otherwise a new row is appended. The totals row is
// rewritten afterwards to cover every data row.
func (s *Service) RecordAttendance(ctx context.Context, date string, presence []Presence) (AttendanceResult, error) {
	if err := s.ready(); err != nil {
		return AttendanceResult{}, err
	}
	date = strings.TrimSpace(date)
	if date == "" || len(presence) == 0 {
		return AttendanceResult{}, validationError("missing required fields: date, attendance")
	}
	players, present := uniquePlayers(presence)
	if len(present) == 0 {
		return AttendanceResult{}, validationError("no players marked as present")
	}

	if err := s.ensureAttendanceSheet(ctx); err != nil {
		return AttendanceResult{}, err
	}
	sheet := s.layout.AttendanceSheet
	rows, err := s.store.GetValues(ctx, sheets.A1(sheet, ""))
	if err != nil {
		return AttendanceResult{}, remoteError(err)
	}

	switch len(rows) {
	case 0:
		header := []interface{}{"Date"}
		for _, p := range players {
			header = append(header, p)
		}
		err := s.store.UpdateValues(ctx, sheets.A1(sheet, "A1"), [][]interface{}{header, totalsRow(len(players), 0)}, sheets.Raw)
		if err != nil {
			return AttendanceResult{}, remoteError(err)
		}
	case 1:
		// Header without a totals row: reserve row 2 before appending.
		err := s.store.UpdateValues(ctx, sheets.A1(sheet, "A2"), [][]interface{}{totalsRow(len(players), 0)}, sheets.Raw)
		if err != nil {
			return AttendanceResult{}, remoteError(err)
		}
	}

	record := []interface{}{date}
	for _, p := range players {
		if present[p] {
			record = append(record, 1)
		} else {
			record = append(record, 0)
		}
	}

	dataRows := max(len(rows)-attendanceHeaderRows, 0)
	existing := -1
	for i := attendanceHeaderRows; i < len(rows); i++ {
		if cellString(rows[i], 0) == date {
			existing = i
			break
		}
	}

	result := AttendanceResult{
		Date:         date,
		PresentCount: countPresent(presence),
		TotalCount:   len(presence),
		Overwritten:  existing >= 0,
	}
	if existing >= 0 {
		rowNumber := existing + 1
		// Pad with blanks so cells left over from a wider roster are cleared.
		for len(record) < len(rows[existing]) {
			record = append(record, "")
		}
		rng := sheets.A1(sheet, fmt.Sprintf("A%d:%s%d", rowNumber, sheets.ColumnName(len(record)), rowNumber))
		if err := s.store.UpdateValues(ctx, rng, [][]interface{}{record}, sheets.Raw); err != nil {
			return AttendanceResult{}, remoteError(err)
		}
		result.Row = rowNumber
		result.Message = "Attendance updated for " + date
	} else {
		rng := sheets.A1(sheet, "A:"+sheets.ColumnName(len(record)))
		if err := s.store.AppendValues(ctx, rng, [][]interface{}{record}, sheets.Raw); err != nil {
			return AttendanceResult{}, remoteError(err)
		}
		dataRows++
		result.Row = attendanceHeaderRows + dataRows
		result.Message = "Attendance recorded for " + date
	}

	totals := totalsRow(len(players), attendanceHeaderRows+dataRows)
	if err := s.store.UpdateValues(ctx, sheets.A1(sheet, "A2"), [][]interface{}{totals}, sheets.UserEntered); err != nil {
		return result, remoteError(err)
	}

	log.WithFields(log.Fields{
		"date":        date,
		"present":     result.PresentCount,
		"overwritten": result.Overwritten,
	}).Info("Recorded attendance")
	return result, nil
}

// CheckAttendance reports whether attendance rows exist for today and
// yesterday, as seen in the service time zone.
func (s *Service) CheckAttendance(ctx context.Context, now time.Time) (AttendanceStatus, error) {
	if err := s.ready(); err != nil {
		return AttendanceStatus{}, err
	}
	local := now.In(s.loc)
	status := AttendanceStatus{
		Today:     local.Format(DateSheetLayout),
		Yesterday: local.AddDate(0, 0, -1).Format(DateSheetLayout),
	}

	_, found, err := s.findSheet(ctx, s.layout.AttendanceSheet)
	if err != nil {
		return AttendanceStatus{}, err
	}
	if !found {
		status.Message = "No attendance records found"
		return status, nil
	}
	rows, err := s.store.GetValues(ctx, sheets.A1(s.layout.AttendanceSheet, "A:A"))
	if err != nil {
		return AttendanceStatus{}, remoteError(err)
	}
	if len(rows) == 0 {
		status.Message = "No attendance records found"
		return status, nil
	}

	for i := attendanceHeaderRows; i < len(rows); i++ {
		switch cellString(rows[i], 0) {
		case status.Today:
			status.AttendanceTaken = true
		case status.Yesterday:
			status.AttendanceTakenYesterday = true
		}
	}
	if status.AttendanceTaken {
		status.Message = "Attendance already taken for " + status.Today
	} else {
		status.Message = "Attendance available for " + status.Today
	}
	return status, nil
}
