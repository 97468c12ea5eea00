package api

import (
	"context"
	"time"

	"practicestats/pkg/sheets"
	"practicestats/pkg/stats"
)

type mockTracker struct {
	TestConnectionFunc   func(ctx context.Context) ([][]interface{}, error)
	RecordStatFunc       func(ctx context.Context, ev stats.StatEvent) (stats.RecordResult, error)
	LastEntryFunc        func(ctx context.Context) (stats.LedgerRow, bool, error)
	UndoLastStatFunc     func(ctx context.Context) (stats.DeletedEntry, error)
	RecordAttendanceFunc func(ctx context.Context, date string, presence []stats.Presence) (stats.AttendanceResult, error)
	CheckAttendanceFunc  func(ctx context.Context, now time.Time) (stats.AttendanceStatus, error)
	ListPlayersFunc      func(ctx context.Context) ([]string, error)
	ListSheetsFunc       func(ctx context.Context) ([]sheets.SheetInfo, error)
	ComputeLeadersFunc   func(ctx context.Context) (stats.Leaders, error)
}

func (m *mockTracker) TestConnection(ctx context.Context) ([][]interface{}, error) {
	return m.TestConnectionFunc(ctx)
}
func (m *mockTracker) RecordStat(ctx context.Context, ev stats.StatEvent) (stats.RecordResult, error) {
	return m.RecordStatFunc(ctx, ev)
}
func (m *mockTracker) LastEntry(ctx context.Context) (stats.LedgerRow, bool, error) {
	return m.LastEntryFunc(ctx)
}
func (m *mockTracker) UndoLastStat(ctx context.Context) (stats.DeletedEntry, error) {
	return m.UndoLastStatFunc(ctx)
}
func (m *mockTracker) RecordAttendance(ctx context.Context, date string, presence []stats.Presence) (stats.AttendanceResult, error) {
	return m.RecordAttendanceFunc(ctx, date, presence)
}
func (m *mockTracker) CheckAttendance(ctx context.Context, now time.Time) (stats.AttendanceStatus, error) {
	return m.CheckAttendanceFunc(ctx, now)
}
func (m *mockTracker) ListPlayers(ctx context.Context) ([]string, error) {
	return m.ListPlayersFunc(ctx)
}
func (m *mockTracker) ListSheets(ctx context.Context) ([]sheets.SheetInfo, error) {
	return m.ListSheetsFunc(ctx)
}
func (m *mockTracker) ComputeLeaders(ctx context.Context) (stats.Leaders, error) {
	return m.ComputeLeadersFunc(ctx)
}
