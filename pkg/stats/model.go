package stats

import (
	"fmt"
	"strings"
)

type colIdx int

// Ledger columns
const (
	ColumnPlayer    colIdx = 0
	ColumnStat      colIdx = 1
	ColumnTimestamp colIdx = 2
	ColumnCount     colIdx = 3
	ColumnNotes     colIdx = 4
)

// Roster columns
const (
	ColumnNumber    colIdx = 0
	ColumnFullName  colIdx = 1
	ColumnShortName colIdx = 2
)

// StatEvent is a single stat recorded for a player.
type StatEvent struct {
	Player    string   `json:"name"`
	Stat      StatType `json:"stat"`
	Timestamp string   `json:"timestamp"`
	Count     int      `json:"count"`
}

// LedgerRow is a StatEvent as persisted in the ledger sheet. Count and Notes
// are kept as the raw cell text.
type LedgerRow struct {
	RowNumber int
	Player    string
	Stat      string
	Timestamp string
	Count     string
	Notes     string
}

// RosterEntry is a player on the roster sheet.
type RosterEntry struct {
	Number    string
	FullName  string
	ShortName string
}

// Presence marks one player as present or absent at practice.
type Presence struct {
	PlayerName string `json:"playerName"`
	Present    bool   `json:"present"`
}

// Leader is one line of a per-category leaderboard.
type Leader struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Leaders maps each stat category to its top players.
type Leaders map[StatType][]Leader

func cellString(row []interface{}, i colIdx) string {
	if int(i) < len(row) && row[i] != nil {
		return strings.TrimSpace(fmt.Sprint(row[i]))
	}
	return ""
}

func rowToLedgerRow(row []interface{}, rowNumber int) LedgerRow {
	return LedgerRow{
		RowNumber: rowNumber,
		Player:    cellString(row, ColumnPlayer),
		Stat:      cellString(row, ColumnStat),
		Timestamp: cellString(row, ColumnTimestamp),
		Count:     cellString(row, ColumnCount),
		Notes:     cellString(row, ColumnNotes),
	}
}

func rowToRosterEntry(row []interface{}) RosterEntry {
	return RosterEntry{
		Number:    cellString(row, ColumnNumber),
		FullName:  cellString(row, ColumnFullName),
		ShortName: cellString(row, ColumnShortName),
	}
}

// ToRow is the ledger representation of the event.
func (e StatEvent) ToRow() []interface{} {
	return []interface{}{
		e.Player,
		string(e.Stat),
		e.Timestamp,
		e.Count,
	}
}

// Matches reports whether a date sheet row records the same entry.
func (r LedgerRow) Matches(row []interface{}) bool {
	return cellString(row, ColumnPlayer) == r.Player &&
		cellString(row, ColumnStat) == r.Stat &&
		cellString(row, ColumnTimestamp) == r.Timestamp
}

// DisplayName is the "Name: Number" form the roster is listed in.
func (e RosterEntry) DisplayName() string {
	name := e.FullName
	if name == "" {
		name = e.ShortName
	}
	if name == "" {
		return ""
	}
	if e.Number == "" {
		return name
	}
	return name + ": " + e.Number
}
