package stats

import (
	"context"
	"sort"
	"strings"

	"practicestats/pkg/sheets"

	log "github.com/sirupsen/logrus"
)

// ListPlayers returns the roster as "Name: Number" strings in sheet order.
// When the roster cannot be read or is empty the player names already in
// the ledger are used instead.
func (s *Service) ListPlayers(ctx context.Context) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var players []string
	rows, err := s.store.GetValues(ctx, sheets.A1(s.layout.RosterSheet, "A2:C"))
	if err != nil {
		log.WithError(err).Warn("Roster unavailable, falling back to ledger names")
	}
	for _, row := range rows {
		if name := rowToRosterEntry(row).DisplayName(); name != "" {
			players = append(players, name)
		}
	}
	if len(players) > 0 {
		return players, nil
	}
	return s.ledgerPlayers(ctx)
}

func (s *Service) ledgerPlayers(ctx context.Context) ([]string, error) {
	rows, err := s.store.GetValues(ctx, sheets.A1(s.layout.LedgerSheet, "A2:A"))
	if err != nil {
		return nil, remoteError(err)
	}
	players := []string{}
	seen := make(map[string]bool)
	for _, row := range rows {
		name := cellString(row, ColumnPlayer)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		players = append(players, name)
	}
	return players, nil
}

// parseCount reads the leading integer of a count cell the way a lenient
// spreadsheet user expects: "3" and "3.0" are 3, junk is 0.
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		neg = s[0] == '-'
		s = s[1:]
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	if neg {
		return -n
	}
	return n
}

// AggregateLeaders sums ledger rows (header first) per player and category
// and keeps the top players of each category. Ties keep the order in which
// players first appear in the ledger.
func AggregateLeaders(rows [][]interface{}) Leaders {
	var order []string
	totals := make(map[string]map[StatType]int)
	if len(rows) > 0 {
		rows = rows[1:]
	}
	for _, row := range rows {
		name := cellString(row, ColumnPlayer)
		if name == "" {
			continue
		}
		if _, ok := totals[name]; !ok {
			totals[name] = make(map[StatType]int)
			order = append(order, name)
		}
		stat := StatType(cellString(row, ColumnStat))
		totals[name][stat] += parseCount(cellString(row, ColumnCount))
	}

	leaders := make(Leaders, len(StatCategories))
	for _, stat := range StatCategories {
		board := make([]Leader, 0, len(order))
		for _, name := range order {
			board = append(board, Leader{Name: name, Count: totals[name][stat]})
		}
		sort.SliceStable(board, func(i, j int) bool {
			return board[i].Count > board[j].Count
		})
		if len(board) > leadersPerCategory {
			board = board[:leadersPerCategory]
		}
		leaders[stat] = board
	}
	return leaders
}

// ComputeLeaders reads the whole ledger and builds the leaderboards.
func (s *Service) ComputeLeaders(ctx context.Context) (Leaders, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.store.GetValues(ctx, sheets.A1(s.layout.LedgerSheet, "A:D"))
	if err != nil {
		return nil, remoteError(err)
	}
	return AggregateLeaders(rows), nil
}
