package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"practicestats/pkg/auth"
	"practicestats/pkg/sheets"
	"practicestats/pkg/stats"

	log "github.com/sirupsen/logrus"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Tracker is the stats backend the handlers call.
type Tracker interface {
	TestConnection(ctx context.Context) ([][]interface{}, error)
	RecordStat(ctx context.Context, ev stats.StatEvent) (stats.RecordResult, error)
	LastEntry(ctx context.Context) (stats.LedgerRow, bool, error)
	UndoLastStat(ctx context.Context) (stats.DeletedEntry, error)
	RecordAttendance(ctx context.Context, date string, presence []stats.Presence) (stats.AttendanceResult, error)
	CheckAttendance(ctx context.Context, now time.Time) (stats.AttendanceStatus, error)
	ListPlayers(ctx context.Context) ([]string, error)
	ListSheets(ctx context.Context) ([]sheets.SheetInfo, error)
	ComputeLeaders(ctx context.Context) (stats.Leaders, error)
}

// Server holds what the HTTP handlers share.
type Server struct {
	tracker  Tracker
	sessions *auth.Sessions
	password auth.Password
}

// NewServer wires the handlers to tracker. Logins are checked against
// password and recorded in sessions.
func NewServer(tracker Tracker, sessions *auth.Sessions, password auth.Password) *Server {
	return &Server{tracker: tracker, sessions: sessions, password: password}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func sendResponse(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Error("Failed to encode response")
		sendResponse(w, http.StatusInternalServerError, []byte(`{"error":"Internal server error"}`))
		return
	}
	sendResponse(w, status, body)
}

// writeError maps err to a status code. failure is the message shown when
// the store itself failed.
func writeError(w http.ResponseWriter, err error, failure string) {
	switch {
	case errors.Is(err, stats.ErrValidation):
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: reason(err, stats.ErrValidation)})
	case errors.Is(err, stats.ErrNotFound):
		sendJSON(w, http.StatusNotFound, errorResponse{Error: reason(err, stats.ErrNotFound)})
	case errors.Is(err, stats.ErrConfig):
		log.WithError(err).Error("Service is not configured")
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: reason(err, stats.ErrConfig)})
	default:
		log.WithError(err).Error(failure)
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: failure, Details: err.Error()})
	}
}

// reason strips the sentinel prefix from err's message.
func reason(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == "" {
		return sentinel.Error()
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body", Details: err.Error()})
		return false
	}
	return true
}

// getConnection reads the first ledger rows to prove the store is reachable.
func (s *Server) getConnection(w http.ResponseWriter, r *http.Request) {
	rows, err := s.tracker.TestConnection(r.Context())
	if err != nil {
		writeError(w, err, "Failed to connect to the spreadsheet")
		return
	}
	if rows == nil {
		rows = [][]interface{}{}
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Successfully connected to the spreadsheet",
		"data":     rows,
		"rowCount": len(rows),
	})
}

func (s *Server) postStat(w http.ResponseWriter, r *http.Request) {
	var ev stats.StatEvent
	if !decodeBody(w, r, &ev) {
		return
	}
	res, err := s.tracker.RecordStat(r.Context(), ev)
	if err != nil {
		writeError(w, err, "Internal server error")
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"message":      "Stat added successfully",
		"dateSheet":    res.DateSheet,
		"createdSheet": res.CreatedSheet,
	})
}

type lastEntryResponse struct {
	Player    string `json:"player"`
	Stat      string `json:"stat"`
	Timestamp string `json:"timestamp"`
	Count     string `json:"count"`
	Notes     string `json:"notes"`
	RowNumber int    `json:"rowNumber"`
}

func (s *Server) getLastStat(w http.ResponseWriter, r *http.Request) {
	last, ok, err := s.tracker.LastEntry(r.Context())
	if err != nil {
		writeError(w, err, "Failed to fetch last stat entry")
		return
	}
	if !ok {
		sendJSON(w, http.StatusOK, map[string]interface{}{
			"hasLastEntry": false,
			"message":      "No stat entries found",
		})
		return
	}
	count := last.Count
	if count == "" {
		count = "1"
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"hasLastEntry": true,
		"lastEntry": lastEntryResponse{
			Player:    last.Player,
			Stat:      last.Stat,
			Timestamp: last.Timestamp,
			Count:     count,
			Notes:     last.Notes,
			RowNumber: last.RowNumber,
		},
	})
}

func (s *Server) deleteLastStat(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.tracker.UndoLastStat(r.Context())
	if err != nil {
		writeError(w, err, "Failed to delete last stat entry")
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"message":      fmt.Sprintf("Last stat entry deleted: %s - %s", deleted.Player, deleted.Stat),
		"deletedEntry": deleted,
	})
}

type attendanceRequest struct {
	Date       string           `json:"date"`
	Attendance []stats.Presence `json:"attendance"`
}

type attendanceResponse struct {
	Success bool `json:"success"`
	stats.AttendanceResult
}

func (s *Server) postAttendance(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.tracker.RecordAttendance(r.Context(), req.Date, req.Attendance)
	if err != nil {
		writeError(w, err, "Internal server error")
		return
	}
	sendJSON(w, http.StatusOK, attendanceResponse{Success: true, AttendanceResult: res})
}

func (s *Server) getAttendanceCheck(w http.ResponseWriter, r *http.Request) {
	status, err := s.tracker.CheckAttendance(r.Context(), timeNow())
	if err != nil {
		writeError(w, err, "Failed to check attendance")
		return
	}
	sendJSON(w, http.StatusOK, status)
}

func (s *Server) getPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.tracker.ListPlayers(r.Context())
	if err != nil {
		writeError(w, err, "Failed to fetch players")
		return
	}
	if players == nil {
		players = []string{}
	}
	sendJSON(w, http.StatusOK, players)
}

func (s *Server) getSheets(w http.ResponseWriter, r *http.Request) {
	list, err := s.tracker.ListSheets(r.Context())
	if err != nil {
		writeError(w, err, "Failed to load sheets")
		return
	}
	sendJSON(w, http.StatusOK, list)
}

func (s *Server) getLeaders(w http.ResponseWriter, r *http.Request) {
	leaders, err := s.tracker.ComputeLeaders(r.Context())
	if err != nil {
		writeError(w, err, "Failed to load leaders")
		return
	}
	sendJSON(w, http.StatusOK, leaders)
}

func getHealth(w http.ResponseWriter, r *http.Request) {
	sendResponse(w, http.StatusOK, []byte(`{"status":"ok"}`))
}
