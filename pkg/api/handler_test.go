package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"practicestats/pkg/auth"
	"practicestats/pkg/config"
	"practicestats/pkg/sheets"
	"practicestats/pkg/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "hoops"

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestRouter(t *testing.T, tracker Tracker) http.Handler {
	t.Helper()
	s := NewServer(tracker, auth.NewSessions(testKey, false), auth.Password{Plain: testPassword})
	return GetRouter(s)
}

// newWorkbookTracker returns a real service over an in-memory workbook with
// a ledger header and a date sheet template.
func newWorkbookTracker(t *testing.T) *stats.Service {
	t.Helper()
	ctx := context.Background()
	wb, err := sheets.NewWorkbookStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = wb.Close() })

	cfg := config.Default()
	cfg.Store = config.StoreWorkbook
	_, err = wb.AddSheet(ctx, cfg.Layout.LedgerSheet)
	require.NoError(t, err)
	require.NoError(t, wb.UpdateValues(ctx, sheets.A1(cfg.Layout.LedgerSheet, "A1"),
		[][]interface{}{{"Player", "Stat", "Timestamp", "Count"}}, sheets.Raw))
	_, err = wb.AddSheet(ctx, cfg.Layout.TemplateSheet)
	require.NoError(t, err)
	return stats.NewService(cfg, wb)
}

func login(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	rec := do(h, http.MethodPost, "/api/login", `{"password":"`+testPassword+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func do(h http.Handler, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestLogin(t *testing.T) {
	h := newTestRouter(t, &mockTracker{})

	rec := do(h, http.MethodPost, "/api/login", `{"password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid password.", decode(t, rec)["error"])
	assert.Empty(t, rec.Result().Cookies())

	rec = do(h, http.MethodPost, "/api/login", `{"password":`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/api/login", `{"password":"hoops"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["success"])
	cookie := rec.Result().Cookies()[0]
	assert.Equal(t, auth.CookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
}

func TestLoginNotConfigured(t *testing.T) {
	s := NewServer(&mockTracker{}, auth.NewSessions(testKey, false), auth.Password{})
	rec := do(GetRouter(s), http.MethodPost, "/api/login", `{"password":"hoops"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Password is not configured.", decode(t, rec)["error"])
}

func TestSessionGating(t *testing.T) {
	h := newTestRouter(t, &mockTracker{
		ListPlayersFunc: func(ctx context.Context) ([]string, error) { return []string{"Sam: 12"}, nil },
	})

	rec := do(h, http.MethodGet, "/api/loadPlayers", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodGet, "/dashboard", "", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = do(h, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<form id="login">`)

	rec = do(h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	forged := &http.Cookie{Name: auth.CookieName, Value: "true"}
	rec = do(h, http.MethodGet, "/api/loadPlayers", "", forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := login(t, h)

	rec = do(h, http.MethodGet, "/", "", cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	rec = do(h, http.MethodGet, "/api/loadPlayers", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Sam: 12"]`, rec.Body.String())

	rec = do(h, http.MethodGet, "/dashboard", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	for _, link := range []string{"/manager-docs", "/api/attendance-check", "/api/last-stat", "/api/cumulativeStats", "/api/loadPlayers"} {
		assert.Contains(t, rec.Body.String(), `href="`+link+`"`)
	}

	rec = do(h, http.MethodGet, "/manager-docs", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>How to Start Tracking Stats</h1>")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestLogout(t *testing.T) {
	h := newTestRouter(t, &mockTracker{})
	login(t, h)

	rec := do(h, http.MethodPost, "/api/logout", "", nil)
	// Logging out needs a session like every other API call.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodPost, "/api/logout", "", login(t, h))
	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
		wantDetail bool
	}{
		{"validation", fmt.Errorf("%w: missing required fields: name", stats.ErrValidation), http.StatusBadRequest, "Missing required fields: name", false},
		{"not found", fmt.Errorf("%w: template sheet %q", stats.ErrNotFound, "9/27/2025"), http.StatusNotFound, `Template sheet "9/27/2025"`, false},
		{"config", fmt.Errorf("%w: spreadsheet ID not configured, set SPREADSHEET_ID", stats.ErrConfig), http.StatusInternalServerError, "Spreadsheet ID not configured, set SPREADSHEET_ID", false},
		{"remote", fmt.Errorf("%w: %w", stats.ErrRemoteStore, errors.New("quota exceeded")), http.StatusInternalServerError, "Internal server error", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, &mockTracker{
				RecordStatFunc: func(ctx context.Context, ev stats.StatEvent) (stats.RecordResult, error) {
					return stats.RecordResult{}, tt.err
				},
			})
			rec := do(h, http.MethodPost, "/api/addStat", `{"name":"Sam","stat":"OREB","timestamp":"9/28/2025","count":1}`, login(t, h))
			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.wantError, body["error"])
			if tt.wantDetail {
				assert.Contains(t, body["details"], "quota exceeded")
			} else {
				assert.NotContains(t, body, "details")
			}
		})
	}
}

func TestConnectionCheck(t *testing.T) {
	h := newTestRouter(t, &mockTracker{
		TestConnectionFunc: func(ctx context.Context) ([][]interface{}, error) {
			return [][]interface{}{{"Player", "Stat", "Timestamp", "Count"}}, nil
		},
	})
	rec := do(h, http.MethodGet, "/api/addStat", "", login(t, h))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["rowCount"])
}

func TestAttendanceCheckUsesClock(t *testing.T) {
	now := time.Date(2025, 9, 29, 14, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = time.Now })

	var got time.Time
	h := newTestRouter(t, &mockTracker{
		CheckAttendanceFunc: func(ctx context.Context, at time.Time) (stats.AttendanceStatus, error) {
			got = at
			return stats.AttendanceStatus{Today: "9/29/2025", Message: "Attendance available for 9/29/2025"}, nil
		},
	})
	rec := do(h, http.MethodGet, "/api/attendance-check", "", login(t, h))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, now, got)
	assert.Equal(t, "9/29/2025", decode(t, rec)["today"])
}

func TestStatRoundTrip(t *testing.T) {
	h := newTestRouter(t, newWorkbookTracker(t))
	cookie := login(t, h)

	rec := do(h, http.MethodGet, "/api/last-stat", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["hasLastEntry"])

	rec = do(h, http.MethodPost, "/api/delete-last-stat", "", cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodPost, "/api/addStat", `{"name":"Sam: 12","stat":"OREB","timestamp":"9/28/2025","count":2}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "9/28/2025", body["dateSheet"])
	assert.Equal(t, true, body["createdSheet"])

	rec = do(h, http.MethodGet, "/api/last-stat", "", cookie)
	assert.JSONEq(t, `{"hasLastEntry":true,"lastEntry":{"player":"Sam: 12","stat":"OREB","timestamp":"9/28/2025","count":"2","notes":"","rowNumber":2}}`, rec.Body.String())

	rec = do(h, http.MethodGet, "/api/cumulativeStats", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	var leaders stats.Leaders
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &leaders))
	assert.Equal(t, []stats.Leader{{Name: "Sam: 12", Count: 2}}, leaders[stats.OffRebound])

	rec = do(h, http.MethodGet, "/api/loadSheets", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"9/28/2025"`)
	assert.NotContains(t, rec.Body.String(), "RAW STAT ENTRIES")

	rec = do(h, http.MethodGet, "/api/loadPlayers", "", cookie)
	assert.JSONEq(t, `["Sam: 12"]`, rec.Body.String())

	rec = do(h, http.MethodPost, "/api/delete-last-stat", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, "Last stat entry deleted: Sam: 12 - OREB", body["message"])

	rec = do(h, http.MethodGet, "/api/last-stat", "", cookie)
	assert.Equal(t, false, decode(t, rec)["hasLastEntry"])
}

func TestAddStatValidation(t *testing.T) {
	h := newTestRouter(t, newWorkbookTracker(t))
	cookie := login(t, h)

	rec := do(h, http.MethodPost, "/api/addStat", `{"name":"Sam","stat":"OREB"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields: timestamp, count", decode(t, rec)["error"])

	rec = do(h, http.MethodPost, "/api/addStat", `not json`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceEndpoint(t *testing.T) {
	h := newTestRouter(t, newWorkbookTracker(t))
	cookie := login(t, h)
	payload := `{"date":"9/28/2025","attendance":[{"playerName":"Sam","present":true},{"playerName":"Alex","present":false}]}`

	rec := do(h, http.MethodPost, "/api/attendance", payload, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["overwritten"])
	assert.Equal(t, float64(1), body["presentCount"])
	assert.Equal(t, float64(2), body["totalCount"])

	rec = do(h, http.MethodPost, "/api/attendance", payload, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["overwritten"])

	rec = do(h, http.MethodPost, "/api/attendance", `{"date":"9/28/2025","attendance":[{"playerName":"Sam"}]}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No players marked as present", decode(t, rec)["error"])
}

func TestUnconfiguredService(t *testing.T) {
	cfg := config.Default()
	h := newTestRouter(t, stats.NewService(cfg, nil))

	rec := do(h, http.MethodGet, "/api/addStat", "", login(t, h))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "SPREADSHEET_ID")
}
