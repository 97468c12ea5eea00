package sheets

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetClient is a Store backed by the Google Sheets API. Every call goes
// straight to the API; there are no retries.
type SheetClient struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewSheetClient creates a client for one spreadsheet. Credentials are
// passed in as client options, see CredentialsFile and CredentialsJSON.
func NewSheetClient(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*SheetClient, error) {
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsScope))
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets client: %w", err)
	}
	return &SheetClient{
		service:       srv,
		spreadsheetID: spreadsheetID,
	}, nil
}

// CredentialsFile loads service account credentials from a JSON key file.
func CredentialsFile(path string) option.ClientOption {
	return option.WithCredentialsFile(path)
}

// CredentialsJSON uses service account credentials held in memory.
func CredentialsJSON(data []byte) option.ClientOption {
	return option.WithCredentialsJSON(data)
}

func (s *SheetClient) ListSheets(ctx context.Context) ([]SheetInfo, error) {
	ss, err := s.service.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).Do()
	if err != nil {
		return nil, wrapError("list sheets", err)
	}
	list := make([]SheetInfo, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties == nil {
			continue
		}
		list = append(list, SheetInfo{ID: sh.Properties.SheetId, Title: sh.Properties.Title})
	}
	return list, nil
}

func (s *SheetClient) GetValues(ctx context.Context, rng string) ([][]interface{}, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, wrapError("get "+rng, err)
	}
	return resp.Values, nil
}

func (s *SheetClient) AppendValues(ctx context.Context, rng string, rows [][]interface{}, input ValueInput) error {
	_, err := s.service.Spreadsheets.Values.Append(
		s.spreadsheetID,
		rng,
		&sheets.ValueRange{Values: rows},
	).ValueInputOption(string(input)).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return wrapError("append "+rng, err)
	}
	log.Debugf("appended %d rows to %s", len(rows), rng)
	return nil
}

func (s *SheetClient) UpdateValues(ctx context.Context, rng string, rows [][]interface{}, input ValueInput) error {
	_, err := s.service.Spreadsheets.Values.Update(
		s.spreadsheetID,
		rng,
		&sheets.ValueRange{Values: rows},
	).ValueInputOption(string(input)).Context(ctx).Do()
	if err != nil {
		return wrapError("update "+rng, err)
	}
	return nil
}

func (s *SheetClient) AddSheet(ctx context.Context, title string) (SheetInfo, error) {
	resp, err := s.batchUpdate(ctx, &sheets.Request{
		AddSheet: &sheets.AddSheetRequest{
			Properties: &sheets.SheetProperties{
				Title: title,
			},
		},
	})
	if err != nil {
		return SheetInfo{}, wrapError("add sheet "+title, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return SheetInfo{}, &Error{Op: "add sheet " + title, Err: errors.New("empty reply")}
	}
	props := resp.Replies[0].AddSheet.Properties
	return SheetInfo{ID: props.SheetId, Title: props.Title}, nil
}

func (s *SheetClient) DuplicateSheet(ctx context.Context, sourceID int64, title string) (SheetInfo, error) {
	resp, err := s.batchUpdate(ctx, &sheets.Request{
		DuplicateSheet: &sheets.DuplicateSheetRequest{
			SourceSheetId:   sourceID,
			NewSheetName:    title,
			ForceSendFields: []string{"SourceSheetId"},
		},
	})
	if err != nil {
		return SheetInfo{}, wrapError("duplicate sheet as "+title, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].DuplicateSheet == nil {
		return SheetInfo{}, &Error{Op: "duplicate sheet as " + title, Err: errors.New("empty reply")}
	}
	props := resp.Replies[0].DuplicateSheet.Properties
	return SheetInfo{ID: props.SheetId, Title: props.Title}, nil
}

func (s *SheetClient) DeleteRows(ctx context.Context, sheetID int64, start, end int64) error {
	_, err := s.batchUpdate(ctx, &sheets.Request{
		DeleteDimension: &sheets.DeleteDimensionRequest{
			Range: &sheets.DimensionRange{
				SheetId:         sheetID,
				Dimension:       "ROWS",
				StartIndex:      start,
				EndIndex:        end,
				ForceSendFields: []string{"SheetId", "StartIndex"},
			},
		},
	})
	if err != nil {
		return wrapError(fmt.Sprintf("delete rows %d-%d", start, end), err)
	}
	return nil
}

func (s *SheetClient) batchUpdate(ctx context.Context, reqs ...*sheets.Request) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	return s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: reqs,
	}).Context(ctx).Do()
}

func wrapError(op string, err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		msg := gErr.Message
		if msg == "" {
			msg = gErr.Error()
		}
		return &Error{Op: op, Code: gErr.Code, Err: errors.New(msg)}
	}
	return &Error{Op: op, Err: err}
}
