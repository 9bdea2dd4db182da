// Package sheets mirrors finalized assessment records into a Google
// Sheets spreadsheet, one row per user.
//
// The mirror is a best-effort, eventually-consistent copy for
// observability. Callers treat every failure as non-fatal: errors are
// logged and suppressed at the call site and never reach the user flow.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Mirror is the row-upsert contract keyed by user id. Both operations are
// idempotent: EnsureUserRow creates the row at most once, UpdateUserRow
// rewrites only the fields the update carries.
type Mirror interface {
	EnsureUserRow(ctx context.Context, p Profile) error
	UpdateUserRow(ctx context.Context, userID int64, u RowUpdate) error
}

// Profile is the minimal identity written when a row is first created.
type Profile struct {
	UserID   int64
	Username string
	Handle   string
	Link     string
	FullName string
	Status   string
}

// RowUpdate is an explicit partial update: nil fields keep the previously
// stored cell value, non-nil fields overwrite it.
type RowUpdate struct {
	Username             *string
	Handle               *string
	Link                 *string
	FullName             *string
	Company              *string
	Revenue              *string
	OfferOptIn           *bool
	Stage                *string
	SecondStage          *string
	Confidence           *int
	OwnerDependency      *int
	ProcessFormalization *int
	ManagementContour    *int
	StageDescription     *string
	Risks                *string
	Do                   *string
	Dont                 *string
	BookingPrefill       *string
	StageScoresJSON      *string
	RawAnswersJSON       *string
	AnswersTranscript    *string
	Status               *string
}

// Column layout, A..X. Column A is the creation timestamp, B the user id;
// both are written once at row creation and never updated.
const (
	colTimestamp = iota
	colUserID
	colUsername
	colHandle
	colLink
	colFullName
	colCompany
	colRevenue
	colOfferOptIn
	colStage
	colSecondStage
	colConfidence
	colOwnerDependency
	colProcessFormalization
	colManagementContour
	colStageDescription
	colRisks
	colDo
	colDont
	colBookingPrefill
	colStageScoresJSON
	colRawAnswersJSON
	colAnswersTranscript
	colStatus

	numColumns
)

const rowRangeFormat = "A%d:X%d"

// timeNow is injectable for deterministic timestamps in tests.
var timeNow = time.Now

// newRow builds a fresh row for a profile.
func newRow(p Profile) []interface{} {
	row := make([]interface{}, numColumns)
	for i := range row {
		row[i] = ""
	}
	row[colTimestamp] = timeNow().UTC().Format(time.RFC3339)
	row[colUserID] = strconv.FormatInt(p.UserID, 10)
	row[colUsername] = p.Username
	row[colHandle] = p.Handle
	row[colLink] = p.Link
	row[colFullName] = p.FullName
	row[colStatus] = p.Status
	return row
}

// applyUpdate merges a partial update into an existing row snapshot.
func applyUpdate(row []interface{}, u RowUpdate) {
	setStr := func(col int, v *string) {
		if v != nil {
			row[col] = *v
		}
	}
	setInt := func(col int, v *int) {
		if v != nil {
			row[col] = strconv.Itoa(*v)
		}
	}

	setStr(colUsername, u.Username)
	setStr(colHandle, u.Handle)
	setStr(colLink, u.Link)
	setStr(colFullName, u.FullName)
	setStr(colCompany, u.Company)
	setStr(colRevenue, u.Revenue)
	if u.OfferOptIn != nil {
		row[colOfferOptIn] = strconv.FormatBool(*u.OfferOptIn)
	}
	setStr(colStage, u.Stage)
	setStr(colSecondStage, u.SecondStage)
	setInt(colConfidence, u.Confidence)
	setInt(colOwnerDependency, u.OwnerDependency)
	setInt(colProcessFormalization, u.ProcessFormalization)
	setInt(colManagementContour, u.ManagementContour)
	setStr(colStageDescription, u.StageDescription)
	setStr(colRisks, u.Risks)
	setStr(colDo, u.Do)
	setStr(colDont, u.Dont)
	setStr(colBookingPrefill, u.BookingPrefill)
	setStr(colStageScoresJSON, u.StageScoresJSON)
	setStr(colRawAnswersJSON, u.RawAnswersJSON)
	setStr(colAnswersTranscript, u.AnswersTranscript)
	setStr(colStatus, u.Status)
}

// --- Google Sheets implementation ---

// SheetsMirror writes rows to a single spreadsheet via the Sheets API.
// It caches each user's 1-based row number and the last row snapshot, so
// partial updates rewrite the full row without re-reading the sheet.
type SheetsMirror struct {
	svc           *sheetsapi.Service
	spreadsheetID string

	mu       sync.Mutex
	rowIndex map[int64]int
	rows     map[int64][]interface{}
}

// New authenticates with a service-account credentials file and returns a
// mirror bound to one spreadsheet.
func New(ctx context.Context, credsPath, spreadsheetID string) (*SheetsMirror, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	return &SheetsMirror{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		rowIndex:      make(map[int64]int),
		rows:          make(map[int64][]interface{}),
	}, nil
}

// EnsureUserRow makes sure a row exists for the user, appending one if the
// sheet has none. Idempotent.
func (m *SheetsMirror) EnsureUserRow(ctx context.Context, p Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rowIndex[p.UserID]; ok {
		return nil
	}

	idx, row, err := m.findRow(ctx, p.UserID)
	if err != nil {
		return err
	}
	if idx > 0 {
		m.rowIndex[p.UserID] = idx
		m.rows[p.UserID] = row
		return nil
	}

	fresh := newRow(p)
	resp, err := m.svc.Spreadsheets.Values.Append(m.spreadsheetID, "A:X",
		&sheetsapi.ValueRange{Values: [][]interface{}{fresh}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: append row for %d: %w", p.UserID, err)
	}

	idx, err = rowFromRange(resp.Updates.UpdatedRange)
	if err != nil {
		return fmt.Errorf("sheets: locate appended row for %d: %w", p.UserID, err)
	}
	m.rowIndex[p.UserID] = idx
	m.rows[p.UserID] = fresh
	return nil
}

// UpdateUserRow merges the partial update into the user's row and writes
// it back. The row must have been ensured first; an unknown user is
// ensured implicitly from the update's identity fields.
func (m *SheetsMirror) UpdateUserRow(ctx context.Context, userID int64, u RowUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.rowIndex[userID]
	if !ok {
		found, row, err := m.findRow(ctx, userID)
		if err != nil {
			return err
		}
		if found == 0 {
			return fmt.Errorf("sheets: no row for user %d", userID)
		}
		idx = found
		m.rowIndex[userID] = idx
		m.rows[userID] = row
	}

	row := m.rows[userID]
	applyUpdate(row, u)

	rangeRef := fmt.Sprintf(rowRangeFormat, idx, idx)
	_, err := m.svc.Spreadsheets.Values.Update(m.spreadsheetID, rangeRef,
		&sheetsapi.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: update row for %d: %w", userID, err)
	}
	return nil
}

// findRow scans the user-id column for an existing row. Returns the
// 1-based row number and the row snapshot, or 0 when absent.
func (m *SheetsMirror) findRow(ctx context.Context, userID int64) (int, []interface{}, error) {
	resp, err := m.svc.Spreadsheets.Values.Get(m.spreadsheetID, "A:X").Context(ctx).Do()
	if err != nil {
		return 0, nil, fmt.Errorf("sheets: read sheet: %w", err)
	}

	want := strconv.FormatInt(userID, 10)
	for i, row := range resp.Values {
		if len(row) <= colUserID {
			continue
		}
		if cell, ok := row[colUserID].(string); ok && cell == want {
			return i + 1, normalizeRow(row), nil
		}
	}
	return 0, nil, nil
}

// normalizeRow pads a sheet row out to the full column count.
func normalizeRow(row []interface{}) []interface{} {
	if len(row) >= numColumns {
		return row[:numColumns]
	}
	full := make([]interface{}, numColumns)
	copy(full, row)
	for i := len(row); i < numColumns; i++ {
		full[i] = ""
	}
	return full
}

// rowFromRange extracts the row number from an A1-notation range like
// "Sheet1!A5:X5".
func rowFromRange(ref string) (int, error) {
	if i := strings.LastIndexByte(ref, '!'); i >= 0 {
		ref = ref[i+1:]
	}
	if i := strings.IndexByte(ref, ':'); i >= 0 {
		ref = ref[:i]
	}
	digits := strings.TrimLeft(ref, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	if digits == "" {
		return 0, fmt.Errorf("no row number in range %q", ref)
	}
	return strconv.Atoi(digits)
}
