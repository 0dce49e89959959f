package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spendlog/internal/store"
)

// maxCellChars is the Sheets limit for a single cell.
const maxCellChars = 50000

var ErrValueTooLarge = errors.New("value exceeds the 50000 character limit of a sheet cell")

// Options configures the Sheets-backed store.
type Options struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Store keeps one key per row: column A holds the key, B the serialized
// value and C the time of the last write.
type Store struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

// Ensure interface conformance
var (
	_ store.KV     = (*Store)(nil)
	_ store.Pinger = (*Store)(nil)
)

// New creates a Sheets store authenticated with a service account.
func New(ctx context.Context, opts Options) (*Store, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(opts.SheetName)
	if sheet == "" {
		sheet = "Ledger"
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Store{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when no JSON or file is configured.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(opts.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(opts.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.DebugContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if s.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:B", s.sheet)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	_, value, ok := findKeyRow(resp.Values, key)
	if !ok {
		return nil, store.ErrNotFound
	}
	return []byte(value), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if len(value) > maxCellChars {
		return fmt.Errorf("set %s: %w", key, ErrValueTooLarge)
	}
	if s.svc == nil {
		return errors.New("sheets service not initialized")
	}

	keysRange := fmt.Sprintf("%s!A:A", s.sheet)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, keysRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", keysRange, err)
	}

	row := []any{key, string(value), time.Now().UTC().Format(time.RFC3339)}
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	if n, _, ok := findKeyRow(resp.Values, key); ok {
		rng := fmt.Sprintf("%s!A%d:C%d", s.sheet, n, n)
		_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
		return nil
	}

	rng := fmt.Sprintf("%s!A:C", s.sheet)
	_, err = s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append %s: %w", rng, err)
	}
	return nil
}

// Ping checks that the spreadsheet is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.svc == nil {
		return errors.New("sheets service not initialized")
	}
	_, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	return err
}
