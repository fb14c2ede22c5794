package google

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"arbdash/internal/log"
	ports "arbdash/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var _ ports.Fetcher = (*APIFetcher)(nil)

// ErrTabNotFound means the spreadsheet has no tab with the requested gid.
var ErrTabNotFound = errors.New("tab not found")

// APIFetcher reads tabs through the Sheets API with a service account and
// renders them back to CSV, so private sheets can be ingested too.
type APIFetcher struct {
	svc    *gsheet.Service
	logger *log.Logger
}

// NewAPIFetcher wraps an existing Sheets service.
func NewAPIFetcher(svc *gsheet.Service, logger *log.Logger) *APIFetcher {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &APIFetcher{svc: svc, logger: logger.WithComponent(log.ComponentSheets)}
}

// NewAPIFetcherFromEnv creates the Sheets service. An OAuth desktop client
// (GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE) with a saved token
// takes precedence; otherwise service account credentials are read from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewAPIFetcherFromEnv(ctx context.Context, logger *log.Logger) (*APIFetcher, error) {
	ts, useOAuth, err := oauthTokenSource(ctx)
	if err != nil {
		return nil, err
	}
	if useOAuth {
		svc, err := gsheet.NewService(ctx, goption.WithTokenSource(ts))
		if err != nil {
			return nil, fmt.Errorf("create sheets service: %w", err)
		}
		return NewAPIFetcher(svc, logger), nil
	}

	creds, err := serviceAccountJSON()
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewAPIFetcher(svc, logger), nil
}

// NewAPIFetcherWithEndpoint targets a custom API endpoint with a plain HTTP
// client. Used against fakes in tests.
func NewAPIFetcherWithEndpoint(ctx context.Context, endpoint string, client *http.Client) (*APIFetcher, error) {
	svc, err := gsheet.NewService(ctx,
		goption.WithEndpoint(endpoint),
		goption.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewAPIFetcher(svc, nil), nil
}

func serviceAccountJSON() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// FetchCSV resolves the gid to a tab title, reads its values and encodes
// them as CSV with formatted (locale) cell values, matching the export.
func (f *APIFetcher) FetchCSV(ctx context.Context, sheetID, tabID string) (string, error) {
	if f.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	title, err := f.tabTitle(ctx, sheetID, tabID)
	if err != nil {
		return "", err
	}
	resp, err := f.svc.Spreadsheets.Values.Get(sheetID, quoteSheetName(title)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", title, err)
	}
	f.logger.DebugContext(ctx, "Read sheet values",
		log.FieldSheetID, sheetID, log.FieldTabID, tabID, "rows", len(resp.Values))
	return toCSV(resp.Values)
}

func (f *APIFetcher) tabTitle(ctx context.Context, sheetID, tabID string) (string, error) {
	gid, err := strconv.ParseInt(tabID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid tab id %q: %w", tabID, err)
	}
	ss, err := f.svc.Spreadsheets.Get(sheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get spreadsheet %s: %w", sheetID, err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.SheetId == gid {
			return sh.Properties.Title, nil
		}
	}
	return "", fmt.Errorf("%w: gid %s", ErrTabNotFound, tabID)
}

func quoteSheetName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func toCSV(values [][]interface{}) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	for _, row := range values {
		if err := w.Write(toStrings(row)); err != nil {
			return "", fmt.Errorf("encode csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("encode csv: %w", err)
	}
	return b.String(), nil
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}
