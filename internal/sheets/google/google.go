package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"despesas/internal/core"
	ports "despesas/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.LedgerMirror = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "Transactions").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Transactions"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "sheet", os.Getenv("GOOGLE_SHEET_NAME"))
	return service, nil
}

// UpsertRow writes the master as one row keyed by id in column A. An existing
// row is updated in place; otherwise a new row is appended.
func (c *Client) UpsertRow(ctx context.Context, m core.MasterTransaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row, err := c.findRow(ctx, m.ID)
	if err != nil {
		return err
	}

	values := &gsheet.ValueRange{Values: [][]any{masterRow(m)}}

	if row == 0 {
		appendRange := fmt.Sprintf("%s!A:M", c.sheetName)
		_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, appendRange, values).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("append row for %s: %w", m.ID, err)
		}
		return nil
	}

	updateRange := fmt.Sprintf("%s!A%d:M%d", c.sheetName, row, row)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, updateRange, values).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update row %d for %s: %w", row, m.ID, err)
	}
	return nil
}

// DeleteRow clears the row holding the given id. Missing ids are a no-op so
// delete events stay idempotent under redelivery.
func (c *Client) DeleteRow(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}
	if row == 0 {
		slog.WarnContext(ctx, "No sheet row to delete", "master_id", id)
		return nil
	}

	clearRange := fmt.Sprintf("%s!A%d:M%d", c.sheetName, row, row)
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear row %d for %s: %w", row, id, err)
	}
	return nil
}

// findRow returns the 1-based row holding the id in column A, 0 when absent.
func (c *Client) findRow(ctx context.Context, id string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read id column: %w", err)
	}
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1, nil
		}
	}
	return 0, nil
}

func masterRow(m core.MasterTransaction) []any {
	paidMonths := make([]string, 0, len(m.PaidOccurrences))
	for key := range m.PaidOccurrences {
		paidMonths = append(paidMonths, key)
	}
	sort.Strings(paidMonths)

	return []any{
		m.ID,
		m.Description,
		m.Category,
		string(m.Type),
		string(m.Frequency),
		m.Amount.String(),
		m.AnchorDate.String(),
		m.EndDate.String(),
		m.TotalAmount.String(),
		m.TotalInstallments,
		m.InstallmentGroupID,
		string(m.Status),
		strings.Join(paidMonths, ","),
	}
}
