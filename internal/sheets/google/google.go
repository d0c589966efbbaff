// Package google adapts the Google Sheets v4 API to the sheets.RowStore port.
//
// Every call carries a timeout and a bounded retry with backoff; transport
// failures surface as core.ErrStoreUnavailable so callers never see raw
// googleapi errors.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"expenseportal/internal/core"
	ports "expenseportal/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc *gsheet.Service

	callTimeout time.Duration
	maxRetries  int
	backoff     time.Duration
}

// Ensure interface conformance
var _ ports.RowStore = (*Client)(nil)

// NewFromEnv creates a Sheets client from Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:         svc,
		callTimeout: 15 * time.Second,
		maxRetries:  3,
		backoff:     250 * time.Millisecond,
	}, nil
}

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
	return service, nil
}

func (c *Client) GetRange(ctx context.Context, sheetID, rangeSpec string) ([][]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	var rows [][]string
	err := c.withRetry(ctx, "get", func(ctx context.Context) error {
		resp, err := c.svc.Spreadsheets.Values.Get(sheetID, rangeSpec).Context(ctx).Do()
		if err != nil {
			return err
		}
		rows = make([][]string, 0, len(resp.Values))
		for _, row := range resp.Values {
			rows = append(rows, toStrings(row))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s!%s: %w: %v", sheetID, rangeSpec, core.ErrStoreUnavailable, err)
	}
	return rows, nil
}

func (c *Client) AppendRows(ctx context.Context, sheetID, rangeSpec string, rows [][]string) (int, error) {
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}
	vr := &gsheet.ValueRange{Values: toAnyRows(rows)}
	var startRow int
	err := c.withRetry(ctx, "append", func(ctx context.Context) error {
		resp, err := c.svc.Spreadsheets.Values.Append(sheetID, rangeSpec, vr).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			return err
		}
		if resp.Updates == nil {
			return errors.New("append response missing updates")
		}
		startRow, err = parseStartRow(resp.Updates.UpdatedRange)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("append %s!%s: %w: %v", sheetID, rangeSpec, core.ErrStoreUnavailable, err)
	}
	return startRow, nil
}

func (c *Client) UpdateCell(ctx context.Context, sheetID, cellRef, value string) error {
	return c.UpdateRange(ctx, sheetID, cellRef, [][]string{{value}})
}

func (c *Client) UpdateRange(ctx context.Context, sheetID, rangeSpec string, rows [][]string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	vr := &gsheet.ValueRange{Values: toAnyRows(rows)}
	err := c.withRetry(ctx, "update", func(ctx context.Context) error {
		_, err := c.svc.Spreadsheets.Values.Update(sheetID, rangeSpec, vr).
			ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("update %s!%s: %w: %v", sheetID, rangeSpec, core.ErrStoreUnavailable, err)
	}
	return nil
}

// withRetry runs op with a per-attempt timeout and doubling backoff.
// Context cancellation stops retries immediately.
func (c *Client) withRetry(ctx context.Context, name string, op func(context.Context) error) error {
	var lastErr error
	delay := c.backoff
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		cctx, cancel := context.WithTimeout(ctx, c.callTimeout)
		lastErr = op(cctx)
		cancel()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		if attempt < c.maxRetries {
			slog.WarnContext(ctx, "Sheets call failed, retrying",
				"op", name, "attempt", attempt, "backoff", delay, "error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return lastErr
			}
			delay *= 2
		}
	}
	return lastErr
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func toAnyRows(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}
