// Package google provides the Google Sheets values reader.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/dtorcivia/flowdash/internal/config"
)

// ErrNotConfigured is returned when no spreadsheet is set.
var ErrNotConfigured = errors.New("spreadsheet not configured")

// SheetsClient reads cell values from one spreadsheet.
type SheetsClient struct {
	config *config.SheetsConfig
	// opts replaces credential resolution when set.
	opts []option.ClientOption
}

// NewSheetsClient creates a new Sheets API client.
func NewSheetsClient(cfg *config.SheetsConfig) *SheetsClient {
	return &SheetsClient{config: cfg}
}

// newSheetsClientWithOptions builds a client with explicit client options.
func newSheetsClientWithOptions(cfg *config.SheetsConfig, opts ...option.ClientOption) *SheetsClient {
	return &SheetsClient{config: cfg, opts: opts}
}

// Configured reports whether a spreadsheet is set.
func (c *SheetsClient) Configured() bool {
	return c.config.Configured()
}

// clientOptions resolves credentials: inline JSON, then a file, then application defaults.
func (c *SheetsClient) clientOptions(ctx context.Context) ([]option.ClientOption, error) {
	if len(c.opts) > 0 {
		return c.opts, nil
	}

	var (
		creds *google.Credentials
		err   error
	)
	switch {
	case c.config.CredentialsJSON != "":
		creds, err = google.CredentialsFromJSON(ctx, []byte(c.config.CredentialsJSON), sheets.SpreadsheetsReadonlyScope)
	case c.config.CredentialsFile != "":
		var data []byte
		data, err = os.ReadFile(c.config.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsReadonlyScope)
	default:
		creds, err = google.FindDefaultCredentials(ctx, sheets.SpreadsheetsReadonlyScope)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sheets credentials: %w", err)
	}

	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

// getService returns a configured Sheets API service.
func (c *SheetsClient) getService(ctx context.Context) (*sheets.Service, error) {
	opts, err := c.clientOptions(ctx)
	if err != nil {
		return nil, err
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	return service, nil
}

// ReadRange returns the row-major values of an A1 range, header row included.
func (c *SheetsClient) ReadRange(ctx context.Context, a1Range string) ([][]any, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	service, err := c.getService(ctx)
	if err != nil {
		return nil, err
	}

	vr, err := service.Spreadsheets.Values.Get(c.config.SpreadsheetID, a1Range).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", a1Range, err)
	}

	return vr.Values, nil
}
