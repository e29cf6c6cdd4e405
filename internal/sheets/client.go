// Package sheets mirrors registered participants into a Google Sheet for the organizers.
package sheets

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/BEASTY2K3/marathon-registration/internal/models"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

// SheetParticipants is the tab participants are appended to
const SheetParticipants = "Participants"

type Client struct {
	srv           *sheetsv4.Service
	spreadsheetID string
}

func New(ctx context.Context, serviceAccountJSONPath, spreadsheetID string) (*Client, error) {
	if _, err := os.Stat(serviceAccountJSONPath); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	srv, err := sheetsv4.NewService(ctx,
		option.WithCredentialsFile(serviceAccountJSONPath),
		option.WithScopes(sheetsv4.SpreadsheetsScope),
	)
	if err != nil {
		return nil, err
	}
	return &Client{srv: srv, spreadsheetID: spreadsheetID}, nil
}

// AppendParticipant adds one roster row
func (c *Client) AppendParticipant(ctx context.Context, p models.Participant) error {
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{ParticipantRow(p)}}
	_, err := c.srv.Spreadsheets.Values.Append(c.spreadsheetID, SheetParticipants+"!A:I", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append roster row: %w", err)
	}
	return nil
}

// ParticipantRow lays out a participant in roster column order:
// chest number, name, email, phone, age, gender, category, payment id, registered at.
func ParticipantRow(p models.Participant) []interface{} {
	return []interface{}{
		p.ChestNumber,
		p.Name,
		p.Email,
		p.Phone,
		p.Age,
		p.Gender,
		p.Category,
		p.PaymentID,
		p.CreatedAt.UTC().Format(time.RFC3339),
	}
}
