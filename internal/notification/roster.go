package notification

import (
	"context"

	"github.com/BEASTY2K3/marathon-registration/internal/models"
)

type rosterAppender interface {
	AppendParticipant(ctx context.Context, p models.Participant) error
}

// RosterRecorder appends registrations to the organizers' spreadsheet
type RosterRecorder struct {
	roster rosterAppender
}

func NewRosterRecorder(roster rosterAppender) *RosterRecorder {
	return &RosterRecorder{roster: roster}
}

func (r *RosterRecorder) Channel() string { return "roster" }

func (r *RosterRecorder) Notify(ctx context.Context, p models.Participant) error {
	return r.roster.AppendParticipant(ctx, p)
}
