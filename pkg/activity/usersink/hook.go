// Package usersink forwards script activity events to a go-users ActivitySink.
package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-scriptsave/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook is an activity.ActivityHook writing to Sink. Actor and Tenant are used
// for events without parsable IDs of their own, such as host-triggered loads.
type Hook struct {
	Sink   usertypes.ActivitySink
	Actor  uuid.UUID
	Tenant uuid.UUID
}

var _ activity.ActivityHook = Hook{}

func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	record, ok := h.toRecord(activity.NormalizeEvent(event))
	if !ok {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, record)
}

func (h Hook) toRecord(event activity.Event) (usertypes.ActivityRecord, bool) {
	if event.Verb == "" || event.ObjectType == "" || event.ObjectID == "" {
		return usertypes.ActivityRecord{}, false
	}
	actor := idOr(event.ActorID, h.Actor)
	return usertypes.ActivityRecord{
		ActorID:    actor,
		UserID:     idOr(event.UserID, actor),
		TenantID:   idOr(event.TenantID, h.Tenant),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       event.Metadata,
		OccurredAt: event.OccurredAt,
	}, true
}

// idOr parses raw, returning fallback when it is empty or not a UUID.
func idOr(raw string, fallback uuid.UUID) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return id
}
