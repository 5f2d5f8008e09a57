package mq

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ActivityKind names a club activity. It doubles as the broker topic.
type ActivityKind string

const (
	ActivityClubCreated    ActivityKind = "club.created"
	ActivityMemberAdded    ActivityKind = "club.member_added"
	ActivityAdminAdded     ActivityKind = "club.admin_added"
	ActivityPostPublished  ActivityKind = "club.post_published"
	ActivityEventScheduled ActivityKind = "club.event_scheduled"
)

// ActivityKinds lists every kind published by the server.
var ActivityKinds = []ActivityKind{
	ActivityClubCreated,
	ActivityMemberAdded,
	ActivityAdminAdded,
	ActivityPostPublished,
	ActivityEventScheduled,
}

// Activity is a notification that something happened in a club.
type Activity struct {
	Kind    ActivityKind `json:"kind"`
	ClubID  int          `json:"club_id"`
	ActorID int          `json:"actor_id"`
	// SubjectID is the member, post or event the activity is about.
	SubjectID  int       `json:"subject_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// encodeActivity orders messages per club so consumers see a club's
// history in sequence.
func encodeActivity(a Activity) (Outgoing, error) {
	if a.Kind == "" {
		return Outgoing{}, errors.New("activity kind is required")
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(a)
	if err != nil {
		return Outgoing{}, fmt.Errorf("encode activity: %w", err)
	}
	clubID := strconv.Itoa(a.ClubID)
	return Outgoing{
		Body: body,
		Attributes: map[string]string{
			"kind":    string(a.Kind),
			"club_id": clubID,
		},
		OrderingKey: "club-" + clubID,
	}, nil
}

// DecodeActivity parses a delivery produced by PublishActivity.
func DecodeActivity(d Delivery) (Activity, error) {
	var a Activity
	if err := json.Unmarshal(d.Body, &a); err != nil {
		return Activity{}, fmt.Errorf("decode activity %s: %w", d.ID, err)
	}
	return a, nil
}
