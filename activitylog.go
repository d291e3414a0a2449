package biocard

import (
	"context"
	"time"
)

const (
	ActivitySessionCreated = "session_created"
	ActivityProfileSaved   = "profile_saved"
	ActivityProfileDeleted = "profile_deleted"
	ActivityPasswordReset  = "password_reset"
)

type Activity struct {
	Name string
	Data map[string]interface{}
}

type ActivityLog struct {
	Id        int64
	CreatedAt time.Time
	UserId    UserId
	Name      string
	Data      map[string]interface{}
}

type ActivityStore interface {
	AddLog(ctx context.Context, userId UserId, activity Activity) error

	// Most recent logs first.
	ByUserId(ctx context.Context, userId UserId) ([]ActivityLog, error)
}
