package domain

import "time"

type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

type Notification struct {
	Kind    NotificationKind
	Message string
	At      time.Time
}
