package domain

import "time"

// Типы событий журнала заказа.
const (
	TimelineCreated        = "created"
	TimelineConfirmed      = "confirmed"
	TimelinePrinted        = "printed"
	TimelineCancelled      = "cancelled"
	TimelineStatusOverride = "status_override"
	TimelineAnnounceFailed = "announce_failed"
	TimelineAnnounced      = "announced"
)

// TimelineEvent описывает событие в жизненном цикле заказа.
type TimelineEvent struct {
	OrderID  int64
	Type     string
	Actor    int64
	Reason   string
	Occurred time.Time
}
