// Package domain contains core concepts of the realtime layer.
// No runtime, network, or storage logic should be added here.
package domain

// GroupName identifies a broadcast group.
type GroupName string

const (
	CommentsGroup      GroupName = "comments_room"
	NotificationsGroup GroupName = "notifications_room"
	MessagesGroup      GroupName = "messages_room"
)

// Groups lists every group served by the process.
func Groups() []GroupName {
	return []GroupName{CommentsGroup, NotificationsGroup, MessagesGroup}
}
