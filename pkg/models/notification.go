package models

// ResourceStateSync is the handshake state sent when a drive channel is
// created. It never describes a content change.
const ResourceStateSync = "sync"

// Notification is an inbound drive change notification.
type Notification struct {
	ResourceID    string `json:"resource_id"`
	ResourceState string `json:"resource_state"`
	ChannelID     string `json:"channel_id,omitempty"`
	MessageNumber string `json:"message_number,omitempty"`
}

// IsHandshake reports whether the notification only confirms a channel.
func (n Notification) IsHandshake() bool {
	return n.ResourceState == ResourceStateSync
}
