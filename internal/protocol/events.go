package protocol

// Notification names delivered to the config.Notifier.
const (
	EventStatusUpdate        = "status-update"
	EventDelegationActivated = "delegation-activated"
	EventDelegationError     = "delegation-error"
)

// StatusUpdate is the payload of an EventStatusUpdate notification.
type StatusUpdate struct {
	Phase   string  `json:"phase"`
	Message string  `json:"message"`
	Details *string `json:"details"`
}
