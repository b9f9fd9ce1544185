package contract

// Inbound event names (client -> relay).
const (
	EventRegister       = "register"
	EventUserMessage    = "userMessage"
	EventAdminMessage   = "adminMessage"
	EventDeliveredAck   = "deliveredAck"
	EventSeenAck        = "seenAck"
	EventCheckOnline    = "checkOnline"
	EventGetAdminStatus = "getAdminStatus"
	EventGetUsers       = "getUsers"
)

// Outbound event names (relay -> client).
const (
	EventUserOnline       = "userOnline"
	EventUserOffline      = "userOffline"
	EventMessageSentAck   = "messageSentAck"
	EventReceiveMessage   = "receiveMessage"
	EventMessageDelivered = "messageDelivered"
	EventMessageSeen      = "messageSeen"
	EventOnlineStatus     = "onlineStatus"
	EventAdminStatus      = "adminStatus"
	EventUsersList        = "usersList"
)
