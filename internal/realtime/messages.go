package realtime

import (
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/domain"
)

// Client to server message types.
const (
	TypeSubscribeWebsite   = "subscribe_website"
	TypeUnsubscribeWebsite = "unsubscribe_website"
)

// Server to client message types.
const (
	TypeSubscriptionSuccess   = "subscription_success"
	TypeSubscriptionError     = "subscription_error"
	TypeUnsubscriptionSuccess = "unsubscription_success"
	TypeNewEvent              = "new_event"
)

// InboundMessage is a client request over the realtime connection.
type InboundMessage struct {
	Type      string `json:"type"`
	WebsiteID string `json:"website_id"`
}

// OutboundMessage is a server notification over the realtime connection.
type OutboundMessage struct {
	Type      string        `json:"type"`
	WebsiteID string        `json:"website_id,omitempty"`
	Message   string        `json:"message,omitempty"`
	Event     *domain.Event `json:"event,omitempty"`
}
