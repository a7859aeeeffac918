package consumer

import (
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/domain"
)

// MessageParser defines the interface for turning raw message bytes into a
// validated event. Warnings carry identifier coercions for logging.
type MessageParser interface {
	Parse(body []byte) (*domain.Event, []domain.Warning, error)
}
