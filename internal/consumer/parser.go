package consumer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/domain"
)

// JSONEventParser decodes collector queue messages carrying one raw
// EventInput each and runs them through domain validation.
type JSONEventParser struct{}

// NewJSONEventParser creates a new JSON event parser
func NewJSONEventParser() *JSONEventParser {
	return &JSONEventParser{}
}

// Parse parses a JSON message body into a validated Event.
func (p *JSONEventParser) Parse(body []byte) (*domain.Event, []domain.Warning, error) {
	var input domain.EventInput
	if err := json.Unmarshal(body, &input); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}

	event, warnings, err := domain.NewEvent(&input, time.Now())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to validate event: %w", err)
	}

	return event, warnings, nil
}
