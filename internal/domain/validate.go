package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Warning records an identifier that did not match the canonical format and
// was substituted with a freshly generated one instead of being rejected.
// The raw value is kept so reconciliation tooling can locate orphans.
type Warning struct {
	Field      string
	Raw        string
	Substitute string
}

func (w Warning) String() string {
	return fmt.Sprintf("field %q: replaced non-canonical value %q with %q", w.Field, w.Raw, w.Substitute)
}

// NewEvent validates raw input and produces a canonical Event. Required
// fields missing from the input fail with a ValidationError; identifiers
// that are present but non-canonical are substituted with fresh ones and
// reported as warnings rather than rejected.
func NewEvent(in *EventInput, now time.Time) (*Event, []Warning, error) {
	if in.WebsiteID == "" {
		return nil, nil, NewMissingField("website_id")
	}
	if in.VisitorID == "" {
		return nil, nil, NewMissingField("visitor_id")
	}
	if in.SessionID == "" {
		return nil, nil, NewMissingField("session_id")
	}
	if in.EventType == "" {
		return nil, nil, NewMissingField("event_type")
	}

	eventTime := now.UTC()
	if in.Timestamp > 0 {
		eventTime = time.UnixMilli(in.Timestamp).UTC()
	}

	var warnings []Warning
	coerce := func(field, raw string) string {
		if IsCanonicalID(raw) {
			return strings.ToLower(raw)
		}
		sub := uuid.NewString()
		warnings = append(warnings, Warning{Field: field, Raw: raw, Substitute: sub})
		return sub
	}

	e := &Event{
		EventID:     uuid.NewString(),
		WebsiteID:   coerce("website_id", in.WebsiteID),
		VisitorID:   coerce("visitor_id", in.VisitorID),
		SessionID:   coerce("session_id", in.SessionID),
		EventDate:   Day(eventTime),
		EventTime:   eventTime,
		EventType:   in.EventType,
		EventName:   in.EventName,
		PageURL:     in.PageURL,
		PagePath:    in.PagePath,
		PageTitle:   in.PageTitle,
		Referrer:    in.Referrer,
		Screen:      in.Screen,
		Language:    in.Language,
		Country:     in.Country,
		City:        in.City,
		UTMSource:   in.UTMSource,
		UTMMedium:   in.UTMMedium,
		UTMCampaign: in.UTMCampaign,
		UTMContent:  in.UTMContent,
		UTMTerm:     in.UTMTerm,
		Properties:  NormalizeProperties(in.Properties),
	}

	// Anonymous visitors carry no user id; a present but non-canonical one
	// is coerced like the other identifiers.
	if in.UserID != "" {
		e.UserID = coerce("user_id", in.UserID)
	}

	if e.EventName == "" {
		e.EventName = e.EventType
	}

	if in.UserAgent != "" {
		e.Browser = ClassifyBrowser(in.UserAgent)
		e.OS = ClassifyOS(in.UserAgent)
		e.Device = ClassifyDevice(in.UserAgent)
	}

	return e, warnings, nil
}

// IsCanonicalID reports whether s is a UUID in the canonical 36-character
// hyphenated form. Variant forms accepted by uuid.Parse (braces, URN,
// undashed) are not canonical here.
func IsCanonicalID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// NormalizeProperties decodes an open key/value bag into a string-keyed,
// string-valued map. Input that is not a JSON object is discarded to an
// empty map; this never fails.
func NormalizeProperties(raw json.RawMessage) map[string]string {
	props := map[string]string{}
	if len(raw) == 0 {
		return props
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return props
	}

	for k, v := range decoded {
		switch val := v.(type) {
		case string:
			props[k] = val
		case float64:
			props[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			props[k] = strconv.FormatBool(val)
		case nil:
			props[k] = ""
		default:
			// Nested objects and arrays are kept as their JSON encoding.
			encoded, err := json.Marshal(val)
			if err != nil {
				continue
			}
			props[k] = string(encoded)
		}
	}

	return props
}
