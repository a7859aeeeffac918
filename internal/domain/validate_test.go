package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	testWebsiteID = "6b1e2f3a-4c5d-4e6f-8a9b-0c1d2e3f4a5b"
	testVisitorID = "7c2f3a4b-5d6e-4f70-9b0c-1d2e3f4a5b6c"
	testSessionID = "8d3a4b5c-6e7f-4081-ac1d-2e3f4a5b6c7d"
	testNow       = time.Date(2025, 8, 30, 23, 45, 12, 0, time.UTC)
)

func validInput() *EventInput {
	return &EventInput{
		WebsiteID: testWebsiteID,
		VisitorID: testVisitorID,
		SessionID: testSessionID,
		EventType: "pageview",
	}
}

func TestNewEvent_Success(t *testing.T) {
	event, warnings, err := NewEvent(validInput(), testNow)

	assert.NoError(t, err)
	assert.Empty(t, warnings)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, testWebsiteID, event.WebsiteID)
	assert.Equal(t, testVisitorID, event.VisitorID)
	assert.Equal(t, testSessionID, event.SessionID)
	assert.Equal(t, "pageview", event.EventType)
	// Event name defaults to the type when absent.
	assert.Equal(t, "pageview", event.EventName)
	assert.Equal(t, testNow, event.EventTime)
}

func TestNewEvent_MissingRequiredFields(t *testing.T) {
	cases := []struct {
		field  string
		mutate func(*EventInput)
	}{
		{"website_id", func(in *EventInput) { in.WebsiteID = "" }},
		{"visitor_id", func(in *EventInput) { in.VisitorID = "" }},
		{"session_id", func(in *EventInput) { in.SessionID = "" }},
		{"event_type", func(in *EventInput) { in.EventType = "" }},
	}

	for _, tc := range cases {
		in := validInput()
		tc.mutate(in)

		event, _, err := NewEvent(in, testNow)

		assert.Nil(t, event)
		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
		assert.Equal(t, tc.field, validationErr.Field)
	}
}

func TestNewEvent_CoercesNonCanonicalIdentifier(t *testing.T) {
	in := validInput()
	in.VisitorID = "visitor-42"

	event, warnings, err := NewEvent(in, testNow)

	assert.NoError(t, err)
	assert.Len(t, warnings, 1)
	assert.Equal(t, "visitor_id", warnings[0].Field)
	assert.Equal(t, "visitor-42", warnings[0].Raw)
	assert.Equal(t, warnings[0].Substitute, event.VisitorID)
	assert.NotEqual(t, "visitor-42", event.VisitorID)
	assert.True(t, IsCanonicalID(event.VisitorID))
}

func TestNewEvent_AnonymousUserStaysEmpty(t *testing.T) {
	event, warnings, err := NewEvent(validInput(), testNow)

	assert.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Empty(t, event.UserID)
}

func TestNewEvent_MalformedUserIDCoerced(t *testing.T) {
	in := validInput()
	in.UserID = "user-99"

	event, warnings, err := NewEvent(in, testNow)

	assert.NoError(t, err)
	assert.Len(t, warnings, 1)
	assert.Equal(t, "user_id", warnings[0].Field)
	assert.True(t, IsCanonicalID(event.UserID))
}

func TestNewEvent_EventDateDerivedUTC(t *testing.T) {
	in := validInput()
	// 23:45 UTC on Aug 30; the calendar day must be Aug 30 regardless of
	// any local zone.
	in.Timestamp = testNow.UnixMilli()

	event, _, err := NewEvent(in, time.Now())

	assert.NoError(t, err)
	assert.Equal(t, time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC), event.EventDate)
	assert.Equal(t, testNow, event.EventTime)
}

func TestNewEvent_ServerAssignsEventTime(t *testing.T) {
	event, _, err := NewEvent(validInput(), testNow)

	assert.NoError(t, err)
	assert.Equal(t, testNow, event.EventTime)
	assert.Equal(t, Day(testNow), event.EventDate)
}

func TestNewEvent_ClassifiesUserAgent(t *testing.T) {
	in := validInput()
	in.UserAgent = edgeUA

	event, _, err := NewEvent(in, testNow)

	assert.NoError(t, err)
	assert.Equal(t, "Microsoft Edge", event.Browser)
	assert.Equal(t, "Windows", event.OS)
	assert.Equal(t, "desktop", event.Device)
}

func TestNormalizeProperties_Object(t *testing.T) {
	props := NormalizeProperties(json.RawMessage(`{"plan":"pro","seats":12,"trial":false,"note":null}`))

	assert.Equal(t, "pro", props["plan"])
	assert.Equal(t, "12", props["seats"])
	assert.Equal(t, "false", props["trial"])
	assert.Equal(t, "", props["note"])
}

func TestNormalizeProperties_NestedKeptAsJSON(t *testing.T) {
	props := NormalizeProperties(json.RawMessage(`{"cart":{"items":2}}`))

	assert.JSONEq(t, `{"items":2}`, props["cart"])
}

func TestNormalizeProperties_NonObjectDiscarded(t *testing.T) {
	assert.Empty(t, NormalizeProperties(json.RawMessage(`[1,2,3]`)))
	assert.Empty(t, NormalizeProperties(json.RawMessage(`"just a string"`)))
	assert.Empty(t, NormalizeProperties(json.RawMessage(`not json at all`)))
	assert.Empty(t, NormalizeProperties(nil))
}

func TestIsCanonicalID(t *testing.T) {
	assert.True(t, IsCanonicalID(testWebsiteID))
	assert.False(t, IsCanonicalID(""))
	assert.False(t, IsCanonicalID("visitor-42"))
	// Undashed and braced variants parse as UUIDs but are not canonical.
	assert.False(t, IsCanonicalID("6b1e2f3a4c5d4e6f8a9b0c1d2e3f4a5b"))
	assert.False(t, IsCanonicalID("{6b1e2f3a-4c5d-4e6f-8a9b-0c1d2e3f4a5b}"))
}
