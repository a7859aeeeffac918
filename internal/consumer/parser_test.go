package consumer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONEventParser_Parse_Valid(t *testing.T) {
	parser := NewJSONEventParser()

	body := []byte(`{
		"website_id": "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d",
		"visitor_id": "b2c3d4e5-f6a7-4b8c-9d0e-1f2a3b4c5d6e",
		"session_id": "c3d4e5f6-a7b8-4c9d-0e1f-2a3b4c5d6e7f",
		"event_type": "pageview",
		"page_url": "https://shop.example/pricing"
	}`)

	event, warnings, err := parser.Parse(body)

	assert.NoError(t, err)
	assert.Empty(t, warnings)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "pageview", event.EventType)
	assert.Equal(t, "https://shop.example/pricing", event.PageURL)
}

func TestJSONEventParser_Parse_InvalidJSON(t *testing.T) {
	parser := NewJSONEventParser()

	event, warnings, err := parser.Parse([]byte(`{not json`))

	assert.Error(t, err)
	assert.Nil(t, event)
	assert.Empty(t, warnings)
	assert.Contains(t, err.Error(), "failed to unmarshal")
}

func TestJSONEventParser_Parse_MissingRequiredField(t *testing.T) {
	parser := NewJSONEventParser()

	body := []byte(`{
		"website_id": "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d",
		"visitor_id": "b2c3d4e5-f6a7-4b8c-9d0e-1f2a3b4c5d6e",
		"session_id": "c3d4e5f6-a7b8-4c9d-0e1f-2a3b4c5d6e7f"
	}`)

	event, _, err := parser.Parse(body)

	assert.Error(t, err)
	assert.Nil(t, event)
	assert.Contains(t, err.Error(), "event_type")
}

func TestJSONEventParser_Parse_CoercedIdentifier(t *testing.T) {
	parser := NewJSONEventParser()

	body := []byte(`{
		"website_id": "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d",
		"visitor_id": "visitor-from-old-tracker",
		"session_id": "c3d4e5f6-a7b8-4c9d-0e1f-2a3b4c5d6e7f",
		"event_type": "click"
	}`)

	event, warnings, err := parser.Parse(body)

	assert.NoError(t, err)
	assert.NotNil(t, event)
	assert.Len(t, warnings, 1)
	assert.Equal(t, "visitor_id", warnings[0].Field)
	assert.Equal(t, "visitor-from-old-tracker", warnings[0].Raw)
	assert.NotEqual(t, "visitor-from-old-tracker", event.VisitorID)
}
