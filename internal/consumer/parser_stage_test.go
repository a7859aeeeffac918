package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/domain"
)

// MockMessageParser is a mock implementation of MessageParser
type MockMessageParser struct {
	mock.Mock
}

func (m *MockMessageParser) Parse(body []byte) (*domain.Event, []domain.Warning, error) {
	args := m.Called(body)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var warnings []domain.Warning
	if args.Get(1) != nil {
		warnings = args.Get(1).([]domain.Warning)
	}
	return args.Get(0).(*domain.Event), warnings, args.Error(2)
}

func TestParserStage_Start_Success(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockParser := new(MockMessageParser)
	log := zap.NewNop()

	parserStage := NewParserStage(mockConsumer, mockParser, log)

	mockConsumer.On("QueueURL").Return("https://sqs.eu-central-1.amazonaws.com/123/collector-queue")
	mockConsumer.On("DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput")).
		Return(&sqs.DeleteMessageOutput{}, nil).Maybe()

	message := types.Message{
		MessageId:     aws.String("msg-1"),
		Body:          aws.String(`{"website_id": "w1"}`),
		ReceiptHandle: aws.String("receipt-1"),
	}

	event := &domain.Event{
		EventID:   "evt-1",
		WebsiteID: "w1",
		EventType: "pageview",
	}

	mockParser.On("Parse", []byte(`{"website_id": "w1"}`)).Return(event, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan types.Message, 1)
	out := make(chan *Envelope, 1)

	go parserStage.Start(ctx, in, out)

	in <- message
	close(in)

	envelope := <-out

	assert.NotNil(t, envelope)
	assert.Equal(t, "evt-1", envelope.Event.EventID)
	assert.Equal(t, "pageview", envelope.Event.EventType)

	mockParser.AssertExpectations(t)
}

func TestParserStage_Start_CoercionWarningsStillDeliver(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockParser := new(MockMessageParser)
	log := zap.NewNop()

	parserStage := NewParserStage(mockConsumer, mockParser, log)

	mockConsumer.On("QueueURL").Return("https://sqs.eu-central-1.amazonaws.com/123/collector-queue")

	message := types.Message{
		MessageId:     aws.String("msg-1"),
		Body:          aws.String(`{"website_id": "w1", "visitor_id": "not-a-uuid"}`),
		ReceiptHandle: aws.String("receipt-1"),
	}

	event := &domain.Event{EventID: "evt-1", WebsiteID: "w1"}
	warnings := []domain.Warning{
		{Field: "visitor_id", Raw: "not-a-uuid", Substitute: "0f0e0d0c-0b0a-4998-8776-655443322110"},
	}

	mockParser.On("Parse", mock.Anything).Return(event, warnings, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan types.Message, 1)
	out := make(chan *Envelope, 1)

	go parserStage.Start(ctx, in, out)

	in <- message
	close(in)

	// A coerced identifier is a warning, not a rejection: the envelope
	// still flows and the message is not deleted here.
	envelope := <-out
	assert.NotNil(t, envelope)
	mockConsumer.AssertNotCalled(t, "DeleteMessage")
}

func TestParserStage_Start_MalformedMessageDeleted(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockParser := new(MockMessageParser)
	log := zap.NewNop()

	parserStage := NewParserStage(mockConsumer, mockParser, log)

	mockConsumer.On("QueueURL").Return("https://sqs.eu-central-1.amazonaws.com/123/collector-queue")
	mockConsumer.On("DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput")).
		Return(&sqs.DeleteMessageOutput{}, nil)

	message := types.Message{
		MessageId:     aws.String("msg-1"),
		Body:          aws.String(`{invalid json}`),
		ReceiptHandle: aws.String("receipt-1"),
	}

	parseErr := errors.New("invalid JSON format")
	mockParser.On("Parse", []byte(`{invalid json}`)).Return(nil, nil, parseErr)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	in := make(chan types.Message, 1)
	out := make(chan *Envelope, 1)

	go parserStage.Start(ctx, in, out)

	in <- message

	// Wait for processing before closing input
	time.Sleep(20 * time.Millisecond)
	close(in)

	timeout := time.After(100 * time.Millisecond)
	for {
		select {
		case envelope, ok := <-out:
			if !ok {
				mockParser.AssertExpectations(t)
				mockConsumer.AssertCalled(t, "DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput"))
				return
			}
			t.Fatalf("Expected no envelope for malformed message, but got: %v", envelope)
		case <-timeout:
			mockParser.AssertExpectations(t)
			mockConsumer.AssertCalled(t, "DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput"))
			return
		}
	}
}

func TestParserStage_Start_ContextCancellation(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockParser := new(MockMessageParser)
	log := zap.NewNop()

	parserStage := NewParserStage(mockConsumer, mockParser, log)

	ctx, cancel := context.WithCancel(context.Background())

	in := make(chan types.Message)
	out := make(chan *Envelope, 1)

	// Cancel immediately
	cancel()

	parserStage.Start(ctx, in, out)

	// Output channel should be closed
	_, ok := <-out
	assert.False(t, ok, "Output channel should be closed after context cancellation")
}

func TestParserStage_Start_MultipleMessages(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockParser := new(MockMessageParser)
	log := zap.NewNop()

	parserStage := NewParserStage(mockConsumer, mockParser, log)

	mockConsumer.On("QueueURL").Return("https://sqs.eu-central-1.amazonaws.com/123/collector-queue")
	mockConsumer.On("DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput")).
		Return(&sqs.DeleteMessageOutput{}, nil).Maybe()

	messages := []types.Message{
		{
			MessageId:     aws.String("msg-1"),
			Body:          aws.String(`{"website_id": "w1"}`),
			ReceiptHandle: aws.String("receipt-1"),
		},
		{
			MessageId:     aws.String("msg-2"),
			Body:          aws.String(`{invalid}`),
			ReceiptHandle: aws.String("receipt-2"),
		},
		{
			MessageId:     aws.String("msg-3"),
			Body:          aws.String(`{"website_id": "w3"}`),
			ReceiptHandle: aws.String("receipt-3"),
		},
	}

	event1 := &domain.Event{EventID: "evt-1", WebsiteID: "w1"}
	event3 := &domain.Event{EventID: "evt-3", WebsiteID: "w3"}

	mockParser.On("Parse", []byte(`{"website_id": "w1"}`)).Return(event1, nil, nil)
	mockParser.On("Parse", []byte(`{invalid}`)).Return(nil, nil, errors.New("parse error"))
	mockParser.On("Parse", []byte(`{"website_id": "w3"}`)).Return(event3, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan types.Message, 3)
	out := make(chan *Envelope, 3)

	go parserStage.Start(ctx, in, out)

	for _, msg := range messages {
		in <- msg
	}
	close(in)

	var envelopes []*Envelope
	timeout := time.After(100 * time.Millisecond)
	done := false

	for !done {
		select {
		case envelope, ok := <-out:
			if !ok {
				done = true
				break
			}
			envelopes = append(envelopes, envelope)
		case <-timeout:
			done = true
		}
	}

	// The malformed middle message is deleted, the other two flow through.
	assert.Len(t, envelopes, 2)
	assert.Equal(t, "evt-1", envelopes[0].Event.EventID)
	assert.Equal(t, "evt-3", envelopes[1].Event.EventID)

	mockParser.AssertExpectations(t)
	mockConsumer.AssertNumberOfCalls(t, "DeleteMessage", 1)
}
