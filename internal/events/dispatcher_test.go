package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/complaint-service/internal/domain"
)

func TestPublishRunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	calls := 0

	d.Subscribe(EventComplaintAssigned, func(context.Context, Event) error {
		calls++
		return boom
	})
	d.Subscribe(EventComplaintAssigned, func(context.Context, Event) error {
		calls++
		return nil
	})
	d.Subscribe(EventComplaintCreated, func(context.Context, Event) error {
		t.Fatal("unexpected handler")
		return nil
	})

	event := NewEvent(EventComplaintAssigned, &domain.Complaint{ID: "c-1"}, Actor{ID: "system"}, nil)
	err := d.Publish(context.Background(), event)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "c-1", event.ComplaintID)
	assert.NotEmpty(t, event.ID)
}

func TestPublishWithoutHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventFeedbackAdded}))
}
