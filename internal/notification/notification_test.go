package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository/memory"
)

func TestEncodeDecode(t *testing.T) {
	complaintID := "c-1"
	in := domain.Notification{
		RecipientID: "lecturer-1",
		Type:        domain.NotificationComplaintEscalated,
		ComplaintID: &complaintID,
		Title:       "Complaint escalated",
		Message:     "Broken projector was escalated to you",
	}

	raw, err := encode(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"complaint_escalated"`)

	out, err := decode(raw)
	require.NoError(t, err)
	assert.Equal(t, in.RecipientID, out.RecipientID)
	require.NotNil(t, out.ComplaintID)
	assert.Equal(t, complaintID, *out.ComplaintID)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := decode([]byte("not json"))
	assert.Error(t, err)

	_, err = decode([]byte(`{"type":"status_changed"}`))
	assert.Error(t, err)
}

func TestStoreSinkWritesNotification(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sink := NewStoreSink(store.Repos().Notifications)

	require.NoError(t, sink.Enqueue(ctx, domain.Notification{
		RecipientID: "student-1",
		Type:        domain.NotificationStatusChanged,
		Title:       "Status changed",
		Message:     "Your complaint is now opened",
	}))
	assert.Error(t, sink.Enqueue(ctx, domain.Notification{Type: domain.NotificationStatusChanged}))

	list, err := store.Repos().Notifications.ListByRecipient(ctx, "student-1", false, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Read)
}
