package chathub_test

import (
	"context"
	"errors"
	"testing"

	"dmgo/backend/internal/attachment"
	"dmgo/backend/internal/chathub"
	"dmgo/backend/internal/events"
	"dmgo/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type deliveryFixture struct {
	registry  *chathub.Registry
	api       *MockAPI
	resolver  *MockResolver
	profiles  *MockProfiles
	delivery  *chathub.Delivery
	recipient *MockConn
	roomConn  *MockConn
}

// newDeliveryFixture has u2 online on one device and u1 looking at chat c1 on another.
func newDeliveryFixture(t *testing.T) *deliveryFixture {
	f := &deliveryFixture{
		registry:  newTestRegistry(),
		api:       new(MockAPI),
		resolver:  new(MockResolver),
		profiles:  new(MockProfiles),
		recipient: newAuthedConn("u2-phone", "u2"),
		roomConn:  newAuthedConn("u1-laptop", "u1"),
	}
	f.delivery = chathub.NewDelivery(f.registry, f.api, f.resolver, f.profiles, zap.NewNop().Sugar())

	f.registry.Register(f.recipient)
	f.registry.Register(f.roomConn)
	_, err := f.registry.JoinRoom(f.roomConn, "c1")
	require.NoError(t, err)

	f.profiles.On("GetUserProfiles", mock.Anything, []string{"u1"}).
		Return([]models.UserProfile{{UserID: "u1", Username: "ann", AvatarURL: "ann.png"}}, nil)
	return f
}

func textView() models.MessageView {
	return models.MessageView{
		Message:      models.Message{ID: "m1", ChatID: "c1", SenderID: "u1", Content: "hello", Type: models.MessageTypeText},
		Participants: []string{"u1", "u2"},
	}
}

func TestDelivery_NewMessageFansOut(t *testing.T) {
	f := newDeliveryFixture(t)
	f.api.On("MessageView", mock.Anything, "m1").Return(textView(), nil)

	f.delivery.Handle(context.Background(), events.NewMessage("m1", "u2"))

	require.Equal(t, []string{models.EventNewMessage}, f.recipient.events())
	delivered := f.recipient.lastFrame().Data.(models.DeliveredMessage)
	assert.Equal(t, "hello", delivered.Content)
	assert.Equal(t, "ann", delivered.SenderUsername)
	assert.Equal(t, "ann.png", delivered.SenderAvatarURL)

	assert.Equal(t, []string{models.EventRoomNewMessage}, f.roomConn.events())
	f.resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestDelivery_MessageReadNotifiesSender(t *testing.T) {
	f := newDeliveryFixture(t)
	f.api.On("MessageView", mock.Anything, "m1").Return(textView(), nil)

	f.delivery.Handle(context.Background(), events.MessageRead("m1", "u1"))

	// u1's only connection is also in the room
	require.Equal(t, []string{models.EventMessageRead, models.EventMessageRead}, f.roomConn.events())
	receipt := f.roomConn.lastFrame().Data.(models.ReadReceipt)
	assert.Equal(t, "u2", receipt.ReaderID)
	assert.Equal(t, "c1", receipt.ChatID)
	assert.Empty(t, f.recipient.Frames())
}

func TestDelivery_ResolvesVoiceBeforePush(t *testing.T) {
	f := newDeliveryFixture(t)
	view := textView()
	view.Message.Type = models.MessageTypeVoice
	view.Message.Content = "ref"
	f.api.On("MessageView", mock.Anything, "m1").Return(view, nil)
	f.resolver.On("Resolve", mock.Anything, "m1").Return(models.Attachment{URL: "https://cdn/v.ogg", Duration: 9}, nil)

	f.delivery.Handle(context.Background(), events.NewMessage("m1", "u2"))

	delivered := f.recipient.lastFrame().Data.(models.DeliveredMessage)
	assert.Equal(t, "https://cdn/v.ogg", delivered.Content)
	require.NotNil(t, delivered.Duration)
	assert.Equal(t, 9, *delivered.Duration)
}

func TestDelivery_DropsUnresolvedVoice(t *testing.T) {
	f := newDeliveryFixture(t)
	view := textView()
	view.Message.Type = models.MessageTypeVoice
	f.api.On("MessageView", mock.Anything, "m1").Return(view, nil)
	f.resolver.On("Resolve", mock.Anything, "m1").Return(models.Attachment{}, attachment.ErrExhausted)

	f.delivery.Handle(context.Background(), events.NewMessage("m1", "u2"))

	assert.Empty(t, f.recipient.Frames())
	assert.Empty(t, f.roomConn.Frames())
}

func TestDelivery_ProfileFailureStillDelivers(t *testing.T) {
	f := newDeliveryFixture(t)
	f.profiles.ExpectedCalls = nil
	f.profiles.On("GetUserProfiles", mock.Anything, []string{"u1"}).Return(nil, errors.New("users down"))
	f.api.On("MessageView", mock.Anything, "m1").Return(textView(), nil)

	f.delivery.Handle(context.Background(), events.NewMessage("m1", "u2"))

	require.Len(t, f.recipient.Frames(), 1)
	delivered := f.recipient.lastFrame().Data.(models.DeliveredMessage)
	assert.Empty(t, delivered.SenderUsername)
}

func TestDelivery_MissingMessageIsSkipped(t *testing.T) {
	f := newDeliveryFixture(t)
	f.api.On("MessageView", mock.Anything, "gone").Return(models.MessageView{}, errors.New("not found"))

	f.delivery.Handle(context.Background(), events.NewMessage("gone", "u2"))

	assert.Empty(t, f.recipient.Frames())
}
