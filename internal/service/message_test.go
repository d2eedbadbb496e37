package service

import (
	"context"
	"testing"

	"studenthelp/backend/internal/apperr"
	"studenthelp/backend/internal/hub"
	"studenthelp/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")

	msg, err := f.messages.Send(ctx, alice.ID, bob.ID, "  hey there  ")
	require.NoError(t, err)
	assert.Equal(t, "hey there", msg.Content)
	assert.Equal(t, alice.ID, msg.SenderID)

	events := f.events.For(bob.ID, hub.EventMessage)
	require.Len(t, events, 1)
	assert.Empty(t, f.events.For(alice.ID, hub.EventMessage))

	var notifications int64
	require.NoError(t, f.db.Model(&models.Notification{}).Count(&notifications).Error)
	assert.Zero(t, notifications)
}

func TestSendMessageValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	_, err := f.messages.Send(ctx, alice.ID, 0, "hi")
	assert.True(t, apperr.Is(err, apperr.BadRequest))

	_, err = f.messages.Send(ctx, alice.ID, alice.ID+1, "")
	assert.True(t, apperr.Is(err, apperr.BadRequest))

	_, err = f.messages.Send(ctx, alice.ID, 9999, "hi")
	assert.True(t, apperr.Is(err, apperr.NotFound))
	assert.Equal(t, "Receiver not found", apperr.Message(err))
}

func TestConversationIsSymmetricAndOrdered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, carol := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")

	for _, step := range []struct {
		from, to uint
		text     string
	}{
		{alice.ID, bob.ID, "one"},
		{bob.ID, alice.ID, "two"},
		{alice.ID, carol.ID, "elsewhere"},
		{alice.ID, bob.ID, "three"},
	} {
		_, err := f.messages.Send(ctx, step.from, step.to, step.text)
		require.NoError(t, err)
	}

	fromAlice, err := f.messages.ListConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	fromBob, err := f.messages.ListConversation(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	contents := func(ms []models.Message) []string {
		out := make([]string, 0, len(ms))
		for _, m := range ms {
			out = append(out, m.Content)
		}
		return out
	}
	assert.Equal(t, []string{"one", "two", "three"}, contents(fromAlice))
	assert.Equal(t, contents(fromAlice), contents(fromBob))
	assert.Equal(t, "bob", fromAlice[1].Sender.Username)

	_, err = f.messages.ListConversation(ctx, alice.ID, 0)
	assert.True(t, apperr.Is(err, apperr.BadRequest))
}

func TestMessagingCanRequireConnection(t *testing.T) {
	f := newFixtureWith(t, true)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")

	_, err := f.messages.Send(ctx, alice.ID, bob.ID, "hi")
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	conn, err := f.connections.Request(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = f.messages.Send(ctx, alice.ID, bob.ID, "hi")
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	_, err = f.connections.Respond(ctx, conn.ID, bob.ID, true)
	require.NoError(t, err)
	_, err = f.messages.Send(ctx, bob.ID, alice.ID, "welcome")
	assert.NoError(t, err)
}
