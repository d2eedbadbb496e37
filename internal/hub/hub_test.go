package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesOnlyTheAddressedUser(t *testing.T) {
	h := NewHub()
	alice := make(Client, 1)
	bob := make(Client, 1)
	h.Subscribe(1, alice)
	h.Subscribe(2, bob)

	h.Publish(1, Event{Type: EventNotification, Payload: map[string]any{"id": 7}})

	require.Len(t, alice, 1)
	assert.Len(t, bob, 0)

	var got Event
	require.NoError(t, json.Unmarshal(<-alice, &got))
	assert.Equal(t, EventNotification, got.Type)
	assert.Equal(t, float64(7), got.Payload.(map[string]any)["id"])
}

func TestPublishFansOutToEveryStreamOfAUser(t *testing.T) {
	h := NewHub()
	tab1 := make(Client, 1)
	tab2 := make(Client, 1)
	h.Subscribe(1, tab1)
	h.Subscribe(1, tab2)
	assert.Equal(t, 2, h.Clients(1))

	h.Publish(1, Event{Type: EventMessage})

	assert.Len(t, tab1, 1)
	assert.Len(t, tab2, 1)
}

func TestPublishDoesNotBlockOnFullClient(t *testing.T) {
	h := NewHub()
	c := make(Client) // unbuffered, nobody reading
	h.Subscribe(1, c)

	h.Publish(1, Event{Type: EventMessage}) // must return
}

func TestUnsubscribeClosesAndForgets(t *testing.T) {
	h := NewHub()
	c := make(Client, 1)
	h.Subscribe(1, c)
	h.Unsubscribe(1, c)

	_, open := <-c
	assert.False(t, open)
	assert.Equal(t, 0, h.Clients(1))

	// Second unsubscribe is a no-op rather than a double close.
	h.Unsubscribe(1, c)
}
