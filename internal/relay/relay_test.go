package relay

import (
	"encoding/json"
	"testing"
	"time"

	"studenthelp/backend/internal/hub"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleDeliversToLocalClients(t *testing.T) {
	local := hub.NewHub()
	client := make(hub.Client, 1)
	local.Subscribe(42, client)

	r := New(nil, "test.events", local)
	data, err := json.Marshal(envelope{UserID: 42, Event: json.RawMessage(`{"type":"notification","payload":{"id":1}}`)})
	require.NoError(t, err)

	r.handle(&nats.Msg{Data: data})

	require.Len(t, client, 1)
	assert.JSONEq(t, `{"type":"notification","payload":{"id":1}}`, string(<-client))
}

func TestHandleIgnoresMalformedMessages(t *testing.T) {
	local := hub.NewHub()
	client := make(hub.Client, 1)
	local.Subscribe(42, client)
	r := New(nil, "test.events", local)

	r.handle(&nats.Msg{Data: []byte("not json")})
	r.handle(&nats.Msg{Data: []byte(`{"user_id":0,"event":{"type":"x"}}`)})

	assert.Len(t, client, 0)
}

// Requires a NATS server on localhost; skipped otherwise.
func TestPublishRoundTrip(t *testing.T) {
	nc, err := Connect(nats.DefaultURL)
	if err != nil {
		t.Skipf("skipping: no NATS server: %v", err)
	}

	local := hub.NewHub()
	client := make(hub.Client, 1)
	local.Subscribe(7, client)

	r := New(nc, "studenthelp.test."+t.Name(), local)
	require.NoError(t, r.Start())
	defer r.Close()
	require.NoError(t, nc.Flush())

	r.Publish(7, hub.Event{Type: hub.EventMessage, Payload: map[string]string{"content": "hi"}})

	select {
	case data := <-client:
		assert.JSONEq(t, `{"type":"message","payload":{"content":"hi"}}`, string(data))
	case <-time.After(2 * time.Second):
		t.Fatal("event not relayed")
	}
}
