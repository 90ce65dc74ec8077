package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSend(t *testing.T) {
	client := NewClient("client-1", testRoom, "", nil, nil)

	msg, err := NewMessage(TypePong, testRoom, "m1", nil)
	require.NoError(t, err)
	require.NoError(t, client.Send(msg))

	raw := <-client.send

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, TypePong, decoded["type"])
	assert.Equal(t, "m1", decoded["member_id"])
	assert.NotContains(t, decoded, "ClientID")
	assert.NotContains(t, decoded, "payload")
}

func TestClientSend_AfterClose(t *testing.T) {
	client := NewClient("client-1", testRoom, "", nil, nil)
	client.Close()
	client.Close()

	msg, err := NewMessage(TypePong, testRoom, "", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, client.Send(msg), ErrConnectionClosed)
	assert.True(t, client.IsClosed())
}

func TestClientSend_BufferOverflowClosesClient(t *testing.T) {
	client := NewClient("client-1", testRoom, "", nil, nil)

	msg, err := NewMessage(TypePong, testRoom, "", nil)
	require.NoError(t, err)

	for range sendBufferSize {
		require.NoError(t, client.Send(msg))
	}

	assert.ErrorIs(t, client.Send(msg), ErrConnectionClosed)
	assert.True(t, client.IsClosed())
}

func TestClientSendError_SanitizesDetailsInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	client := NewClient("client-1", testRoom, "", nil, nil)
	client.SendError("server_error", "failed to process message", "pq: relation kv_documents does not exist at 10.1.2.3")

	raw := <-client.send

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, TypeError, msg.Type)

	var resp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Details string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &resp))
	assert.Equal(t, "server_error", resp.Error)
	assert.Equal(t, "failed to process message", resp.Message)
	assert.NotContains(t, resp.Details, "kv_documents")
}

func TestMessageUnmarshalPayload(t *testing.T) {
	var payload JoinPayload

	empty := &Message{Type: TypeJoin}
	require.NoError(t, empty.UnmarshalPayload(&payload))
	assert.Empty(t, payload.MemberID)

	msg := &Message{Type: TypeJoin, Payload: json.RawMessage(`{"member_id":"m1","name":"Ada"}`)}
	require.NoError(t, msg.UnmarshalPayload(&payload))
	assert.Equal(t, "m1", payload.MemberID)
	assert.Equal(t, "Ada", payload.Name)

	bad := &Message{Type: TypeJoin, Payload: json.RawMessage(`[1,2]`)}
	assert.Error(t, bad.UnmarshalPayload(&payload))
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		allowed string
		origin  string
		want    bool
	}{
		{"development allows any origin", "development", "", "https://elsewhere.example", true},
		{"development allows missing origin", "development", "", "", true},
		{"production rejects missing origin", "production", "https://canvas.example", "", false},
		{"production requires allow list", "production", "", "https://canvas.example", false},
		{"production accepts listed origin", "production", "https://a.example, https://canvas.example", "https://canvas.example", true},
		{"production rejects unlisted origin", "production", "https://canvas.example", "https://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", tt.env)
			t.Setenv("ALLOWED_ORIGINS", tt.allowed)

			r := httptest.NewRequest("GET", "/api/v1/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}

			assert.Equal(t, tt.want, CheckOrigin(r))
		})
	}
}

func TestGenerateClientID(t *testing.T) {
	a, err := GenerateClientID()
	require.NoError(t, err)

	b, err := GenerateClientID()
	require.NoError(t, err)

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
