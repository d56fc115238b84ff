package rabbitmq

import (
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/ai-chat/internal/chat"
)

func TestNamingMessage_RoundTrip(t *testing.T) {
	in := chat.NamingJob{ConversationID: "conv-1", OwnerID: 3, Model: "llama3.2", MessageCount: 2}

	msg, err := NewNamingMessage(in)
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	_, err = uuid.Parse(msg.MessageId)
	assert.NoError(t, err)

	out, ok := DecodeNamingJob(msg.Body)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestDecodeNamingJob_Rejects(t *testing.T) {
	for name, body := range map[string]string{
		"not json":        "{",
		"missing conv id": `{"owner_id":1}`,
		"missing owner":   `{"conversation_id":"c"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := DecodeNamingJob([]byte(body))
			assert.False(t, ok)
		})
	}
}

func TestQueueNames(t *testing.T) {
	assert.Equal(t, "chat_naming.retry", RetryQueue("chat_naming"))
	assert.Equal(t, "chat_naming.dlq", DLQ("chat_naming"))
}
