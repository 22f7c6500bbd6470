package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

func TestCreateAgent_EncryptsKeyAndRedacts(t *testing.T) {
	e := newEnv(t)
	a := e.createAgent(t, "w1")

	assert.True(t, strings.HasPrefix(a.ID, "custom-"))
	assert.Len(t, a.ID, len("custom-")+8)
	assert.Nil(t, a.APIKey)
	assert.True(t, a.APIKeyConfigured)
	assert.Equal(t, "openrouter", a.Platform)

	p := e.payload(t, vectorstore.Agents, a.ID)
	assert.NotEqual(t, "sk-secret", p.Str("api_key_encrypted"))
	assert.NotEmpty(t, p.Str("api_key_encrypted"))
	assert.Equal(t, "agent", p.Str("type"))
	assert.NotEmpty(t, p.Str("created_at"))
}

func TestCreateAgent_Validation(t *testing.T) {
	e := newEnv(t)
	_, err := e.agents.CreateAgent(context.Background(), model.AgentCreate{Name: "x"}, "")
	assert.ErrorIs(t, err, model.ErrWalletMissing)

	_, err = e.agents.CreateAgent(context.Background(), model.AgentCreate{Name: "  "}, "w1")
	assert.True(t, model.IsValidationError(err))
	assert.Equal(t, 0, e.backend.Count(vectorstore.Agents))
}

func TestGetAgent_Ownership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.createAgent(t, "w1")

	got, err := e.agents.GetAgent(ctx, a.ID, "w2")
	require.NoError(t, err)
	assert.Nil(t, got, "foreign wallet must not see the agent")

	got, err = e.agents.GetAgent(ctx, a.ID, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.APIKey, "key is only exposed to the owner")

	got, err = e.agents.GetAgent(ctx, a.ID, "w1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.APIKey)
	assert.Equal(t, "sk-secret", *got.APIKey)

	missing, err := e.agents.GetAgent(ctx, "custom-nope", "w1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetAgent_CorruptedKeyFailsLoudly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.createAgent(t, "w1")
	p := e.payload(t, vectorstore.Agents, a.ID)
	p["api_key_encrypted"] = "not-a-ciphertext"
	require.NoError(t, e.store.SetPayload(ctx, vectorstore.Agents, a.ID, p))

	_, err := e.agents.GetAgent(ctx, a.ID, "w1")
	require.Error(t, err)
	assert.True(t, model.IsDecryptionError(err))
}

func TestListAgents_ScopedAndRedacted(t *testing.T) {
	e := newEnv(t)
	e.createAgent(t, "w1")
	e.createAgent(t, "w1")
	e.createAgent(t, "w2")

	mine, err := e.agents.ListAgents(context.Background(), "w1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, a := range mine {
		assert.Nil(t, a.APIKey)
		assert.Equal(t, "w1", a.UserWallet)
	}

	all, err := e.agents.ListAgents(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateAgent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.createAgent(t, "w1")
	before := e.payload(t, vectorstore.Agents, a.ID).Str("api_key_encrypted")

	_, err := e.agents.UpdateAgent(ctx, a.ID, model.AgentUpdate{Model: ptr("other")}, "w2")
	assert.True(t, model.IsNotFoundError(err))

	updated, err := e.agents.UpdateAgent(ctx, a.ID, model.AgentUpdate{DisplayName: ptr("Renamed"), Model: ptr("claude")}, "w1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.DisplayName)
	assert.Equal(t, "claude", updated.Model)
	assert.Equal(t, before, e.payload(t, vectorstore.Agents, a.ID).Str("api_key_encrypted"), "key untouched without a key patch")

	_, err = e.agents.UpdateAgent(ctx, a.ID, model.AgentUpdate{APIKey: ptr("sk-new")}, "w1")
	require.NoError(t, err)
	got, err := e.agents.GetAgent(ctx, a.ID, "w1")
	require.NoError(t, err)
	assert.Equal(t, "sk-new", *got.APIKey)
}

func TestAddMessage_CountsAndOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.createAgent(t, "w1")
	c := e.createChat(t, a.ID, "w1", "c1")

	const n = 7
	var last string
	for i := 0; i < n; i++ {
		last = strings.Repeat("x", 150) + string(rune('a'+i))
		_, err := e.agents.AddMessage(ctx, a.ID, c.ID, "w1", model.MessageCreate{Role: model.RoleUser, Content: last})
		require.NoError(t, err)
	}

	msgs, err := e.messages.ListMessages(ctx, c.ID, "w1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, n)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].Timestamp.Before(msgs[i-1].Timestamp), "messages out of order at %d", i)
	}

	p := e.payload(t, vectorstore.Chats, c.ID)
	assert.Equal(t, n, p.Int("message_count"))
	assert.Equal(t, last[:100], p.Str("last_message"))
}

func TestAddMessage_ForeignChatIsNotFound(t *testing.T) {
	e := newEnv(t)
	a := e.createAgent(t, "w1")
	c := e.createChat(t, a.ID, "w1", "c1")

	_, err := e.agents.AddMessage(context.Background(), a.ID, c.ID, "w2", model.MessageCreate{Content: "hi"})
	assert.True(t, model.IsNotFoundError(err))

	_, err = e.agents.AddMessage(context.Background(), "custom-other", c.ID, "w1", model.MessageCreate{Content: "hi"})
	assert.True(t, model.IsNotFoundError(err))
	assert.Equal(t, 0, e.backend.Count(vectorstore.Messages))
}

func TestDeleteAgent_CascadesToChatsAndMessages(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.createAgent(t, "w1")
	other := e.createAgent(t, "w1")
	keep := e.createChat(t, other.ID, "w1", "keep")
	_, err := e.agents.AddMessage(ctx, other.ID, keep.ID, "w1", model.MessageCreate{Content: "stay"})
	require.NoError(t, err)

	for _, name := range []string{"c1", "c2"} {
		c := e.createChat(t, a.ID, "w1", name)
		for _, content := range []string{"hello", "world"} {
			_, err := e.agents.AddMessage(ctx, a.ID, c.ID, "w1", model.MessageCreate{Content: content})
			require.NoError(t, err)
		}
	}

	assert.True(t, model.IsNotFoundError(e.agents.DeleteAgent(ctx, a.ID, "w2")))
	require.NoError(t, e.agents.DeleteAgent(ctx, a.ID, "w1"))

	byAgent := vectorstore.Where(vectorstore.Match("agent_id", a.ID))
	assert.Equal(t, 0, e.count(t, vectorstore.Chats, byAgent))
	assert.Equal(t, 0, e.count(t, vectorstore.Messages, byAgent))
	got, err := e.agents.GetAgent(ctx, a.ID, "")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Equal(t, 1, e.backend.Count(vectorstore.Chats))
	assert.Equal(t, 1, e.backend.Count(vectorstore.Messages))
}
