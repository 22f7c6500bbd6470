package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

var twoTurns = []model.ChatTurn{{Role: "user", Content: "I like sushi"}, {Role: "assistant", Content: "Noted"}}

func TestMemory_Disabled(t *testing.T) {
	e := newEnv(t)
	m := NewMemoryService(e.store, nil, zerolog.Nop())
	ctx := context.Background()

	assert.False(t, m.Enabled())
	assert.Empty(t, m.ChatMemories(ctx, "a", "c", "q", model.MemoryLarge, 0, ""))
	assert.False(t, m.StoreChatMemory(ctx, "a", "c", twoTurns, "").OK)
	assert.True(t, m.DeleteChatMemories(ctx, "a", "c").OK)
}

func TestMemory_RecallLimitFollowsSize(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 12; i++ {
		e.longTerm.entries = append(e.longTerm.entries, model.MemoryEntry{ID: "x", Memory: "m"})
	}
	ctx := context.Background()
	assert.Len(t, e.memory.ChatMemories(ctx, "a", "c", "q", model.MemorySmall, 0, ""), 3)
	assert.Len(t, e.memory.ChatMemories(ctx, "a", "c", "q", model.MemoryMedium, 0, ""), 5)
	assert.Len(t, e.memory.ChatMemories(ctx, "a", "c", "q", model.MemoryLarge, 0, ""), 10)
	assert.Len(t, e.memory.ChatMemories(ctx, "a", "c", "q", model.MemoryLarge, 2, ""), 2)
}

func TestMemory_SearchFailureIsEmpty(t *testing.T) {
	e := newEnv(t)
	e.longTerm.err = errBoom
	assert.Empty(t, e.memory.ChatMemories(context.Background(), "a", "c", "q", model.MemorySmall, 0, ""))
	res := e.memory.StoreChatMemory(context.Background(), "a", "c", twoTurns, "")
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, errBoom)
}

func TestMemory_StoreWritesPointer(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res := e.memory.StoreChatMemory(ctx, "a", "c", twoTurns[:1], "")
	assert.False(t, res.OK)
	assert.True(t, model.IsValidationError(res.Err))

	res = e.memory.StoreChatMemory(ctx, "a", "c", twoTurns, "cap-1")
	require.True(t, res.OK)
	p := e.payload(t, vectorstore.MemPointers, "mem0:m1")
	assert.Equal(t, "m1", p.Str("mem0_memory_id"))
	assert.Equal(t, "c", p.Str("chat_id"))
	assert.Equal(t, "cap-1", p.Str("capsule_id"))
}

func TestFormatMemoryContext(t *testing.T) {
	e := newEnv(t)
	out := e.memory.FormatMemoryContext([]model.MemoryEntry{{Memory: "likes sushi"}, {Memory: ""}, {Memory: "lives in Lisbon"}})
	assert.Equal(t, "- likes sushi\n- lives in Lisbon", out)
	assert.Equal(t, "", e.memory.FormatMemoryContext(nil))
}
