package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

func TestCreateCapsule_Unlisted(t *testing.T) {
	e := newEnv(t)
	c, err := e.capsules.CreateCapsule(context.Background(), model.CapsuleCreate{
		Name: "Alpha", Description: "d", Category: "Finance", PricePerQuery: 0.5,
		Metadata: map[string]interface{}{"agent_id": "custom-1"},
	}, "w1")
	require.NoError(t, err)
	assert.False(t, c.IsListed)
	assert.Zero(t, c.StakeAmount)
	assert.Equal(t, "w1", c.CreatorWallet)
	assert.Equal(t, 1, e.embed.Calls())

	p := e.payload(t, vectorstore.Capsules, c.ID)
	assert.Equal(t, "custom-1", p.Str("agent_id"))
	assert.Equal(t, 0.5, p.Float("price"))
}

func TestUpdateCapsule(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.createCapsule(t, "w1", "Alpha", "Finance", 1)
	calls := e.embed.Calls()

	got, err := e.capsules.UpdateCapsule(ctx, c.ID, model.CapsuleUpdate{PricePerQuery: ptr(2.0)}, "w2")
	require.NoError(t, err)
	assert.Nil(t, got, "non-owner update is a no-op")
	assert.Equal(t, 1.0, e.payload(t, vectorstore.Capsules, c.ID).Float("price_per_query"))

	got, err = e.capsules.UpdateCapsule(ctx, c.ID, model.CapsuleUpdate{PricePerQuery: ptr(2.0), Metadata: map[string]interface{}{"tier": "gold"}}, "w1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2.0, got.PricePerQuery)
	assert.Equal(t, calls, e.embed.Calls(), "price-only update must not re-embed")

	got, err = e.capsules.UpdateCapsule(ctx, c.ID, model.CapsuleUpdate{Category: ptr("Gaming")}, "w1")
	require.NoError(t, err)
	assert.Equal(t, "Gaming", got.Category)
	assert.Equal(t, calls+1, e.embed.Calls(), "category change re-embeds")

	hits, err := e.store.Search(ctx, vectorstore.Capsules, vectorstore.CapsuleVec, mustEmbed(t, e, capsuleText("Alpha", "Alpha capsule", "Gaming")), nil, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, c.ID, hits[0].ID)
}

func mustEmbed(t *testing.T, e *env, text string) []float32 {
	t.Helper()
	v, err := e.embed.Embed(context.Background(), text)
	require.NoError(t, err)
	return v
}

func TestDeleteCapsule_OwnerOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.createCapsule(t, "w1", "Alpha", "Finance", 1)

	ok, err := e.capsules.DeleteCapsule(ctx, c.ID, "w2")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, e.backend.Count(vectorstore.Capsules))

	ok, err = e.capsules.DeleteCapsule(ctx, c.ID, "w1")
	require.NoError(t, err)
	assert.True(t, ok)
	got, err := e.capsules.GetCapsule(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindCapsuleForAgent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.createCapsule(t, "w1", "Plain", "Finance", 1)
	linked, err := e.capsules.CreateCapsule(ctx, model.CapsuleCreate{Name: "Linked", Metadata: map[string]interface{}{"agent_id": "custom-7"}}, "w1")
	require.NoError(t, err)

	got, err := e.capsules.FindCapsuleForAgent(ctx, "w1", "custom-7")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, linked.ID, got.ID)

	got, err = e.capsules.FindCapsuleForAgent(ctx, "w2", "custom-7")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestQueryCapsule_InvalidPaymentChangesNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.createCapsule(t, "creator", "Alpha", "Finance", 1)
	e.chain.verify = false

	_, err := e.capsules.QueryCapsule(ctx, c.ID, model.CapsuleQuery{Prompt: "hi", PaymentSignature: ptr("sig"), AmountPaid: ptr(1.5)}, "payer")
	require.Error(t, err)
	assert.True(t, model.IsPaymentVerificationError(err))
	assert.False(t, model.IsUpstreamError(err))

	assert.Equal(t, 0, e.payload(t, vectorstore.Capsules, c.ID).Int("query_count"))
	assert.Equal(t, 0, e.backend.Count(vectorstore.Earnings))
	require.Len(t, e.chain.payments, 1)
	assert.Equal(t, "payer", e.chain.payments[0].Sender)
	assert.Equal(t, "creator", e.chain.payments[0].Recipient)
}

func TestQueryCapsule_UnpaidIncrementsOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.createCapsule(t, "creator", "Alpha", "Finance", 1)

	res, err := e.capsules.QueryCapsule(ctx, c.ID, model.CapsuleQuery{Prompt: "hi", PaymentSignature: ptr("sig"), AmountPaid: ptr(0.0)}, "payer")
	require.NoError(t, err)
	assert.Zero(t, res.PricePaid)
	assert.Empty(t, e.chain.payments, "zero amount skips verification")
	assert.Equal(t, 1, e.payload(t, vectorstore.Capsules, c.ID).Int("query_count"))
	assert.Equal(t, 0, e.backend.Count(vectorstore.Earnings))
}

func TestQueryCapsule_PaidRecordsEarning(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.createCapsule(t, "creator", "Alpha", "Finance", 1)

	for i := 0; i < 2; i++ {
		res, err := e.capsules.QueryCapsule(ctx, c.ID, model.CapsuleQuery{Prompt: "hi", PaymentSignature: ptr("sig"), AmountPaid: ptr(0.25)}, "payer")
		require.NoError(t, err)
		assert.Equal(t, 0.25, res.PricePaid)
		assert.Equal(t, c.ID, res.CapsuleID)
		assert.Contains(t, res.Response, "Alpha")
	}
	assert.Equal(t, 2, e.payload(t, vectorstore.Capsules, c.ID).Int("query_count"))

	earnings, err := e.wallet.GetEarnings(ctx, "creator", "all")
	require.NoError(t, err)
	assert.Len(t, earnings.CapsuleEarnings, 2)
	assert.InDelta(t, 0.5, earnings.TotalEarnings, 1e-9)
	assert.Equal(t, "usage", earnings.CapsuleEarnings[0].Source)
}

func TestQueryCapsule_MissingAndInvalid(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.capsules.QueryCapsule(ctx, "nope", model.CapsuleQuery{Prompt: "hi"}, "w")
	assert.True(t, model.IsNotFoundError(err))
	_, err = e.capsules.QueryCapsule(ctx, "nope", model.CapsuleQuery{}, "w")
	assert.True(t, model.IsValidationError(err))
}
