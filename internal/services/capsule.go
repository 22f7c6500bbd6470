package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rajarshidattapy/anymind-qd/internal/chain"
	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

const earningSourceUsage = "usage"

// CapsuleService manages capsules and paid queries against them.
type CapsuleService struct {
	store    vectorstore.Client
	embed    Embedder
	payments PaymentVerifier
	log      zerolog.Logger
}

func NewCapsuleService(store vectorstore.Client, embed Embedder, payments PaymentVerifier, log zerolog.Logger) *CapsuleService {
	return &CapsuleService{store: store, embed: embed, payments: payments, log: log}
}

func capsuleText(name, description, category string) string {
	return strings.TrimSpace(name + "\n" + description + "\n" + category)
}

func (s *CapsuleService) vectors(ctx context.Context, name, description, category string) (map[string][]float32, error) {
	vec, err := s.embed.Embed(ctx, capsuleText(name, description, category))
	if err != nil {
		return nil, err
	}
	return map[string][]float32{vectorstore.CapsuleVec: vec}, nil
}

// CreateCapsule stores an unlisted capsule; it is listed once staked.
func (s *CapsuleService) CreateCapsule(ctx context.Context, in model.CapsuleCreate, wallet string) (*model.Capsule, error) {
	if wallet == "" {
		return nil, model.ErrWalletMissing
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, model.NewValidationError("name", "name is required")
	}
	if in.PricePerQuery < 0 {
		return nil, model.NewValidationError("price_per_query", "must not be negative")
	}

	vecs, err := s.vectors(ctx, name, in.Description, in.Category)
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	id := uuid.NewString()
	metadata := in.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	payload := newPayload("capsule", now)
	payload["id"] = id
	payload["capsule_id"] = id
	payload["owner_wallet"] = wallet
	payload["creator_wallet"] = wallet
	payload["name"] = name
	payload["description"] = in.Description
	payload["category"] = in.Category
	payload["price"] = in.PricePerQuery
	payload["price_per_query"] = in.PricePerQuery
	payload["is_listed"] = false
	payload["stake_amount"] = 0.0
	payload["reputation"] = 0.0
	payload["query_count"] = 0
	payload["rating"] = 0.0
	payload["metadata"] = metadata
	if agentID, ok := metadata["agent_id"].(string); ok && agentID != "" {
		payload["agent_id"] = agentID
	}

	if err := s.store.Upsert(ctx, vectorstore.Capsules, id, payload, vecs); err != nil {
		return nil, err
	}
	s.log.Info().Str("capsule_id", id).Str("wallet", wallet).Msg("capsule created")

	c := capsuleFromRecord(vectorstore.Record{ID: id, Payload: payload})
	return &c, nil
}

// GetCapsule is a public read; nil when absent.
func (s *CapsuleService) GetCapsule(ctx context.Context, id string) (*model.Capsule, error) {
	rec, err := s.store.Get(ctx, vectorstore.Capsules, id)
	if err != nil || rec == nil {
		return nil, err
	}
	c := capsuleFromRecord(*rec)
	return &c, nil
}

// GetUserCapsules lists capsules created by wallet.
func (s *CapsuleService) GetUserCapsules(ctx context.Context, wallet string) ([]model.Capsule, error) {
	recs, err := vectorstore.ScanAll(ctx, s.store, vectorstore.Capsules, vectorstore.Where(vectorstore.Match("creator_wallet", wallet)), 0)
	if err != nil {
		return nil, err
	}
	return capsulesFromRecords(recs), nil
}

// FindCapsuleForAgent returns the wallet's first capsule whose metadata
// references agentID.
func (s *CapsuleService) FindCapsuleForAgent(ctx context.Context, wallet, agentID string) (*model.Capsule, error) {
	caps, err := s.GetUserCapsules(ctx, wallet)
	if err != nil {
		return nil, err
	}
	for i := range caps {
		if ref, _ := caps[i].Metadata["agent_id"].(string); ref == agentID {
			return &caps[i], nil
		}
	}
	return nil, nil
}

func (s *CapsuleService) ownedRecord(ctx context.Context, id, wallet string) (*vectorstore.Record, error) {
	rec, err := s.store.Get(ctx, vectorstore.Capsules, id)
	if err != nil || rec == nil {
		return nil, err
	}
	if wallet == "" || capsuleOwner(rec.Payload) != wallet {
		return nil, nil
	}
	return rec, nil
}

// UpdateCapsule patches a capsule owned by wallet and returns nil for any
// other caller. Changing name, description or category re-embeds.
func (s *CapsuleService) UpdateCapsule(ctx context.Context, id string, patch model.CapsuleUpdate, wallet string) (*model.Capsule, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, model.NewValidationError("name", "name cannot be empty")
	}
	if patch.PricePerQuery != nil && *patch.PricePerQuery < 0 {
		return nil, model.NewValidationError("price_per_query", "must not be negative")
	}
	rec, err := s.ownedRecord(ctx, id, wallet)
	if err != nil || rec == nil {
		return nil, err
	}

	p := rec.Payload
	reembed := false
	if patch.Name != nil && *patch.Name != p.Str("name") {
		p["name"] = strings.TrimSpace(*patch.Name)
		reembed = true
	}
	if patch.Description != nil && *patch.Description != p.Str("description") {
		p["description"] = *patch.Description
		reembed = true
	}
	if patch.Category != nil && *patch.Category != p.Str("category") {
		p["category"] = *patch.Category
		reembed = true
	}
	if patch.PricePerQuery != nil {
		p["price_per_query"] = *patch.PricePerQuery
		p["price"] = *patch.PricePerQuery
	}
	if patch.Metadata != nil {
		p["metadata"] = patch.Metadata
		if agentID, ok := patch.Metadata["agent_id"].(string); ok && agentID != "" {
			p["agent_id"] = agentID
		}
	}
	p["schema_version"] = payloadSchemaVersion
	p.Touch(nowUTC())

	if reembed {
		vecs, err := s.vectors(ctx, p.Str("name"), p.Str("description"), p.Str("category"))
		if err != nil {
			return nil, err
		}
		err = s.store.Upsert(ctx, vectorstore.Capsules, id, p, vecs)
		if err != nil {
			return nil, err
		}
	} else if err := s.store.SetPayload(ctx, vectorstore.Capsules, id, p); err != nil {
		return nil, err
	}

	c := capsuleFromRecord(vectorstore.Record{ID: id, Payload: p})
	return &c, nil
}

// DeleteCapsule deletes a capsule owned by wallet. It reports false, with no
// error, for an absent capsule or another owner.
func (s *CapsuleService) DeleteCapsule(ctx context.Context, id, wallet string) (bool, error) {
	rec, err := s.ownedRecord(ctx, id, wallet)
	if err != nil || rec == nil {
		return false, err
	}
	if err := s.store.DeleteByID(ctx, vectorstore.Capsules, id); err != nil {
		return false, err
	}
	s.log.Info().Str("capsule_id", id).Msg("capsule deleted")
	return true, nil
}

// QueryCapsule runs a query against a capsule. When both a signature and a
// positive amount are given the transfer to the creator is verified first;
// a failed verification changes nothing. A verified payment is recorded as
// an earning for the creator. Every accepted query bumps query_count.
func (s *CapsuleService) QueryCapsule(ctx context.Context, id string, q model.CapsuleQuery, wallet string) (*model.QueryResult, error) {
	if strings.TrimSpace(q.Prompt) == "" {
		return nil, model.NewValidationError("prompt", "prompt is required")
	}
	if q.AmountPaid != nil && *q.AmountPaid < 0 {
		return nil, model.NewValidationError("amount_paid", "must not be negative")
	}
	capsule, err := s.GetCapsule(ctx, id)
	if err != nil {
		return nil, err
	}
	if capsule == nil {
		return nil, model.NewNotFoundError("capsule", id)
	}

	var amount float64
	paid := q.PaymentSignature != nil && *q.PaymentSignature != "" && q.AmountPaid != nil && *q.AmountPaid > 0
	if paid {
		amount = *q.AmountPaid
		payment := chain.Payment{
			Signature: *q.PaymentSignature,
			Sender:    wallet,
			Recipient: capsule.CreatorWallet,
			Amount:    amount,
		}
		if !s.payments.VerifyPayment(ctx, payment) {
			s.log.Warn().Str("capsule_id", id).Str("signature", payment.Signature).Msg("payment verification failed")
			return nil, model.PaymentVerificationError{Signature: payment.Signature, Reason: "transaction not confirmed for the capsule creator"}
		}
		if err := s.recordEarning(ctx, id, capsule.CreatorWallet, amount, earningSourceUsage); err != nil {
			return nil, err
		}
	}

	if _, err := incrementCounter(ctx, s.store, vectorstore.Capsules, id, "query_count", 1); err != nil {
		return nil, err
	}

	response := fmt.Sprintf("Query processed for capsule '%s'.", capsule.Name)
	if paid {
		response += fmt.Sprintf(" Payment verified (%s SOL).", strconv.FormatFloat(amount, 'f', -1, 64))
	}
	return &model.QueryResult{Response: response, CapsuleID: id, PricePaid: amount}, nil
}

func (s *CapsuleService) recordEarning(ctx context.Context, capsuleID, wallet string, amount float64, source string) error {
	now := nowUTC()
	id := uuid.NewString()
	payload := newPayload("earning", now)
	payload["id"] = id
	payload["earning_id"] = id
	payload["wallet"] = wallet
	payload["wallet_address"] = wallet
	payload["capsule_id"] = capsuleID
	payload["amount"] = amount
	payload["source"] = source
	payload["timestamp"] = vectorstore.FormatTime(now)
	return s.store.Upsert(ctx, vectorstore.Earnings, id, payload, nil)
}

// ListAllCapsules returns up to limit capsules regardless of listing state.
func (s *CapsuleService) ListAllCapsules(ctx context.Context, limit int) ([]model.Capsule, error) {
	recs, err := vectorstore.ScanAll(ctx, s.store, vectorstore.Capsules, nil, limit)
	if err != nil {
		return nil, err
	}
	return capsulesFromRecords(recs), nil
}
