package services

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

const nativeCurrency = "SOL"

// WalletService covers balances, earnings and staking.
type WalletService struct {
	store   vectorstore.Client
	balance BalanceReader
	log     zerolog.Logger
}

func NewWalletService(store vectorstore.Client, balance BalanceReader, log zerolog.Logger) *WalletService {
	return &WalletService{store: store, balance: balance, log: log}
}

// GetBalance reports 0 when the chain cannot be read.
func (s *WalletService) GetBalance(ctx context.Context, wallet string) model.WalletBalance {
	out := model.WalletBalance{WalletAddress: wallet, Currency: nativeCurrency}
	bal, err := s.balance.GetBalance(ctx, wallet)
	if err != nil {
		s.log.Warn().Err(err).Str("wallet", wallet).Msg("balance lookup failed")
		return out
	}
	out.Balance = bal
	return out
}

// GetEarnings totals every earning of wallet. period is echoed back and does
// not filter.
func (s *WalletService) GetEarnings(ctx context.Context, wallet, period string) (*model.Earnings, error) {
	recs, err := vectorstore.ScanAll(ctx, s.store, vectorstore.Earnings, vectorstore.Where(vectorstore.Match("wallet", wallet)), 0)
	if err != nil {
		return nil, err
	}
	out := &model.Earnings{WalletAddress: wallet, CapsuleEarnings: make([]model.EarningRecord, 0, len(recs)), Period: period}
	for _, r := range recs {
		e := earningFromRecord(r, wallet)
		out.TotalEarnings += e.Amount
		out.CapsuleEarnings = append(out.CapsuleEarnings, e)
	}
	return out, nil
}

// GetStakingInfo lists the wallet's stakes, newest first.
func (s *WalletService) GetStakingInfo(ctx context.Context, wallet string) ([]model.StakingInfo, error) {
	recs, err := vectorstore.ScanAll(ctx, s.store, vectorstore.Staking, vectorstore.Where(vectorstore.Match("staker_wallet", wallet)), 0)
	if err != nil {
		return nil, err
	}
	out := make([]model.StakingInfo, 0, len(recs))
	for _, r := range recs {
		out = append(out, stakingFromRecord(r))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StakedAt.After(out[j].StakedAt) })
	return out, nil
}

// CreateStaking records a stake and adds it to the capsule's stake_amount.
// A capsule is listed exactly when its stake is positive.
func (s *WalletService) CreateStaking(ctx context.Context, in model.StakingCreate, wallet string) (*model.StakingInfo, error) {
	if wallet == "" {
		return nil, model.ErrWalletMissing
	}
	if in.CapsuleID == "" {
		return nil, model.NewValidationError("capsule_id", "capsule ID is required")
	}
	if in.StakeAmount < 0 {
		return nil, model.NewValidationError("stake_amount", "must not be negative")
	}
	capsule, err := s.store.Get(ctx, vectorstore.Capsules, in.CapsuleID)
	if err != nil {
		return nil, err
	}
	if capsule == nil {
		return nil, model.NewNotFoundError("capsule", in.CapsuleID)
	}

	now := nowUTC()
	id := uuid.NewString()
	ts := vectorstore.FormatTime(now)
	payload := newPayload("staking", now)
	payload["id"] = id
	payload["capsule_id"] = in.CapsuleID
	payload["staker_wallet"] = wallet
	payload["wallet_address"] = wallet
	payload["amount"] = in.StakeAmount
	payload["stake_amount"] = in.StakeAmount
	payload["timestamp"] = ts
	payload["staked_at"] = ts
	if err := s.store.Upsert(ctx, vectorstore.Staking, id, payload, nil); err != nil {
		return nil, err
	}

	_, err = mutatePayload(ctx, s.store, vectorstore.Capsules, in.CapsuleID, func(p vectorstore.Payload) {
		current, _ := p.Number("stake_amount")
		total := current + in.StakeAmount
		p["stake_amount"] = total
		p["is_listed"] = total > 0
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("capsule_id", in.CapsuleID).Float64("amount", in.StakeAmount).Msg("stake recorded")

	return &model.StakingInfo{CapsuleID: in.CapsuleID, WalletAddress: wallet, StakeAmount: in.StakeAmount, StakedAt: now}, nil
}
