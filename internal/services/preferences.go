package services

import (
	"context"

	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

// PreferencesService keeps one free-form settings record per wallet.
type PreferencesService struct {
	store vectorstore.Client
}

func NewPreferencesService(store vectorstore.Client) *PreferencesService {
	return &PreferencesService{store: store}
}

func preferencesID(wallet string) string { return "pref:" + wallet }

// Get returns an empty map when nothing is stored.
func (s *PreferencesService) Get(ctx context.Context, wallet string) (model.Preferences, error) {
	if wallet == "" {
		return nil, model.ErrWalletMissing
	}
	rec, err := s.store.Get(ctx, vectorstore.Preferences, preferencesID(wallet))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return model.Preferences{}, nil
	}
	prefs := rec.Payload.Map("preferences")
	if prefs == nil {
		return model.Preferences{}, nil
	}
	return model.Preferences(prefs), nil
}

// Upsert merges updates over the stored preferences and returns the result.
// created_at of an existing record is kept.
func (s *PreferencesService) Upsert(ctx context.Context, wallet string, updates model.Preferences) (model.Preferences, error) {
	if wallet == "" {
		return nil, model.ErrWalletMissing
	}
	id := preferencesID(wallet)
	merged := model.Preferences{}
	_, err := upsertPayload(ctx, s.store, vectorstore.Preferences, id, "preferences", func(p vectorstore.Payload) {
		for k, v := range p.Map("preferences") {
			merged[k] = v
		}
		for k, v := range updates {
			merged[k] = v
		}
		p["id"] = id
		p["wallet"] = wallet
		p["preferences"] = map[string]interface{}(merged)
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// Clear deletes the wallet's preferences record.
func (s *PreferencesService) Clear(ctx context.Context, wallet string) error {
	if wallet == "" {
		return model.ErrWalletMissing
	}
	return s.store.DeleteByID(ctx, vectorstore.Preferences, preferencesID(wallet))
}
