// Package chain talks to a Solana JSON-RPC endpoint: payment verification
// for capsule queries and wallet balances.
package chain

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const lamportsPerSOL = 1e9

// Payment describes the transfer a query claims to have made.
type Payment struct {
	Signature string
	Sender    string
	Recipient string
	Amount    float64 // SOL
}

// Client is a minimal Solana RPC client. Every call is bounded by timeout.
type Client struct {
	http    *resty.Client
	timeout time.Duration
	log     zerolog.Logger
}

func New(rpcURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    resty.New().SetBaseURL(rpcURL).SetTimeout(timeout),
		timeout: timeout,
		log:     log,
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type balanceResponse struct {
	Result *struct {
		Value uint64 `json:"value"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

type transactionResponse struct {
	Result *struct {
		Meta *struct {
			Err          interface{} `json:"err"`
			PreBalances  []uint64    `json:"preBalances"`
			PostBalances []uint64    `json:"postBalances"`
		} `json:"meta"`
		Transaction struct {
			Message struct {
				AccountKeys []string `json:"accountKeys"`
			} `json:"message"`
		} `json:"transaction"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}).
		SetResult(out).
		Post("")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("solana rpc %s: status %d", method, resp.StatusCode())
	}
	return nil
}

// GetBalance returns the wallet balance in SOL.
func (c *Client) GetBalance(ctx context.Context, wallet string) (float64, error) {
	var out balanceResponse
	if err := c.call(ctx, "getBalance", []interface{}{wallet}, &out); err != nil {
		return 0, err
	}
	if out.Error != nil {
		return 0, fmt.Errorf("solana rpc getBalance: %s", out.Error.Message)
	}
	if out.Result == nil {
		return 0, fmt.Errorf("solana rpc getBalance: empty result")
	}
	return float64(out.Result.Value) / lamportsPerSOL, nil
}

// VerifyPayment reports whether the signature names a successful transaction
// in which the recipient received at least Amount from the sender. Transport
// failures and malformed answers are "not verified"; this never returns an error.
func (c *Client) VerifyPayment(ctx context.Context, p Payment) bool {
	log := c.log.With().Str("signature", p.Signature).Logger()
	var out transactionResponse
	params := []interface{}{p.Signature, map[string]interface{}{"encoding": "json", "maxSupportedTransactionVersion": 0}}
	if err := c.call(ctx, "getTransaction", params, &out); err != nil {
		log.Warn().Err(err).Msg("payment verification rpc failed")
		return false
	}
	if out.Error != nil || out.Result == nil {
		log.Info().Msg("payment transaction not found")
		return false
	}
	meta := out.Result.Meta
	if meta == nil || meta.Err != nil {
		log.Info().Msg("payment transaction failed or has no meta")
		return false
	}
	keys := out.Result.Transaction.Message.AccountKeys
	senderIdx, recipientIdx := indexOf(keys, p.Sender), indexOf(keys, p.Recipient)
	if senderIdx < 0 || recipientIdx < 0 {
		log.Info().Msg("payment transaction does not involve sender and recipient")
		return false
	}
	if recipientIdx >= len(meta.PreBalances) || recipientIdx >= len(meta.PostBalances) {
		return false
	}
	received := int64(meta.PostBalances[recipientIdx]) - int64(meta.PreBalances[recipientIdx])
	want := int64(math.Round(p.Amount * lamportsPerSOL))
	if received < want {
		log.Info().Int64("received", received).Int64("expected", want).Msg("payment amount too low")
		return false
	}
	return true
}

// HealthPing calls getHealth; a healthy node answers "ok".
func (c *Client) HealthPing(ctx context.Context) error {
	var out struct {
		Result string    `json:"result"`
		Error  *rpcError `json:"error"`
	}
	if err := c.call(ctx, "getHealth", []interface{}{}, &out); err != nil {
		return err
	}
	if out.Error != nil {
		return fmt.Errorf("solana rpc getHealth: %s", out.Error.Message)
	}
	if out.Result != "ok" {
		return fmt.Errorf("solana rpc getHealth: %q", out.Result)
	}
	return nil
}

func indexOf(keys []string, want string) int {
	for i, k := range keys {
		if k == want {
			return i
		}
	}
	return -1
}
