package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultURL = "http://localhost:11434"

type Provider struct {
	model string
	http  *resty.Client
}

// New returns a provider for the Ollama server at baseURL ("" means localhost).
func New(baseURL, model string) *Provider {
	if baseURL == "" {
		baseURL = defaultURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &Provider{
		model: model,
		http:  resty.New().SetBaseURL(baseURL).SetTimeout(10 * time.Second),
	}
}

type embReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embResp struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error"`
}

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	var out embResp
	resp, err := p.http.R().
		SetContext(ctx).
		SetBody(embReq{Model: p.model, Prompt: text}).
		SetResult(&out).
		SetError(&out).
		Post("/api/embeddings")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		if out.Error != "" {
			return nil, fmt.Errorf("ollama embeddings status %d: %s", resp.StatusCode(), out.Error)
		}
		return nil, fmt.Errorf("ollama embeddings status %d", resp.StatusCode())
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama embeddings error: %s", out.Error)
	}
	vec := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// HealthPing checks /api/tags for the configured model.
func (p *Provider) HealthPing(ctx context.Context) error {
	var data struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	resp, err := p.http.R().SetContext(ctx).SetResult(&data).Get("/api/tags")
	if err != nil {
		return err
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("ollama status %d", resp.StatusCode())
	}
	want := baseModelName(p.model)
	for _, m := range data.Models {
		if baseModelName(m.Name) == want {
			return nil
		}
	}
	return fmt.Errorf("model %s not found", want)
}

// baseModelName strips the tag, e.g. nomic-embed-text:latest -> nomic-embed-text.
func baseModelName(name string) string {
	return strings.Split(name, ":")[0]
}
