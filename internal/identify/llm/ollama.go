// Package llm adapts the local LLM fallback parser (an Ollama-compatible
// HTTP service) used when regex-based identification evidence is
// insufficient.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config configures the adapter. Environment overrides (per spec §6):
// OLLAMA_HOST, OLLAMA_MODEL, OLLAMA_TIMEOUT (seconds).
type Config struct {
	Endpoint string
	Model    string
	Timeout  time.Duration
	// MinConfidence rejects results scoring below this threshold.
	MinConfidence float64
}

// Adapter calls the local LLM service's /api/generate endpoint.
type Adapter struct {
	cfg    Config
	client *http.Client
}

// New builds an Adapter.
func New(cfg Config) *Adapter {
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("OLLAMA_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Adapter{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Format  string                 `json:"format,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Result is the tolerant decode of the LLM's JSON reply.
type Result struct {
	OriginalTitle string
	Title         string
	Year          int
	Season        int
	Episode       int
	Confidence    float64
}

// rawResult tolerates season/episode/confidence encoded as either a JSON
// number or a string such as "S01"/"E05"/"85".
type rawResult struct {
	OriginalTitle string      `json:"original_title"`
	Title         string      `json:"title"`
	Year          json.Number `json:"year"`
	Season        interface{} `json:"season"`
	Episode       interface{} `json:"episode"`
	Confidence    json.Number `json:"confidence"`
}

// Prompt builds the Chinese-language instruction prompt asking for a JSON
// object {original_title, title, year, season, episode, confidence}.
func Prompt(filename string) string {
	return "你是一个媒体文件名解析器。请从下面的文件名中提取元数据，" +
		"忽略分辨率、编码、发布组等技术标记，注意续集编号和特别版信息。" +
		"仅返回一个JSON对象，字段为: original_title, title, year, season, episode, confidence" +
		"（confidence为0到1之间的浮点数，表示你对这次解析的把握程度）。\n\n文件名: " + filename
}

// Parse sends filename to the configured model and returns a tolerant,
// validated Result. A malformed or low-confidence response is a non-fatal
// error — callers should treat it as "no AI result" rather than abort.
func (a *Adapter) Parse(ctx context.Context, filename string) (*Result, error) {
	reqCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:  a.cfg.Model,
		Prompt: Prompt(filename),
		Stream: false,
		Format: "json",
		Options: map[string]interface{}{
			"temperature": 0.0,
			"seed":        42,
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, a.cfg.Endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm returned status %d", resp.StatusCode)
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return nil, fmt.Errorf("llm decode failed: %w", err)
	}

	raw, err := decodeTolerant(gen.Response)
	if err != nil {
		return nil, fmt.Errorf("llm JSON malformed: %w", err)
	}

	result := validate(raw)
	if result.Confidence < a.cfg.MinConfidence {
		return nil, fmt.Errorf("llm result below confidence threshold (%.2f < %.2f)", result.Confidence, a.cfg.MinConfidence)
	}
	return result, nil
}

func decodeTolerant(text string) (rawResult, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var raw rawResult
	err := json.Unmarshal([]byte(text), &raw)
	return raw, err
}

// validate normalizes confidence to [0,1] (divided by 100 if >1), keeps
// year only within [1900, current+5], season within (0,100] and episode
// within (0,1000] (an out-of-range value is left 0), and nulls empty titles.
func validate(raw rawResult) *Result {
	r := &Result{
		Title:         strings.TrimSpace(raw.Title),
		OriginalTitle: strings.TrimSpace(raw.OriginalTitle),
	}

	if y, err := raw.Year.Int64(); err == nil {
		y32 := int(y)
		if y32 >= 1900 && y32 <= time.Now().Year()+5 {
			r.Year = y32
		}
	}

	if s := extractSeasonEpisode(raw.Season); s > 0 && s <= 100 {
		r.Season = s
	}
	if e := extractSeasonEpisode(raw.Episode); e > 0 && e <= 1000 {
		r.Episode = e
	}

	conf, _ := raw.Confidence.Float64()
	if conf > 1 {
		conf = conf / 100
	}
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	r.Confidence = conf

	return r
}

// extractSeasonEpisode pulls digits from either a numeric JSON value or a
// string like "S01"/"E05".
func extractSeasonEpisode(v interface{}) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		var digits strings.Builder
		for _, r := range val {
			if r >= '0' && r <= '9' {
				digits.WriteRune(r)
			}
		}
		if digits.Len() == 0 {
			return 0
		}
		n, err := strconv.Atoi(digits.String())
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
