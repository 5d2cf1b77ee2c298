// Package ttsengine は外部TTSエンドポイントへの薄いクライアントなのだ。
// 合成処理そのものは不透明な外部能力として扱い、「テキストと音声IDを渡すと
// 音声バイト列が返る」という契約だけに依存します。
package ttsengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-ehon-kit/pkg/domain"
)

// Synthesizer はTTS能力の抽象インターフェースです。
// PageAudioSynthesizer はこの契約にのみ依存します。
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// speechRequest は OpenAI 互換 /v1/audio/speech エンドポイントのリクエスト形式です。
// edge-tts 系プロキシはこの形式を話すのだ。
type speechRequest struct {
	Model          string `json:"model,omitempty"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// Client は OpenAI 互換のスピーチAPIに対する Synthesizer 実装です。
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient は TTS クライアントを生成します。endpoint は /v1/audio/speech まで含まないベースURLなのだ。
func NewClient(endpoint, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Synthesize はテキストと音声IDからMP3バイト列を合成して返すのだ。
// 非2xx応答は ErrSynthesisFailed として報告されます。
func (c *Client) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	payload := speechRequest{
		Model:          c.model,
		Input:          text,
		Voice:          voiceID,
		ResponseFormat: "mp3",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("リクエストのエンコードに失敗したのだ: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("リクエストの構築に失敗したのだ: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: TTSエンドポイントへの接続に失敗 (voice: %s): %w", domain.ErrSynthesisFailed, voiceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: TTSエンドポイントがステータス %d を返したのだ: %s",
			domain.ErrSynthesisFailed, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: 音声データの読み取りに失敗したのだ: %w", domain.ErrSynthesisFailed, err)
	}

	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: 空の音声データが返されたのだ (voice: %s)", domain.ErrSynthesisFailed, voiceID)
	}

	return audio, nil
}
