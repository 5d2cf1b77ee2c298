// Package analyzer は絵本ページ画像を構造化データへ変換する外部解析能力への
// クライアントなのだ。モデル内部の挙動は不透明として扱い、出力契約
// （pages + characters のJSON）だけを消費します。
package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-ehon-kit/pkg/domain"
)

// Analyzer は画像列から構造化された絵本データを得る契約です。
type Analyzer interface {
	Analyze(ctx context.Context, images [][]byte) (*domain.Analysis, error)
}

// Client は Anthropic 互換の messages API（MiniMax等）に対する Analyzer 実装です。
type Client struct {
	baseURL      string
	apiKey       string
	model        string
	systemPrompt string
	maxTokens    int
	httpClient   *http.Client
}

// NewClient は解析クライアントを生成します。systemPrompt には解析指示
// （internal/prompt の埋め込みテンプレート）を注入するのだ。
func NewClient(baseURL, apiKey, model, systemPrompt string, timeout time.Duration) *Client {
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		apiKey:       apiKey,
		model:        model,
		systemPrompt: systemPrompt,
		maxTokens:    defaultMaxTokens,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

const defaultMaxTokens = 4096

// messages API のリクエスト・レスポンス形式なのだ。
type (
	apiRequest struct {
		Model     string       `json:"model"`
		MaxTokens int          `json:"max_tokens"`
		System    string       `json:"system,omitempty"`
		Messages  []apiMessage `json:"messages"`
	}

	apiMessage struct {
		Role    string       `json:"role"`
		Content []apiContent `json:"content"`
	}

	apiContent struct {
		Type   string          `json:"type"`
		Text   string          `json:"text,omitempty"`
		Source *apiImageSource `json:"source,omitempty"`
	}

	apiImageSource struct {
		Type      string `json:"type"`
		MediaType string `json:"media_type"`
		Data      string `json:"data"`
	}

	apiResponse struct {
		Content []apiContent `json:"content"`
	}
)

// Analyze は画像列を送信し、ナレーション・台詞・キャラクターレジストリを含む
// 構造化データを返すのだ。失敗や解釈不能な応答は ErrAnalysisFailed になります。
func (c *Client) Analyze(ctx context.Context, images [][]byte) (*domain.Analysis, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: 解析対象の画像が1枚もないのだ", domain.ErrAnalysisFailed)
	}

	reqBody := apiRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    c.systemPrompt,
		Messages:  c.buildMessages(images),
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("リクエストのエンコードに失敗したのだ: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("リクエストの構築に失敗したのだ: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: 解析エンドポイントへの接続に失敗したのだ: %w", domain.ErrAnalysisFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: 解析APIがステータス %d を返したのだ: %s",
			domain.ErrAnalysisFailed, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("%w: 応答のデコードに失敗したのだ: %w", domain.ErrAnalysisFailed, err)
	}

	return parseAnalysisResponse(apiResp)
}

// buildMessages はページ画像をAPIのマルチモーダル形式に組み立てるのだ。
// 1枚目（表紙）にだけ詳しい指示を付け、以降は継続指示のみとします。
func (c *Client) buildMessages(images [][]byte) []apiMessage {
	messages := make([]apiMessage, 0, len(images))
	for i, img := range images {
		var instruction string
		if i == 0 {
			instruction = "这是绘本的第1页（封面）。请分析这张图片以及后续页面，返回完整的JSON结构。"
		} else {
			instruction = fmt.Sprintf("这是绘本的第%d页。请继续分析并返回相同的JSON格式。", i+1)
		}

		messages = append(messages, apiMessage{
			Role: "user",
			Content: []apiContent{
				{
					Type: "image",
					Source: &apiImageSource{
						Type:      "base64",
						MediaType: "image/jpeg",
						Data:      base64.StdEncoding.EncodeToString(img),
					},
				},
				{Type: "text", Text: instruction},
			},
		})
	}
	return messages
}

// parseAnalysisResponse はモデルの応答テキストからJSON部分を抽出し、構造体に変換するのだ。
// モデルは前後に説明文を付けることがあるため、最初の '{' から最後の '}' までを切り出します。
func parseAnalysisResponse(resp apiResponse) (*domain.Analysis, error) {
	for _, item := range resp.Content {
		if item.Type != "text" || item.Text == "" {
			continue
		}

		start := strings.Index(item.Text, "{")
		end := strings.LastIndex(item.Text, "}")
		if start < 0 || end <= start {
			continue
		}

		var analysis domain.Analysis
		if err := json.Unmarshal([]byte(item.Text[start:end+1]), &analysis); err != nil {
			continue
		}

		analysis.Characters = domain.NormalizeCharacters(analysis.Characters)
		return &analysis, nil
	}

	return nil, fmt.Errorf("%w: 応答から期待するJSON構造を抽出できなかったのだ", domain.ErrAnalysisFailed)
}
