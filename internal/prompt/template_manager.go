package prompt

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed analyze.md
var AnalyzePrompt string

// GetAnalyzePrompt は、絵本画像解析用のシステムプロンプトを返すのだ。
func GetAnalyzePrompt() (string, error) {
	if strings.TrimSpace(AnalyzePrompt) == "" {
		return "", fmt.Errorf("解析プロンプトテンプレートが空なのだ。embed設定を確認してほしいのだ")
	}
	return AnalyzePrompt, nil
}
