package domain

import (
	"errors"
	"fmt"
)

// パイプライン全体で共有されるエラー種別なのだ。
// 境界（HTTPハンドラ）で errors.Is により kind へ変換されます。
var (
	// ErrAnalysisFailed は外部解析呼び出しの失敗、または結果が期待する構造に
	// パースできなかったことを示します。部分的な結果は返されません。
	ErrAnalysisFailed = errors.New("画像解析に失敗したのだ")

	// ErrSynthesisFailed は特定クリップのTTS呼び出しが失敗したことを示します。
	ErrSynthesisFailed = errors.New("音声合成に失敗したのだ")

	// ErrStorageFailed は永続化層の読み書き失敗を示します。
	ErrStorageFailed = errors.New("ストレージ操作に失敗したのだ")

	// ErrBookNotFound は指定された bookId のスナップショットが存在しないことを示します。
	ErrBookNotFound = errors.New("指定された絵本が見つからないのだ")
)

// ClipError は「どのページのどの台詞が失敗したか」を特定できる構造化エラーです。
// 全滅させる代わりにこれを収集し、呼び出し側が失敗単位だけ再試行できるようにするのだ。
type ClipError struct {
	PageIndex     int    `json:"page_index"`
	DialogueIndex int    `json:"dialogue_index"`
	Role          string `json:"role"`
	Voice         string `json:"voice"`
	Err           error  `json:"-"`
	Message       string `json:"message"`
}

// Error は error インターフェースを満たすのだ。
func (e *ClipError) Error() string {
	if e.Role == RoleNarrator {
		return fmt.Sprintf("ページ %d のナレーション合成に失敗: %v", e.PageIndex+1, e.Err)
	}
	return fmt.Sprintf("ページ %d の台詞 %d の合成に失敗: %v", e.PageIndex+1, e.DialogueIndex+1, e.Err)
}

// Unwrap は errors.Is / errors.As の連鎖を可能にするのだ。
func (e *ClipError) Unwrap() error {
	return e.Err
}

// NewClipError は合成失敗の文脈情報を束ねて ClipError を生成します。
func NewClipError(pageIndex, dialogueIndex int, role, voice string, err error) *ClipError {
	wrapped := fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	return &ClipError{
		PageIndex:     pageIndex,
		DialogueIndex: dialogueIndex,
		Role:          role,
		Voice:         voice,
		Err:           wrapped,
		Message:       wrapped.Error(),
	}
}
