// Package asset は音声クリップの命名規約と出力パスの解決を担うのだ。
package asset

import (
	"fmt"
	"regexp"

	"github.com/shouni/go-utils/urlpath"

	"github.com/shouni/go-ehon-kit/pkg/domain"
)

const (
	// DefaultAudioDir は合成済み音声クリップを格納するディレクトリ名です。
	DefaultAudioDir = "audio"
	// DefaultContentName は絵本スナップショットのデフォルト JSON ファイル名です。
	DefaultContentName = "content.json"
)

// ClipFileRegex は音声クリップのファイル名 (page_0_narrator.mp3 等) に一致します。
var ClipFileRegex = regexp.MustCompile(`^page_\d+_(narrator|dialogue_\d+)\.mp3$`)

// NarratorClipName は、指定ページのナレーションクリップのファイル名を返します。
// 例: 0 -> "page_0_narrator.mp3"
func NarratorClipName(pageIndex int) string {
	return fmt.Sprintf("page_%d_narrator.mp3", pageIndex)
}

// DialogueClipName は、指定ページ・台詞のクリップのファイル名を返します。
// 例: 0, 2 -> "page_0_dialogue_2.mp3"
func DialogueClipName(pageIndex, dialogueIndex int) string {
	return fmt.Sprintf("page_%d_dialogue_%d.mp3", pageIndex, dialogueIndex)
}

// ClipName は役割と添字からファイル名を導くのだ。
func ClipName(clip domain.AudioClip) string {
	if clip.Role == domain.RoleNarrator {
		return NarratorClipName(clip.PageIndex)
	}
	return DialogueClipName(clip.PageIndex, clip.DialogueIndex)
}

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolvePath(baseDir, fileName)
}
