// Package synthesizer は、1ページ分の構造化データを順序付きの音声クリップ列へ
// 変換する部品なのだ。ナレーションが先頭、続いて台詞が元の順序で並びます。
package synthesizer

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/shouni/go-ehon-kit/pkg/asset"
	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/ttsengine"
	"github.com/shouni/go-ehon-kit/pkg/voice"
)

const audioMimeType = "audio/mpeg"

// ClipWriter は合成済みクリップの書き出し先の契約です。
// remoteio.OutputWriter がこれを満たすため、ローカルと gs:// の両方に保存できるのだ。
type ClipWriter interface {
	Write(ctx context.Context, path string, content io.Reader, mimeType string) error
}

// PageSynthesizer は1ページ分の音声合成と保存を担当します。
// 各合成呼び出しは独立しており、1クリップの失敗が生成済みクリップを無効化することはないのだ。
type PageSynthesizer struct {
	tts    ttsengine.Synthesizer
	voices *voice.Resolver
	writer ClipWriter
}

// NewPageSynthesizer は、TTSクライアント、声解決部品、出力ライターを注入して初期化します。
func NewPageSynthesizer(tts ttsengine.Synthesizer, voices *voice.Resolver, writer ClipWriter) *PageSynthesizer {
	return &PageSynthesizer{
		tts:    tts,
		voices: voices,
		writer: writer,
	}
}

// SynthesizePage は、ページのナレーションと台詞を順に合成して audioDir へ書き出し、
// 順序付きのクリップ列と失敗単位のリストを返すのだ。
// レジストリは読み取り専用の入力として扱い、変更しません。
func (s *PageSynthesizer) SynthesizePage(
	ctx context.Context,
	page domain.Page,
	registry map[string]domain.Character,
	pageIndex int,
	audioDir string,
) (domain.PageAudio, []*domain.ClipError) {
	result := domain.PageAudio{PageIndex: pageIndex}
	var failures []*domain.ClipError

	// 1. ナレーション（空ならスキップ）
	if strings.TrimSpace(page.Narrator) != "" {
		clip := domain.AudioClip{
			Role:          domain.RoleNarrator,
			PageIndex:     pageIndex,
			DialogueIndex: domain.NarratorDialogueIndex,
		}
		narratorVoice := s.voices.NarratorVoice()

		path, err := s.synthesizeClip(ctx, page.Narrator, narratorVoice, audioDir, asset.ClipName(clip))
		if err != nil {
			failures = append(failures, domain.NewClipError(pageIndex, domain.NarratorDialogueIndex, domain.RoleNarrator, narratorVoice, err))
		} else {
			clip.Path = path
			result.Clips = append(result.Clips, clip)
		}
	}

	// 2. 台詞を元の順序で処理（空テキストはスキップ）
	for i, dialogue := range page.Dialogues {
		if strings.TrimSpace(dialogue.Text) == "" {
			continue
		}

		clip := domain.AudioClip{
			Role:          domain.RoleDialogue,
			PageIndex:     pageIndex,
			DialogueIndex: i,
		}
		voiceID := s.voices.Resolve(dialogue.Character, registry)

		path, err := s.synthesizeClip(ctx, dialogue.Text, voiceID, audioDir, asset.ClipName(clip))
		if err != nil {
			failures = append(failures, domain.NewClipError(pageIndex, i, domain.RoleDialogue, voiceID, err))
			continue
		}
		clip.Path = path
		result.Clips = append(result.Clips, clip)
	}

	return result, failures
}

// synthesizeClip は1クリップ分の合成と書き出しを行い、保存先パスを返すのだ。
func (s *PageSynthesizer) synthesizeClip(ctx context.Context, text, voiceID, audioDir, fileName string) (string, error) {
	audio, err := s.tts.Synthesize(ctx, text, voiceID)
	if err != nil {
		return "", err
	}

	path, err := asset.ResolveOutputPath(audioDir, fileName)
	if err != nil {
		return "", err
	}

	if err := s.writer.Write(ctx, path, bytes.NewReader(audio), audioMimeType); err != nil {
		return "", err
	}

	slog.DebugContext(ctx, "クリップを保存したのだ", "path", path, "voice", voiceID, "bytes", len(audio))
	return path, nil
}
