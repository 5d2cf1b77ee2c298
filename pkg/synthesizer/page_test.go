package synthesizer

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/voice"
)

// fakeTTS は与えられたテキストと声の組を記録し、固定バイト列を返すスタブなのだ。
type fakeTTS struct {
	calls   []ttsCall
	failOn  string // このテキストの合成だけ失敗させる
	failErr error
}

type ttsCall struct {
	text  string
	voice string
}

func (f *fakeTTS) Synthesize(_ context.Context, text, voiceID string) ([]byte, error) {
	f.calls = append(f.calls, ttsCall{text: text, voice: voiceID})
	if f.failOn != "" && text == f.failOn {
		return nil, f.failErr
	}
	return []byte("audio:" + text), nil
}

// memWriter はクリップの書き出しをメモリに記録するスタブなのだ。
type memWriter struct {
	written map[string][]byte
}

func newMemWriter() *memWriter {
	return &memWriter{written: make(map[string][]byte)}
}

func (w *memWriter) Write(_ context.Context, path string, content io.Reader, _ string) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	w.written[path] = data
	return nil
}

func testRegistry() map[string]domain.Character {
	return map[string]domain.Character{
		"小明": {Name: "小明", Gender: domain.GenderMale, Age: domain.AgeChild, Voice: "zh-CN-XiaoyiNeural"},
	}
}

func TestPageSynthesizer_SynthesizePage(t *testing.T) {
	t.Run("ナレーションが先頭、台詞が元の順序で続くのだ", func(t *testing.T) {
		tts := &fakeTTS{}
		writer := newMemWriter()
		ps := NewPageSynthesizer(tts, voice.NewResolver(voice.DefaultTable()), writer)

		page := domain.Page{
			PageNumber: 1,
			Narrator:   "从前有一只小兔子",
			Dialogues: []domain.Dialogue{
				{Character: "小明", Text: "你好！", Emotion: "happy"},
				{Character: "路人", Text: "早上好。", Emotion: "calm"},
			},
		}

		result, failures := ps.SynthesizePage(context.Background(), page, testRegistry(), 0, "out/audio")
		if len(failures) != 0 {
			t.Fatalf("失敗は発生しないはずなのだ: %v", failures)
		}
		if len(result.Clips) != 3 {
			t.Fatalf("期待値 3クリップ, 実際の値 %dクリップ", len(result.Clips))
		}

		if result.Clips[0].Role != domain.RoleNarrator {
			t.Error("先頭はナレーションであるべきなのだ")
		}
		if result.Clips[1].DialogueIndex != 0 || result.Clips[2].DialogueIndex != 1 {
			t.Error("台詞クリップの順序が元の順序と一致しないのだ")
		}

		// 声の解決：登録済みはレジストリの声、未登録はナレーターの声なのだ
		if tts.calls[1].voice != "zh-CN-XiaoyiNeural" {
			t.Errorf("期待値 'zh-CN-XiaoyiNeural', 実際の値 '%s'", tts.calls[1].voice)
		}
		if tts.calls[2].voice != "zh-CN-XiaoxiaoNeural" {
			t.Errorf("期待値 'zh-CN-XiaoxiaoNeural', 実際の値 '%s'", tts.calls[2].voice)
		}
	})

	t.Run("空テキストの台詞はスキップされるのだ", func(t *testing.T) {
		tts := &fakeTTS{}
		ps := NewPageSynthesizer(tts, voice.NewResolver(voice.DefaultTable()), newMemWriter())

		page := domain.Page{
			PageNumber: 1,
			Narrator:   "你好",
			Dialogues: []domain.Dialogue{
				{Character: "小明", Text: "", Emotion: "happy"},
			},
		}

		result, failures := ps.SynthesizePage(context.Background(), page, testRegistry(), 0, "out/audio")
		if len(failures) != 0 {
			t.Fatalf("失敗は発生しないはずなのだ: %v", failures)
		}
		if len(result.Clips) != 1 {
			t.Fatalf("ナレーション1クリップのみのはずなのだ。実際 %dクリップ", len(result.Clips))
		}
		if result.Clips[0].Role != domain.RoleNarrator {
			t.Error("唯一のクリップはナレーションであるべきなのだ")
		}
	})

	t.Run("ナレーションが空ならナレーションクリップは作られないのだ", func(t *testing.T) {
		tts := &fakeTTS{}
		ps := NewPageSynthesizer(tts, voice.NewResolver(voice.DefaultTable()), newMemWriter())

		page := domain.Page{
			Narrator:  "  ",
			Dialogues: []domain.Dialogue{{Character: "小明", Text: "你好"}},
		}

		result, _ := ps.SynthesizePage(context.Background(), page, testRegistry(), 2, "out/audio")
		if len(result.Clips) != 1 || result.Clips[0].Role != domain.RoleDialogue {
			t.Errorf("台詞クリップのみが期待されるのだ: %+v", result.Clips)
		}
	})

	t.Run("1クリップの失敗は他のクリップを無効化しないのだ", func(t *testing.T) {
		tts := &fakeTTS{failOn: "失败的台词", failErr: errors.New("tts down")}
		ps := NewPageSynthesizer(tts, voice.NewResolver(voice.DefaultTable()), newMemWriter())

		page := domain.Page{
			Narrator: "旁白",
			Dialogues: []domain.Dialogue{
				{Character: "小明", Text: "失败的台词"},
				{Character: "小明", Text: "成功的台词"},
			},
		}

		result, failures := ps.SynthesizePage(context.Background(), page, testRegistry(), 1, "out/audio")
		if len(result.Clips) != 2 {
			t.Errorf("成功した2クリップは保持されるべきなのだ。実際 %dクリップ", len(result.Clips))
		}
		if len(failures) != 1 {
			t.Fatalf("失敗は1件のはずなのだ。実際 %d件", len(failures))
		}
		if failures[0].PageIndex != 1 || failures[0].DialogueIndex != 0 {
			t.Errorf("失敗箇所の特定が違うのだ: %+v", failures[0])
		}
		if !errors.Is(failures[0], domain.ErrSynthesisFailed) {
			t.Error("ClipError は ErrSynthesisFailed に辿れるべきなのだ")
		}
	})

	t.Run("クリップのファイル名が規約どおりなのだ", func(t *testing.T) {
		tts := &fakeTTS{}
		writer := newMemWriter()
		ps := NewPageSynthesizer(tts, voice.NewResolver(voice.DefaultTable()), writer)

		page := domain.Page{
			Narrator:  "旁白",
			Dialogues: []domain.Dialogue{{Character: "小明", Text: "你好"}},
		}

		result, _ := ps.SynthesizePage(context.Background(), page, testRegistry(), 3, "out/audio")
		if result.Clips[0].Path != "out/audio/page_3_narrator.mp3" {
			t.Errorf("期待値 'out/audio/page_3_narrator.mp3', 実際の値 '%s'", result.Clips[0].Path)
		}
		if result.Clips[1].Path != "out/audio/page_3_dialogue_0.mp3" {
			t.Errorf("期待値 'out/audio/page_3_dialogue_0.mp3', 実際の値 '%s'", result.Clips[1].Path)
		}
		if _, ok := writer.written["out/audio/page_3_narrator.mp3"]; !ok {
			t.Error("ナレーションクリップが書き出されていないのだ")
		}
	})
}
