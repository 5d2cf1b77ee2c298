package asset

import (
	"testing"

	"github.com/shouni/go-ehon-kit/pkg/domain"
)

func TestClipName(t *testing.T) {
	t.Run("ナレーションクリップの命名なのだ", func(t *testing.T) {
		got := NarratorClipName(0)
		if got != "page_0_narrator.mp3" {
			t.Errorf("期待値 'page_0_narrator.mp3', 実際の値 '%s'", got)
		}
	})

	t.Run("台詞クリップの命名なのだ", func(t *testing.T) {
		got := DialogueClipName(3, 2)
		if got != "page_3_dialogue_2.mp3" {
			t.Errorf("期待値 'page_3_dialogue_2.mp3', 実際の値 '%s'", got)
		}
	})

	t.Run("AudioClipからの導出なのだ", func(t *testing.T) {
		narrator := domain.AudioClip{Role: domain.RoleNarrator, PageIndex: 1, DialogueIndex: domain.NarratorDialogueIndex}
		if got := ClipName(narrator); got != "page_1_narrator.mp3" {
			t.Errorf("期待値 'page_1_narrator.mp3', 実際の値 '%s'", got)
		}

		dialogue := domain.AudioClip{Role: domain.RoleDialogue, PageIndex: 1, DialogueIndex: 0}
		if got := ClipName(dialogue); got != "page_1_dialogue_0.mp3" {
			t.Errorf("期待値 'page_1_dialogue_0.mp3', 実際の値 '%s'", got)
		}
	})
}

func TestClipFileRegex(t *testing.T) {
	valid := []string{"page_0_narrator.mp3", "page_12_dialogue_3.mp3"}
	for _, name := range valid {
		if !ClipFileRegex.MatchString(name) {
			t.Errorf("'%s' はクリップ名として一致するべきなのだ", name)
		}
	}

	invalid := []string{"page_narrator.mp3", "cover.png", "page_0_dialogue.mp3", "../page_0_narrator.mp3"}
	for _, name := range invalid {
		if ClipFileRegex.MatchString(name) {
			t.Errorf("'%s' はクリップ名として一致してはいけないのだ", name)
		}
	}
}
