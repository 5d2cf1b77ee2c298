package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestBook_JSON(t *testing.T) {
	t.Run("Book構造体が往復変換できるのだ", func(t *testing.T) {
		book := Book{
			BookID: "book-001",
			Title:  "小兔子的冒险",
			Pages: []Page{
				{
					PageNumber:       1,
					SceneDescription: "森の入り口",
					Narrator:         "从前有一只小兔子",
					Dialogues: []Dialogue{
						{Character: "小兔子", Text: "今天天气真好！", Emotion: "happy"},
					},
				},
			},
			Characters: map[string]Character{
				"小兔子": {Name: "小兔子", Gender: GenderFemale, Age: AgeChild, Voice: "zh-CN-XiaoyiNeural"},
			},
			AudioManifest: []PageAudio{
				{
					PageIndex: 0,
					Clips: []AudioClip{
						{Path: "page_0_narrator.mp3", Role: RoleNarrator, PageIndex: 0, DialogueIndex: NarratorDialogueIndex},
						{Path: "page_0_dialogue_0.mp3", Role: RoleDialogue, PageIndex: 0, DialogueIndex: 0},
					},
				},
			},
			CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		}

		data, err := json.Marshal(book)
		if err != nil {
			t.Fatalf("Marshal失敗なのだ: %v", err)
		}

		var decoded Book
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal失敗なのだ: %v", err)
		}

		if !reflect.DeepEqual(book, decoded) {
			t.Errorf("変換前後でデータが一致しないのだ。期待: %+v, 実際: %+v", book, decoded)
		}
	})

	t.Run("解析APIのレスポンス形式をシミュレートするのだ", func(t *testing.T) {
		inputJSON := `{
			"pages": [
				{
					"page_number": 1,
					"scene_description": "公园里",
					"narrator": "你好",
					"dialogues": [
						{"character": "小明", "text": "", "emotion": "happy"}
					]
				}
			],
			"characters": {
				"小明": {"gender": "male", "age": "child", "voice": "zh-CN-XiaoyiNeural"}
			}
		}`

		var analysis Analysis
		if err := json.Unmarshal([]byte(inputJSON), &analysis); err != nil {
			t.Fatalf("パース失敗なのだ: %v", err)
		}

		if len(analysis.Pages) != 1 || analysis.Pages[0].Narrator != "你好" {
			t.Error("ページ内容が正しくパースされていないのだ")
		}
		if analysis.Characters["小明"].Voice != "zh-CN-XiaoyiNeural" {
			t.Errorf("キャラクターのvoiceが違うのだ: %s", analysis.Characters["小明"].Voice)
		}
	})
}

func TestParseCharacters(t *testing.T) {
	// 1. 正常系：正しいJSONからマップが生成され、キーが Name に反映されること
	jsonInput := []byte(`{
		"小熊": {"gender": "male", "age": "child", "voice": "zh-CN-XiaoyiNeural"}
	}`)

	chars, err := ParseCharacters(jsonInput)
	if err != nil {
		t.Fatalf("正常なJSONでエラーが発生しました: %v", err)
	}

	if chars["小熊"].Name != "小熊" {
		t.Errorf("期待値 '小熊', 実際の値 '%s'", chars["小熊"].Name)
	}

	// 2. 異常系：不正なJSONでエラーが返ること
	_, err = ParseCharacters([]byte(`{ invalid json }`))
	if err == nil {
		t.Error("不正なJSONでエラーが発生しませんでした")
	}
}

func TestNormalizeCharacters(t *testing.T) {
	t.Run("genderが空の場合はunspecifiedに補完されるのだ", func(t *testing.T) {
		src := map[string]Character{
			"路人": {Voice: ""},
		}
		got := NormalizeCharacters(src)
		if got["路人"].Gender != GenderUnspecified {
			t.Errorf("期待値 '%s', 実際の値 '%s'", GenderUnspecified, got["路人"].Gender)
		}
	})

	t.Run("防御的コピーが行われること", func(t *testing.T) {
		src := map[string]Character{
			"小熊": {Name: "小熊", Voice: "zh-CN-XiaoyiNeural"},
		}
		got := NormalizeCharacters(src)
		src["小熊"] = Character{Name: "改変"}
		if got["小熊"].Name != "小熊" {
			t.Error("コピー後のマップが元マップの変更に影響されています")
		}
	})
}

func TestClipError(t *testing.T) {
	cause := ErrSynthesisFailed
	clipErr := NewClipError(2, 1, RoleDialogue, "zh-CN-YunxiNeural", cause)

	t.Run("errors.IsでErrSynthesisFailedに辿れるのだ", func(t *testing.T) {
		if !errors.Is(clipErr, ErrSynthesisFailed) {
			t.Error("ClipError から ErrSynthesisFailed に到達できません")
		}
	})

	t.Run("失敗箇所がメッセージに含まれるのだ", func(t *testing.T) {
		msg := clipErr.Error()
		if msg == "" {
			t.Error("メッセージが空です")
		}
	})
}
