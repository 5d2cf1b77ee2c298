package domain

import "time"

// RoleNarrator / RoleDialogue は音声クリップの役割を示す識別子です。
const (
	RoleNarrator = "narrator"
	RoleDialogue = "dialogue"
)

// 性別・年齢区分の識別子です。解析APIが返す値と一致させています。
const (
	GenderMale        = "male"
	GenderFemale      = "female"
	GenderUnspecified = "unspecified"

	AgeChild = "child"
	AgeAdult = "adult"
)

// NarratorDialogueIndex は、ナレーションクリップの DialogueIndex に入る番兵値なのだ。
const NarratorDialogueIndex = -1

// Dialogue は1ページ内の台詞1つ分の構造です。
// Character は登場人物レジストリに存在しない名前でも構いません（フォールバック適用）。
type Dialogue struct {
	Character string `json:"character"`
	Text      string `json:"text"`
	Emotion   string `json:"emotion"`
}

// Page は絵本の1ページ分の構造化データを保持します。
// PageNumber は参考情報であり、音声の並び順は配列上の位置で決まるのだ。
type Page struct {
	PageNumber       int        `json:"page_number"`
	SceneDescription string     `json:"scene_description"`
	Narrator         string     `json:"narrator"`
	Dialogues        []Dialogue `json:"dialogues"`
}

// AudioClip は合成済み音声1クリップ分の参照情報です。
type AudioClip struct {
	Path string `json:"path"`
	Role string `json:"role"`
	// PageIndex は pages 配列上の添字（pageNumber ではない）なのだ。
	PageIndex int `json:"page_index"`
	// DialogueIndex はナレーションの場合 NarratorDialogueIndex になる。
	DialogueIndex int `json:"dialogue_index"`
}

// PageAudio は1ページ分の音声成果物をまとめたものです。
// AudioManifest の i 番目は必ず pages の i 番目に対応します。
type PageAudio struct {
	PageIndex int         `json:"page_index"`
	Clips     []AudioClip `json:"clips"`
}

// Book は永続化される絵本バンドル全体のスナップショットです。
type Book struct {
	BookID        string               `json:"book_id"`
	Title         string               `json:"title"`
	Pages         []Page               `json:"pages"`
	Characters    map[string]Character `json:"characters"`
	AudioManifest []PageAudio          `json:"audio_manifest"`
	CreatedAt     time.Time            `json:"created_at"`
}

// BookSummary は一覧表示用に導出されるメタデータです。
type BookSummary struct {
	BookID    string    `json:"book_id"`
	Title     string    `json:"title"`
	PageCount int       `json:"page_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Analysis は画像解析ステップが返す構造化データ全体です。
// pages と characters は以降のパイプラインでは読み取り専用として扱うのだ。
type Analysis struct {
	Pages      []Page               `json:"pages"`
	Characters map[string]Character `json:"characters"`
}
