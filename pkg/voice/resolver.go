// Package voice は、キャラクターレジストリから具体的な音声IDを導くための
// 純粋なルックアップ部品を提供するのだ。声の割り当ては上流の解析ステップで
// 一度だけ決定され、ここでは参照するだけです。台詞ごとに再計算すると
// ページをまたいだ同一キャラクターの声が揺れる危険があるためなのだ。
package voice

import "github.com/shouni/go-ehon-kit/pkg/domain"

// Table は属性と音声IDの対応表です。プロセス全体で読み取り専用として扱い、
// グローバル参照ではなく明示的に注入します。
type Table struct {
	Narrator string
	Child    string
	Male     string
	Female   string
}

// DefaultTable は edge-tts 系エンドポイントで利用できる中国語音声のデフォルト対応表なのだ。
func DefaultTable() Table {
	return Table{
		Narrator: "zh-CN-XiaoxiaoNeural",
		Child:    "zh-CN-XiaoyiNeural",
		Male:     "zh-CN-YunxiNeural",
		Female:   "zh-CN-XiaochenNeural",
	}
}

// Resolver はキャラクター名から音声IDを解決します。I/Oなし、常に値を返します。
type Resolver struct {
	table Table
}

// NewResolver は対応表を注入して Resolver を生成します。
func NewResolver(table Table) *Resolver {
	return &Resolver{table: table}
}

// Resolve はレジストリに登録済みで voice が空でなければその値を、
// それ以外はナレーターのデフォルト音声を返すのだ。エラーは返しません。
func (r *Resolver) Resolve(characterName string, registry map[string]domain.Character) string {
	if char, ok := registry[characterName]; ok && char.Voice != "" {
		return char.Voice
	}
	return r.table.Narrator
}

// NarratorVoice はナレーションに使う固定の音声IDを返します。
func (r *Resolver) NarratorVoice() string {
	return r.table.Narrator
}

// DefaultFor は属性（性別・年齢区分）からデフォルトの音声IDを導くのだ。
// 解析ステップがレジストリを埋める際の規約と同じ対応を使います。
func (r *Resolver) DefaultFor(char domain.Character) string {
	if char.Age == domain.AgeChild {
		return r.table.Child
	}
	switch char.Gender {
	case domain.GenderMale:
		return r.table.Male
	case domain.GenderFemale:
		return r.table.Female
	default:
		return r.table.Narrator
	}
}
