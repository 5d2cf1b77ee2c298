package domain

import (
	"encoding/json"
	"fmt"
)

// Character は絵本に登場するキャラクターの声に関するメタデータを保持します。
// 名前がアイデンティティであり、レジストリのキーと一致します。
// Voice は上流の解析ステップで一度だけ決定され、以降は参照されるだけなのだ。
type Character struct {
	Name   string `json:"name,omitempty"`
	Gender string `json:"gender"`
	Age    string `json:"age"`
	Voice  string `json:"voice"`
}

// String はキャラクターの情報を文字列で返すのだ。
func (c Character) String() string {
	return fmt.Sprintf("%s (%s/%s)", c.Name, c.Gender, c.Age)
}

// ParseCharacters はJSONバイト列からキャラクターレジストリをパースして返すのだ。
func ParseCharacters(data []byte) (map[string]Character, error) {
	var chars map[string]Character
	if err := json.Unmarshal(data, &chars); err != nil {
		return nil, fmt.Errorf("キャラクター設定のデコードに失敗したのだ: %w", err)
	}
	return NormalizeCharacters(chars), nil
}

// NormalizeCharacters はマップキーを各エントリの Name に反映した防御的コピーを返すのだ。
// 呼び出し元の変更が内部状態へ波及するのを防ぐため、常に新しいマップを割り当てます。
func NormalizeCharacters(src map[string]Character) map[string]Character {
	copied := make(map[string]Character, len(src))
	for name, c := range src {
		if c.Name == "" {
			c.Name = name
		}
		if c.Gender == "" {
			c.Gender = GenderUnspecified
		}
		copied[name] = c
	}
	return copied
}
