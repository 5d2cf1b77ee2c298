// Package bookstore は完成した絵本バンドルの永続化と検索を担うのだ。
// パイプラインからはこの抽象インターフェースだけが見えるため、
// ファイルシステム以外のバックエンドへの差し替えも可能です。
package bookstore

import (
	"context"

	"github.com/shouni/go-ehon-kit/pkg/domain"
)

// Store は絵本スナップショットの永続化契約です。
//   - Persist は bookId をキーとした全置換のアップサートであり、追記ではありません。
//   - Get は保存済みスナップショットを取得し、音声参照を配信可能な形へ書き換えます。
//   - List は作成日時の降順で一覧メタデータを返します。
type Store interface {
	Persist(ctx context.Context, book *domain.Book) error
	Get(ctx context.Context, bookID string) (*domain.Book, error)
	List(ctx context.Context) ([]domain.BookSummary, error)
}

// AudioLocator は音声クリップの物理的な置き場所を解決する契約です。
// ファイルシステム実装の FileStore が Store と合わせて満たすのだ。
type AudioLocator interface {
	// AudioDir は合成時の出力先ディレクトリを返す
	AudioDir(bookID string) string
	// AudioFilePath は配信時の実ファイルパスを返す（不正なファイル名には空文字列）
	AudioFilePath(bookID, fileName string) string
}
