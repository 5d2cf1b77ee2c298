package builder

import (
	"github.com/shouni/go-ehon-kit/internal/config"

	"github.com/shouni/go-ehon-kit/pkg/analyzer"
	"github.com/shouni/go-ehon-kit/pkg/bookstore"
	"github.com/shouni/go-ehon-kit/pkg/pipeline"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config   *config.Config        // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、音声テーブルなど）。
	Options  config.Options        // Optionsは、コマンドラインから渡された実行時の設定です（画像ディレクトリ、並列数など）。
	Reader   remoteio.InputReader  // Readerは、ページ画像の読み込みに使用する入力元です。
	Writer   remoteio.OutputWriter // Writerは、音声クリップを保存するための出力先です。
	Analyzer analyzer.Analyzer     // Analyzerは、ページ画像から構造化された語りデータを抽出する解析クライアントです。
	Pipeline *pipeline.BookPipeline
	Store    bookstore.Store
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(
	cfg *config.Config,
	reader remoteio.InputReader,
	writer remoteio.OutputWriter,
	analysisClient analyzer.Analyzer,
	bookPipeline *pipeline.BookPipeline,
	store bookstore.Store,
) AppContext {
	return AppContext{
		Config:   cfg,
		Options:  cfg.Options,
		Reader:   reader,
		Writer:   writer,
		Analyzer: analysisClient,
		Pipeline: bookPipeline,
		Store:    store,
	}
}
