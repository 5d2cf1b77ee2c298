package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-ehon-kit/internal/builder"
	"github.com/shouni/go-ehon-kit/internal/config"
	"github.com/shouni/go-ehon-kit/internal/server"
	"github.com/shouni/go-ehon-kit/pkg/bookstore"

	"github.com/spf13/cobra"
)

// serveCmd は、絵本パイプラインをHTTP APIとして公開するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "絵本APIサーバーを起動するのだ。",
	Long: `画像解析・音声合成・絵本の保存と配信をHTTPエンドポイントとして公開するのだ。
フロントエンドはこのAPIを叩いて絵本の読み聞かせを組み立てるのだよ。`,
	RunE: serveCommand,
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := config.LoadConfig()
	cfg.Options = opts

	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return fmt.Errorf("アプリケーションの初期化に失敗したのだ: %w", err)
	}

	// ファイルストアは音声クリップの配置解決も兼ねるのだ
	locator, ok := appCtx.Store.(bookstore.AudioLocator)
	if !ok {
		return fmt.Errorf("ストアが音声クリップの配置解決に対応していないのだ")
	}

	slog.Info("絵本APIサーバーを起動するのだ！",
		"listen", opts.ListenAddr,
		"data_dir", cfg.DataDir,
		"analyzer_model", cfg.AnalyzerModel,
		"tts_model", cfg.TTSModel)

	return server.New(appCtx, locator).Run(ctx)
}
