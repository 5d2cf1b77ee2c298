package cmd

import (
	"fmt"
	"os"

	"github.com/shouni/go-ehon-kit/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

// opts は CLI フラグで上書きされる実行時パラメータなのだ。
var opts config.Options

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- ソース入力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.ImageDir, "image-dir", "i", "", "解析対象のページ画像ディレクトリ（ローカル or gs://...）なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.Title, "title", "t", "", "絵本のタイトルなのだ。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "音声クリップの保存先（省略時はデータディレクトリ配下）なのだ。")

	// --- サーバー・実行制御 ---
	rootCmd.PersistentFlags().StringVarP(&opts.ListenAddr, "listen", "l", config.DefaultListenAddr, "APIサーバーの待ち受けアドレスなのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "外部APIリクエストのタイムアウトなのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.RateInterval, "rate-interval", config.DefaultRateInterval, "TTSリクエストの最小間隔なのだ。")
	rootCmd.PersistentFlags().IntVarP(&opts.MaxParallel, "max-parallel", "p", config.DefaultMaxParallel, "同時に合成するページ数の上限なのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// MiniMax APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("MINIMAX_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 MINIMAX_API_KEY が設定されていません。画像解析と音声合成の利用には必須なのだ")
	}

	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"ehon-kit",
		addAppFlags,
		preRunAppE,
		serveCmd,
		synthesizeCmd,
	)
}
