package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shouni/go-ehon-kit/internal/builder"
	"github.com/shouni/go-ehon-kit/internal/config"
	"github.com/shouni/go-ehon-kit/pkg/bookstore"
	"github.com/shouni/go-ehon-kit/pkg/domain"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// analysisFile は --analysis-file で指定される構造化データのパスなのだ。
var analysisFile string

// synthesizeCmd は、解析済みJSONから音声付き絵本を一括生成するのだ。
var synthesizeCmd = &cobra.Command{
	Use:   "synthesize",
	Short: "解析済みJSONから音声クリップを一括生成して絵本として保存するのだ。",
	Long: `画像解析の結果（pages と characters を含むJSON）を読み込み、
全ページの音声クリップを合成してから1冊の絵本として永続化するのだ。
入力はローカルパスでも gs:// でも読めるのだよ。`,
	RunE: synthesizeCommand,
}

func init() {
	synthesizeCmd.Flags().StringVarP(&analysisFile, "analysis-file", "f", "", "解析結果JSONのパス（ローカル or gs://...）なのだ。")
}

func synthesizeCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if analysisFile == "" {
		return fmt.Errorf("入力（--analysis-file）を指定してほしいのだ")
	}

	cfg := config.LoadConfig()
	cfg.Options = opts

	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return fmt.Errorf("アプリケーションの初期化に失敗したのだ: %w", err)
	}

	// 解析結果JSONの読み込み
	rc, err := appCtx.Reader.Open(ctx, analysisFile)
	if err != nil {
		return fmt.Errorf("解析結果 '%s' の読み込みに失敗したのだ: %w", analysisFile, err)
	}
	defer rc.Close()

	var analysis domain.Analysis
	if err := json.NewDecoder(rc).Decode(&analysis); err != nil {
		return fmt.Errorf("解析結果 '%s' のデコードに失敗したのだ: %w", analysisFile, err)
	}
	if len(analysis.Pages) == 0 {
		return fmt.Errorf("解析結果にページが1つも含まれていないのだ")
	}

	bookID := uuid.NewString()
	registry := domain.NormalizeCharacters(analysis.Characters)
	audioDir := resolveAudioDir(appCtx, bookID)

	slog.Info("音声合成パイプラインを起動するのだ！",
		"book_id", bookID,
		"pages", len(analysis.Pages),
		"audio_dir", audioDir,
		"max_parallel", opts.MaxParallel)

	manifest, report, err := appCtx.Pipeline.Generate(ctx, analysis.Pages, registry, audioDir)
	if err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	if report.HasFailures() {
		for _, failure := range report.Failures {
			slog.Warn("クリップの生成に失敗したのだ",
				"page_index", failure.PageIndex,
				"dialogue_index", failure.DialogueIndex,
				"role", failure.Role,
				"error", failure.Message)
		}
	}

	book := &domain.Book{
		BookID:        bookID,
		Title:         opts.Title,
		Pages:         analysis.Pages,
		Characters:    registry,
		AudioManifest: manifest,
	}
	if book.Title == "" {
		book.Title = "Untitled"
	}

	if err := appCtx.Store.Persist(ctx, book); err != nil {
		return fmt.Errorf("絵本の保存に失敗したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！",
		"book_id", bookID,
		"failures", len(report.Failures))
	return nil
}

// resolveAudioDir は音声クリップの出力先を決めるのだ。
// --output-dir が指定されていればそちら（gs:// も可）、なければストアの配下なのだ。
func resolveAudioDir(appCtx *builder.AppContext, bookID string) string {
	if appCtx.Options.OutputDir != "" {
		return appCtx.Options.OutputDir
	}
	if locator, ok := appCtx.Store.(bookstore.AudioLocator); ok {
		return locator.AudioDir(bookID)
	}
	return appCtx.Config.DataDir
}
