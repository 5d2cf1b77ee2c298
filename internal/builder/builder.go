package builder

import (
	"context"
	"fmt"

	"github.com/shouni/go-ehon-kit/internal/config"
	"github.com/shouni/go-ehon-kit/internal/prompt"

	"github.com/shouni/go-ehon-kit/pkg/analyzer"
	"github.com/shouni/go-ehon-kit/pkg/bookstore"
	"github.com/shouni/go-ehon-kit/pkg/pipeline"
	"github.com/shouni/go-ehon-kit/pkg/synthesizer"
	"github.com/shouni/go-ehon-kit/pkg/ttsengine"
	"github.com/shouni/go-ehon-kit/pkg/voice"

	"github.com/shouni/go-remote-io/pkg/gcsfactory"
)

// BuildAppContext は、提供された設定を使用してアプリケーションコンテキストを初期化して返すのだ。
// 解析クライアント・合成パイプライン・ストアをここで一度だけ組み立てます。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}

	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return nil, err
	}

	analysisClient, err := InitializeAnalyzer(cfg)
	if err != nil {
		return nil, fmt.Errorf("解析クライアントの初期化に失敗したのだ: %w", err)
	}

	bookPipeline := BuildBookPipeline(cfg, writer)

	store, err := bookstore.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("ブックストアの初期化に失敗したのだ: %w", err)
	}

	appCtx := NewAppContext(cfg, reader, writer, analysisClient, bookPipeline, store)
	return &appCtx, nil
}

// BuildBookPipeline はページ単位の音声合成パイプラインを構築します。
func BuildBookPipeline(cfg *config.Config, writer synthesizer.ClipWriter) *pipeline.BookPipeline {
	tts := ttsengine.NewClient(cfg.TTSEndpoint, cfg.TTSAPIKey, cfg.TTSModel, cfg.Options.HTTPTimeout)
	voices := voice.NewResolver(cfg.Voices)
	pages := synthesizer.NewPageSynthesizer(tts, voices, writer)

	return pipeline.NewBookPipeline(pages, cfg.Options.RateInterval, cfg.Options.MaxParallel)
}

// InitializeAnalyzer は画像解析クライアントを初期化します。
func InitializeAnalyzer(cfg *config.Config) (*analyzer.Client, error) {
	systemPrompt, err := prompt.GetAnalyzePrompt()
	if err != nil {
		return nil, err
	}

	return analyzer.NewClient(
		cfg.AnalyzerBaseURL,
		cfg.AnalyzerAPIKey,
		cfg.AnalyzerModel,
		systemPrompt,
		cfg.Options.HTTPTimeout,
	), nil
}
