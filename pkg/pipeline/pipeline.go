// Package pipeline は絵本全体の音声生成をオーケストレートする司令塔なのだ。
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/synthesizer"
)

// Report は生成処理で発生した失敗単位の一覧を保持します。
// 1クリップの失敗で全体を破棄する代わりに、呼び出し側が失敗単位だけ
// 再試行できるようにするのだ。
type Report struct {
	Failures []*domain.ClipError `json:"failures,omitempty"`
}

// HasFailures は1件でも失敗があったかどうかを返すのだ。
func (r *Report) HasFailures() bool {
	return len(r.Failures) > 0
}

// BookPipeline は全ページの音声合成を並列実行し、ページ順のマニフェストを組み立てます。
type BookPipeline struct {
	pages       *synthesizer.PageSynthesizer
	limiter     *rate.Limiter
	maxParallel int
}

// NewBookPipeline は BookPipeline を生成します。
// interval は外部TTSサービスへのリクエスト間隔、maxParallel は同時処理ページ数の上限なのだ。
func NewBookPipeline(pages *synthesizer.PageSynthesizer, interval time.Duration, maxParallel int) *BookPipeline {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &BookPipeline{
		pages: pages,
		// Burst 2 により、開始直後に2ページまでは待ちなしでリクエストを開始できるのだ
		limiter:     rate.NewLimiter(rate.Every(interval), 2),
		maxParallel: maxParallel,
	}
}

// Generate は並列処理を用いて全ページの音声を合成するメインロジックなのだ。
// 結果は事前確保したスライスの添字スロットに格納するため、完了順に関係なく
// 最終的な並びは pages の順序と厳密に一致します。
// レジストリは読み取り専用であり、ページ間に依存関係はないのだ。
func (bp *BookPipeline) Generate(
	ctx context.Context,
	pages []domain.Page,
	registry map[string]domain.Character,
	audioDir string,
) ([]domain.PageAudio, *Report, error) {
	if len(pages) == 0 {
		return nil, nil, fmt.Errorf("合成対象のページが1つもないのだ")
	}

	results := make([]domain.PageAudio, len(pages))
	report := &Report{}
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(bp.maxParallel)

	slog.Info("並列音声合成を開始するのだ", "pages", len(pages), "max_parallel", bp.maxParallel)

	for i, page := range pages {
		i, page := i, page // ゴルーチンのクロージャ対策なのだ

		eg.Go(func() error {
			// 1. レートリミットに従って、自分の番が来るまで待機するのだ
			if err := bp.limiter.Wait(egCtx); err != nil {
				return err
			}

			startTime := time.Now()
			pageAudio, failures := bp.pages.SynthesizePage(egCtx, page, registry, i, audioDir)
			results[i] = pageAudio

			if len(failures) > 0 {
				mu.Lock()
				report.Failures = append(report.Failures, failures...)
				mu.Unlock()
				slog.Warn("一部のクリップ合成に失敗したのだ",
					"page", i+1, "failed", len(failures), "succeeded", len(pageAudio.Clips))
				return nil
			}

			slog.Info("ページの合成が完了したのだ",
				"page", i+1, "clips", len(pageAudio.Clips),
				"duration", time.Since(startTime).Round(time.Millisecond))
			return nil
		})
	}

	// すべての並列処理が完了するのを待つのだ
	if err := eg.Wait(); err != nil {
		return nil, nil, fmt.Errorf("音声合成パイプラインが中断されたのだ: %w", err)
	}

	// 失敗一覧は報告を安定させるためページ・台詞の順に整列するのだ
	sort.Slice(report.Failures, func(a, b int) bool {
		if report.Failures[a].PageIndex != report.Failures[b].PageIndex {
			return report.Failures[a].PageIndex < report.Failures[b].PageIndex
		}
		return report.Failures[a].DialogueIndex < report.Failures[b].DialogueIndex
	})

	slog.Info("すべてのページの合成が終わったのだ", "pages", len(results), "failures", len(report.Failures))
	return results, report, nil
}
