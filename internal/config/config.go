package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"

	"github.com/shouni/go-ehon-kit/pkg/voice"
)

// デフォルト値の定義なのだ
const (
	DefaultAnalyzerBaseURL = "https://api.minimaxi.com/anthropic"
	DefaultAnalyzerModel   = "MiniMax-M2.5"
	DefaultTTSEndpoint     = "https://api.minimaxi.com"
	DefaultTTSModel        = "speech-02-turbo"
	DefaultDataDir         = "data/books"
	DefaultListenAddr      = ":8000"
	DefaultHTTPTimeout     = 120 * time.Second
	DefaultRateInterval    = 500 * time.Millisecond
	DefaultMaxParallel     = 4
)

// Config はアプリケーション全体の環境設定（APIキーや音声設定）を保持する構造体なのだ。
type Config struct {
	AnalyzerBaseURL string
	AnalyzerAPIKey  string
	AnalyzerModel   string

	TTSEndpoint string
	TTSAPIKey   string
	TTSModel    string

	DataDir string

	Voices voice.Table

	Options Options
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	cfg := &Config{
		AnalyzerBaseURL: envutil.GetEnv("ANALYZER_BASE_URL", DefaultAnalyzerBaseURL),
		AnalyzerAPIKey:  envutil.GetEnv("MINIMAX_API_KEY", ""),
		AnalyzerModel:   envutil.GetEnv("ANALYZER_MODEL", DefaultAnalyzerModel),
		TTSEndpoint:     envutil.GetEnv("TTS_ENDPOINT", DefaultTTSEndpoint),
		TTSAPIKey:       envutil.GetEnv("TTS_API_KEY", envutil.GetEnv("MINIMAX_API_KEY", "")),
		TTSModel:        envutil.GetEnv("TTS_MODEL", DefaultTTSModel),
		DataDir:         envutil.GetEnv("BOOKS_DATA_DIR", DefaultDataDir),
		Voices: voice.Table{
			Narrator: envutil.GetEnv("VOICE_NARRATOR", voice.DefaultTable().Narrator),
			Child:    envutil.GetEnv("VOICE_CHILD", voice.DefaultTable().Child),
			Male:     envutil.GetEnv("VOICE_MALE", voice.DefaultTable().Male),
			Female:   envutil.GetEnv("VOICE_FEMALE", voice.DefaultTable().Female),
		},
	}
	return cfg
}

// Options は CLI フラグから渡される実行時のパラメータなのだ。
type Options struct {
	// 入出力関連
	ImageDir   string // --image-dir: 解析対象のページ画像ディレクトリ
	OutputDir  string // --output-dir: 音声クリップの出力先（ローカル or GCS）
	Title      string // --title
	ListenAddr string // --listen: サーバーの待ち受けアドレス

	// 実行制御
	HTTPTimeout  time.Duration // --http-timeout
	RateInterval time.Duration // --rate-interval: TTS呼び出しの最小間隔
	MaxParallel  int           // --max-parallel: ページ合成の並列数
}
