// Package server は絵本パイプラインを公開するHTTPアダプタなのだ。
// ルーティングとJSON変換だけを担い、ドメインの処理は pkg 側に委譲します。
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/shouni/go-ehon-kit/internal/builder"
	"github.com/shouni/go-ehon-kit/pkg/bookstore"
)

// Server は HTTP API のライフサイクルを管理する構造体なのだ。
type Server struct {
	appCtx  *builder.AppContext
	locator bookstore.AudioLocator

	server *http.Server
}

// New は AppContext からルーティング済みの Server を構築します。
// locator には通常 FileStore をそのまま渡すのだ。
func New(appCtx *builder.AppContext, locator bookstore.AudioLocator) *Server {
	srv := &Server{
		appCtx:  appCtx,
		locator: locator,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", srv.handleAnalyze)
	mux.HandleFunc("POST /api/synthesize", srv.handleSynthesize)
	mux.HandleFunc("GET /api/books", srv.handleListBooks)
	mux.HandleFunc("GET /api/books/{bookID}", srv.handleGetBook)
	mux.HandleFunc("POST /api/books/save", srv.handleSaveBook)
	mux.HandleFunc("GET /api/audio/{bookID}/{fileName}", srv.handleAudio)

	srv.server = &http.Server{
		Addr:              appCtx.Options.ListenAddr,
		Handler:           withCORS(mux),
		ReadHeaderTimeout: 5 * time.Second,
		// 解析・合成は外部AIの応答待ちで長くなるため、読み書きは長めに取るのだ
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return srv
}

// Run はサーバーを起動し、ctx のキャンセルで graceful shutdown するのだ。
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("待ち受けに失敗したのだ (%s): %w", s.server.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()

	slog.InfoContext(ctx, "絵本APIサーバーが起動したのだ", "address", listener.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("シャットダウンに失敗したのだ: %w", err)
		}
		slog.Info("絵本APIサーバーを停止したのだ")
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("サーバーが異常終了したのだ: %w", err)
		}
		return nil
	}
}

// Handler はテストから直接叩けるようにルーティング済みハンドラを返すのだ。
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// withCORS は全オリジン許可のCORSヘッダを付与するミドルウェアなのだ。
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
