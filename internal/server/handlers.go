package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/shouni/go-ehon-kit/pkg/domain"
)

// maxUploadBytes はページ画像アップロードの上限（全ファイル合計）なのだ。
const maxUploadBytes = 64 << 20

// synthesizeRequest は POST /api/synthesize のリクエストボディです。
// bookId を省略した場合はサーバー側で新しいIDを採番するのだ。
type synthesizeRequest struct {
	BookID     string                      `json:"book_id,omitempty"`
	Pages      []domain.Page               `json:"pages"`
	Characters map[string]domain.Character `json:"characters"`
}

// synthesizeResponse は合成結果のマニフェストと失敗単位の一覧です。
type synthesizeResponse struct {
	BookID        string              `json:"book_id"`
	AudioManifest []domain.PageAudio  `json:"audio_manifest"`
	Failures      []*domain.ClipError `json:"failures,omitempty"`
}

// saveBookRequest は POST /api/books/save のリクエストボディです。
type saveBookRequest struct {
	BookID        string                      `json:"book_id"`
	Title         string                      `json:"title"`
	Pages         []domain.Page               `json:"pages"`
	Characters    map[string]domain.Character `json:"characters"`
	AudioManifest []domain.PageAudio          `json:"audio_manifest"`
}

// handleAnalyze はアップロードされたページ画像列を解析して構造化データを返すのだ。
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Sprintf("マルチパートの解析に失敗したのだ: %v", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		s.writeError(w, http.StatusBadRequest, "bad_request", "画像ファイルが1枚も添付されていないのだ")
		return
	}

	// アップロード順がそのままページ順になるのだ
	images := make([][]byte, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "bad_request",
				fmt.Sprintf("画像 '%s' を開けなかったのだ: %v", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "bad_request",
				fmt.Sprintf("画像 '%s' の読み取りに失敗したのだ: %v", fh.Filename, err))
			return
		}
		images = append(images, data)
	}

	analysis, err := s.appCtx.Analyzer.Analyze(r.Context(), images)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, analysis)
}

// handleSynthesize は構造化データから全ページの音声クリップを生成するのだ。
// 一部のクリップが失敗しても全体は破棄せず、failures として返します。
func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Sprintf("リクエストボディの解析に失敗したのだ: %v", err))
		return
	}
	if len(req.Pages) == 0 {
		s.writeError(w, http.StatusBadRequest, "bad_request", "pages が空なのだ")
		return
	}

	bookID := req.BookID
	if bookID == "" {
		bookID = uuid.NewString()
	}

	registry := domain.NormalizeCharacters(req.Characters)
	audioDir := s.locator.AudioDir(bookID)

	manifest, report, err := s.appCtx.Pipeline.Generate(r.Context(), req.Pages, registry, audioDir)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if report.HasFailures() {
		slog.WarnContext(r.Context(), "一部のクリップ生成に失敗したのだ",
			"book_id", bookID, "failures", len(report.Failures))
	}

	s.writeJSON(w, http.StatusOK, synthesizeResponse{
		BookID:        bookID,
		AudioManifest: manifest,
		Failures:      report.Failures,
	})
}

// handleListBooks は保存済み絵本の一覧を新しい順で返すのだ。
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.appCtx.Store.List(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

// handleGetBook は指定IDの絵本を取得するのだ。音声参照は配信用URLに書き換え済みです。
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	bookID := r.PathValue("bookID")

	book, err := s.appCtx.Store.Get(r.Context(), bookID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, book)
}

// handleSaveBook は解析結果と音声マニフェストをひとつの絵本として永続化するのだ。
func (s *Server) handleSaveBook(w http.ResponseWriter, r *http.Request) {
	var req saveBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Sprintf("リクエストボディの解析に失敗したのだ: %v", err))
		return
	}
	if req.BookID == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "book_id は必須なのだ")
		return
	}

	book := &domain.Book{
		BookID:        req.BookID,
		Title:         req.Title,
		Pages:         req.Pages,
		Characters:    domain.NormalizeCharacters(req.Characters),
		AudioManifest: req.AudioManifest,
	}

	if err := s.appCtx.Store.Persist(r.Context(), book); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"book_id": req.BookID,
	})
}

// handleAudio は保存済みの音声クリップをそのまま配信するのだ。
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	bookID := r.PathValue("bookID")
	fileName := r.PathValue("fileName")

	audioPath := s.locator.AudioFilePath(bookID, fileName)
	if audioPath == "" {
		s.writeError(w, http.StatusNotFound, "not_found", "音声ファイルが見つからないのだ")
		return
	}
	if _, err := os.Stat(audioPath); err != nil {
		s.writeError(w, http.StatusNotFound, "not_found", "音声ファイルが見つからないのだ")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, audioPath)
}

// writeDomainError はドメインの番兵エラーをHTTPステータスとエラー種別に変換するのだ。
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBookNotFound):
		s.writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrAnalysisFailed):
		s.writeError(w, http.StatusBadGateway, "analysis_failed", err.Error())
	case errors.Is(err, domain.ErrSynthesisFailed):
		s.writeError(w, http.StatusBadGateway, "synthesis_failed", err.Error())
	case errors.Is(err, domain.ErrStorageFailed):
		s.writeError(w, http.StatusInternalServerError, "storage_failed", err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("レスポンスのエンコードに失敗したのだ", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, kind, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"kind":    kind,
			"message": message,
		},
	})
}
