package ttsengine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shouni/go-ehon-kit/pkg/domain"
)

func TestClient_Synthesize(t *testing.T) {
	t.Run("正常系：音声バイト列が返るのだ", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/audio/speech" {
				t.Errorf("期待値 '/v1/audio/speech', 実際の値 '%s'", r.URL.Path)
			}
			var req speechRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("リクエストのデコードに失敗: %v", err)
			}
			if req.Input != "你好" || req.Voice != "zh-CN-XiaoxiaoNeural" {
				t.Errorf("リクエスト内容が違うのだ: %+v", req)
			}
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write([]byte("mp3-bytes"))
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", "tts-1", 5*time.Second)
		audio, err := client.Synthesize(context.Background(), "你好", "zh-CN-XiaoxiaoNeural")
		if err != nil {
			t.Fatalf("予期しないエラーなのだ: %v", err)
		}
		if string(audio) != "mp3-bytes" {
			t.Errorf("期待値 'mp3-bytes', 実際の値 '%s'", string(audio))
		}
	})

	t.Run("異常系：非200応答はErrSynthesisFailedになるのだ", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewClient(server.URL, "", "", 5*time.Second)
		_, err := client.Synthesize(context.Background(), "你好", "zh-CN-XiaoxiaoNeural")
		if !errors.Is(err, domain.ErrSynthesisFailed) {
			t.Errorf("ErrSynthesisFailed が返されるべきなのだ。実際: %v", err)
		}
	})

	t.Run("異常系：空の音声データはエラーになるのだ", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(server.URL, "", "", 5*time.Second)
		_, err := client.Synthesize(context.Background(), "你好", "zh-CN-XiaoxiaoNeural")
		if !errors.Is(err, domain.ErrSynthesisFailed) {
			t.Errorf("ErrSynthesisFailed が返されるべきなのだ。実際: %v", err)
		}
	})
}
