package bookstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/shouni/go-ehon-kit/pkg/asset"
	"github.com/shouni/go-ehon-kit/pkg/domain"
)

const (
	// AudioURLPrefix は配信用に書き換えられた音声参照の接頭辞なのだ。
	AudioURLPrefix = "/api/audio"

	snapshotCacheTTL     = 30 * time.Minute
	snapshotCacheCleanup = 1 * time.Hour
)

// FileStore は「1冊 = 1ディレクトリ + content.json + audio/」というレイアウトの
// ファイルシステム実装です。スナップショットは一時ファイル経由で原子的に
// 置き換えるため、同時読み取りに書きかけの状態が見えることはないのだ。
type FileStore struct {
	dataDir string

	// snapshots は content.json のバイト列キャッシュなのだ（キー: bookId）
	snapshots *cache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore は dataDir 配下を永続化領域とする FileStore を生成します。
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: データディレクトリの作成に失敗したのだ: %w", domain.ErrStorageFailed, err)
	}
	return &FileStore{
		dataDir:   dataDir,
		snapshots: cache.New(snapshotCacheTTL, snapshotCacheCleanup),
		locks:     make(map[string]*sync.Mutex),
	}, nil
}

// AudioDir は指定絵本の音声クリップ格納ディレクトリを返すのだ。
func (fs *FileStore) AudioDir(bookID string) string {
	return filepath.Join(fs.dataDir, bookID, asset.DefaultAudioDir)
}

// AudioFilePath は配信用に音声ファイルの実パスを解決するのだ。
// ファイル名が命名規約に一致しない場合は空文字列を返します（パストラバーサル対策）。
func (fs *FileStore) AudioFilePath(bookID, fileName string) string {
	if fileName != filepath.Base(fileName) || !asset.ClipFileRegex.MatchString(fileName) {
		return ""
	}
	return filepath.Join(fs.AudioDir(bookID), fileName)
}

// Persist は絵本全体のスナップショットを bookId 配下へ書き込むのだ。
// 同一IDに対する書き込みは直列化され、常に全置換（アップサート）となります。
// CreatedAt が未設定の場合はこの時点の時刻が刻まれるのだ。
func (fs *FileStore) Persist(ctx context.Context, book *domain.Book) error {
	if book == nil || book.BookID == "" {
		return fmt.Errorf("%w: bookId が指定されていないのだ", domain.ErrStorageFailed)
	}

	lock := fs.bookLock(book.BookID)
	lock.Lock()
	defer lock.Unlock()

	snapshot := *book
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}

	// この時点でエンコードした内容がスナップショットの全てであり、
	// 以後の呼び出し元の変更は保存内容に影響しないのだ。
	data, err := json.MarshalIndent(&snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: スナップショットのエンコードに失敗したのだ: %w", domain.ErrStorageFailed, err)
	}

	bookDir := filepath.Join(fs.dataDir, snapshot.BookID)
	if err := os.MkdirAll(bookDir, 0o755); err != nil {
		return fmt.Errorf("%w: 絵本ディレクトリの作成に失敗したのだ: %w", domain.ErrStorageFailed, err)
	}

	// 一時ファイルへ書いてから rename することで原子的に置き換えるのだ
	contentPath := filepath.Join(bookDir, asset.DefaultContentName)
	tmpPath := contentPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("%w: スナップショットの書き込みに失敗したのだ: %w", domain.ErrStorageFailed, err)
	}
	if err := os.Rename(tmpPath, contentPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: スナップショットの置き換えに失敗したのだ: %w", domain.ErrStorageFailed, err)
	}

	fs.snapshots.Set(snapshot.BookID, data, cache.DefaultExpiration)

	slog.InfoContext(ctx, "絵本を保存したのだ",
		"book_id", snapshot.BookID, "title", snapshot.Title, "pages", len(snapshot.Pages))
	return nil
}

// Get は保存済みスナップショットを読み込み、音声参照を配信可能なURLへ書き換えて返すのだ。
// スナップショットが存在しない場合は ErrBookNotFound を返します。
func (fs *FileStore) Get(_ context.Context, bookID string) (*domain.Book, error) {
	data, err := fs.loadSnapshot(bookID)
	if err != nil {
		return nil, err
	}

	var book domain.Book
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("%w: スナップショットのデコードに失敗したのだ (book_id: %s): %w",
			domain.ErrStorageFailed, bookID, err)
	}

	rewriteAudioRefs(&book)
	return &book, nil
}

// List は全絵本の一覧メタデータを作成日時の降順で返すのだ。
// 読めない・壊れているスナップショットは一覧を致命させず、ログに残してスキップします。
func (fs *FileStore) List(ctx context.Context) ([]domain.BookSummary, error) {
	entries, err := os.ReadDir(fs.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.BookSummary{}, nil
		}
		return nil, fmt.Errorf("%w: データディレクトリの読み取りに失敗したのだ: %w", domain.ErrStorageFailed, err)
	}

	summaries := make([]domain.BookSummary, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		contentPath := filepath.Join(fs.dataDir, entry.Name(), asset.DefaultContentName)
		data, err := os.ReadFile(contentPath)
		if err != nil {
			// content.json を持たないディレクトリは絵本ではないのだ
			continue
		}

		var book domain.Book
		if err := json.Unmarshal(data, &book); err != nil {
			slog.WarnContext(ctx, "壊れたスナップショットをスキップするのだ",
				"book_id", entry.Name(), "error", err)
			continue
		}

		createdAt := book.CreatedAt
		if createdAt.IsZero() {
			if info, statErr := os.Stat(contentPath); statErr == nil {
				createdAt = info.ModTime()
			}
		}

		bookID := book.BookID
		if bookID == "" {
			bookID = entry.Name()
		}
		title := book.Title
		if title == "" {
			title = "Untitled"
		}

		summaries = append(summaries, domain.BookSummary{
			BookID:    bookID,
			Title:     title,
			PageCount: len(book.Pages),
			CreatedAt: createdAt,
		})
	}

	// 新しいものが先頭に来るように並べるのだ
	sort.Slice(summaries, func(a, b int) bool {
		return summaries[a].CreatedAt.After(summaries[b].CreatedAt)
	})

	return summaries, nil
}

// loadSnapshot はキャッシュ経由で content.json のバイト列を読み込むのだ。
func (fs *FileStore) loadSnapshot(bookID string) ([]byte, error) {
	if cached, ok := fs.snapshots.Get(bookID); ok {
		return cached.([]byte), nil
	}

	contentPath := filepath.Join(fs.dataDir, bookID, asset.DefaultContentName)
	data, err := os.ReadFile(contentPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w (book_id: %s)", domain.ErrBookNotFound, bookID)
		}
		return nil, fmt.Errorf("%w: スナップショットの読み取りに失敗したのだ (book_id: %s): %w",
			domain.ErrStorageFailed, bookID, err)
	}

	fs.snapshots.Set(bookID, data, cache.DefaultExpiration)
	return data, nil
}

// bookLock は bookId ごとの書き込みロックを取得するのだ。
// 異なる bookId の書き込みは完全に独立して並行できます。
func (fs *FileStore) bookLock(bookID string) *sync.Mutex {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	lock, ok := fs.locks[bookID]
	if !ok {
		lock = &sync.Mutex{}
		fs.locks[bookID] = lock
	}
	return lock
}

// rewriteAudioRefs はマニフェスト内の音声参照を配信用URLへ書き換えるのだ。
// 既にスキーム付きの外部URL（http:// や gs:// 等）はそのまま残します。
func rewriteAudioRefs(book *domain.Book) {
	for i := range book.AudioManifest {
		for j := range book.AudioManifest[i].Clips {
			clip := &book.AudioManifest[i].Clips[j]
			if clip.Path == "" || strings.Contains(clip.Path, "://") {
				continue
			}
			clip.Path = path.Join(AudioURLPrefix, book.BookID, filepath.Base(clip.Path))
		}
	}
}
