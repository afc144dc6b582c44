package photos

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage: 打刻写真の置き場。保存先パス（DBに入れる参照値）を返す。
type Storage interface {
	Save(name string, data []byte) (string, error)
}

type FSStorage struct {
	dir string
}

func NewFSStorage(dir string) *FSStorage {
	return &FSStorage{dir: dir}
}

// Save: 同名なら上書き。呼び出し側が打刻IDから決定的な名前を作るので、
// リトライで二重保存されない。
func (s *FSStorage) Save(name string, data []byte) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid photo name %q", name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("写真ディレクトリの作成失敗: %w", err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("写真の保存失敗: %w", err)
	}
	return path, nil
}
