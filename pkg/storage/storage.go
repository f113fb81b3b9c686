package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Storage 스토어 메타데이터 제출 전에 에셋(스플래시 스크린 등)을 임시로
// 보관하는 로컬 스테이징 영역
type Storage struct {
	basePath string
}

// NewStorage 스토리지 생성
func NewStorage(basePath string) *Storage {
	return &Storage{
		basePath: basePath,
	}
}

// SaveAsset 업로드된 이미지 에셋 저장
func (s *Storage) SaveAsset(file *multipart.FileHeader) (string, error) {
	// 파일 확장자 확인
	ext := filepath.Ext(file.Filename)
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return "", fmt.Errorf("invalid file type: only .png, .jpg and .jpeg allowed")
	}

	// 고유 파일명 생성
	filename := fmt.Sprintf("%s_%d%s", uuid.New().String(), time.Now().Unix(), ext)

	// 저장 경로
	savePath := filepath.Join(s.basePath, "assets", filename)

	// 디렉토리 생성
	dir := filepath.Dir(savePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	// 파일 열기
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	// 파일 저장
	dst, err := os.Create(savePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return filepath.Join("assets", filename), nil
}

// DeleteAsset 에셋 삭제
func (s *Storage) DeleteAsset(filePath string) error {
	fullPath := filepath.Join(s.basePath, filePath)
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// AssetURL 에셋 URL 생성
func (s *Storage) AssetURL(filePath string) string {
	return fmt.Sprintf("/storage/%s", filePath)
}
