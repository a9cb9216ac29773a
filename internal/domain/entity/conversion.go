package entity

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ConversionState string

const (
	ConversionProcessing ConversionState = "PROCESSING"
	ConversionProcessed  ConversionState = "PROCESSED"
	ConversionFailed     ConversionState = "FAILED"
)

// Conversion is the persisted record of one conversion attempt.
type Conversion struct {
	ID           uuid.UUID
	MessageID    string
	UserID       string
	FileID       string
	FileName     string
	SourceKey    string
	ArchiveKey   string
	Status       ConversionState
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

func NewConversion(id uuid.UUID, messageID string, req ConversionRequest) *Conversion {
	now := time.Now().UTC()
	return &Conversion{
		ID:        id,
		MessageID: messageID,
		UserID:    req.UserID,
		FileID:    req.FileID,
		FileName:  req.FileName,
		SourceKey: req.SourceStorageKey,
		Status:    ConversionProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Conversion) MarkProcessed(archiveKey string) {
	now := time.Now().UTC()
	c.Status = ConversionProcessed
	c.ArchiveKey = archiveKey
	c.UpdatedAt = now
	c.CompletedAt = &now
}

func (c *Conversion) MarkFailed(errMsg string) {
	now := time.Now().UTC()
	c.Status = ConversionFailed
	c.ErrorMessage = errMsg
	c.UpdatedAt = now
	c.CompletedAt = &now
}

// ArchiveName derives the archive file name from the original video name and a timestamp,
// e.g. "Clip.MP4" at 2024-04-15 10:30:45 becomes "clip_20240415103045.zip".
func ArchiveName(fileName string, at time.Time) string {
	base := filepath.Base(fileName)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.ToLower(strings.TrimSpace(base))
	if base == "" || base == "." {
		base = "frames"
	}
	return fmt.Sprintf("%s_%s.zip", base, at.Format("20060102150405"))
}

// ArchiveKey namespaces an archive under its owner.
func ArchiveKey(userID, archiveName string) string {
	return path.Join(userID, "images", archiveName)
}
