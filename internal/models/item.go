// Package models defines the shared data model for the deckysend bridge:
// queue items, discovered devices, progress records, and backend DTOs.
package models

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Item is one unit queued for sending. It is a closed union: the only
// implementations are RegularFile, FolderBundle, and InlineText, so the
// mutual exclusion between the variants is structural.
type Item interface {
	// ID returns the process-unique item id, assigned at creation and
	// never reused.
	ID() string

	// FileName returns the display name for the item.
	FileName() string

	// DedupKey returns the discriminating key used for idempotent adds:
	// two items with the same key are considered the same queue entry.
	DedupKey() string

	sealed()
}

// RegularFile is a single on-disk file identified by its source path.
type RegularFile struct {
	ItemID string
	Name   string
	Path   string
	Size   int64
}

// FolderBundle is a folder sent as one unit. The folder contents are opaque
// here; the backend expands them server-side.
type FolderBundle struct {
	ItemID    string
	Name      string
	Path      string
	FileCount int
}

// InlineText is a snippet of text sent as a generated text file.
type InlineText struct {
	ItemID  string
	Name    string
	Content string
}

func (f *RegularFile) ID() string       { return f.ItemID }
func (f *RegularFile) FileName() string { return f.Name }
func (f *RegularFile) DedupKey() string { return "file:" + f.Path }
func (f *RegularFile) sealed()          {}

func (f *FolderBundle) ID() string { return f.ItemID }

// FileName returns an aggregate label since folder members are not visible
// to this process.
func (f *FolderBundle) FileName() string {
	if f.FileCount > 0 {
		return fmt.Sprintf("%s (%d files)", f.Name, f.FileCount)
	}
	return f.Name
}
func (f *FolderBundle) DedupKey() string { return "folder:" + f.Path }
func (f *FolderBundle) sealed()          {}

func (t *InlineText) ID() string       { return t.ItemID }
func (t *InlineText) FileName() string { return t.Name }
func (t *InlineText) DedupKey() string { return "text:" + t.Name + "\x00" + t.Content }
func (t *InlineText) sealed()          {}

// NewRegularFile creates a queue item for the file at path.
func NewRegularFile(path string, size int64) *RegularFile {
	return &RegularFile{
		ItemID: newItemID("file"),
		Name:   filepath.Base(path),
		Path:   path,
		Size:   size,
	}
}

// NewFolderBundle creates a queue item for the folder at path.
func NewFolderBundle(path string, fileCount int) *FolderBundle {
	return &FolderBundle{
		ItemID:    newItemID("folder"),
		Name:      filepath.Base(path),
		Path:      path,
		FileCount: fileCount,
	}
}

// NewInlineText creates a queue item carrying text content. An empty name
// defaults to "text.txt".
func NewInlineText(name, content string) *InlineText {
	if name == "" {
		name = "text.txt"
	}
	return &InlineText{
		ItemID:  newItemID("text"),
		Name:    name,
		Content: content,
	}
}

func newItemID(kind string) string {
	return fmt.Sprintf("%s-%d-%s", kind, time.Now().UnixNano(), uuid.NewString()[:8])
}
