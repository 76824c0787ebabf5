package models

import "time"

// UploadStatus is the per-item send status.
type UploadStatus string

const (
	StatusPending   UploadStatus = "pending"
	StatusUploading UploadStatus = "uploading"
	StatusDone      UploadStatus = "done"
	StatusError     UploadStatus = "error"
)

// Terminal reports whether the status is done or error.
func (s UploadStatus) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// UploadProgressEntry tracks one queue item through a send. One entry exists
// per item for the whole send; only Status and Error mutate.
type UploadProgressEntry struct {
	FileID   string
	FileName string
	Status   UploadStatus
	Error    string
}

// SendStats holds aggregate send counters. The backend's push notifications
// are the authoritative source once they arrive; folder uploads report counts
// without per-file identities, so these cannot always be derived from the
// entry list.
type SendStats struct {
	TotalFiles     int
	CompletedCount int
}

// ReceiveProgress mirrors an inbound transfer. Events carrying a different
// session id than the tracked one are ignored.
type ReceiveProgress struct {
	SessionID       string
	TotalFiles      int
	CompletedCount  int
	CurrentFileName string
}

// ShareSession is a reverse-transfer session hosted by this device. It
// expires one hour after creation; expiry is enforced locally by polling.
type ShareSession struct {
	SessionID   string
	DownloadURL string
	CreatedAt   time.Time
}

// ShareSessionTTL is how long a share link stays valid.
const ShareSessionTTL = time.Hour

// Expired reports whether the session has outlived its TTL at now.
func (s ShareSession) Expired(now time.Time) bool {
	return now.Sub(s.CreatedAt) > ShareSessionTTL
}
