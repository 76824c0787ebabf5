package gateway

// FileMeta describes one item in a prepare-upload request. Regular files
// carry a file:// URL; text items carry name/size/type only, their payload
// is pushed in a later explicit upload step.
type FileMeta struct {
	ID       string `json:"id"`
	FileURL  string `json:"fileUrl,omitempty"`
	FileName string `json:"fileName,omitempty"`
	Size     int64  `json:"size,omitempty"`
	FileType string `json:"fileType,omitempty"`
}

// PrepareRequest negotiates an upload session with a target device.
// Folders switches the backend into folder upload mode; folder contents are
// expanded server-side and never visible here.
type PrepareRequest struct {
	TargetFingerprint string
	Files             map[string]FileMeta
	Folders           []string
	PIN               string
}

// PrepareResult is a negotiated session: one opaque token per item.
// NoTransferNeeded is set when the backend answered 204, meaning the
// receiver fully handled the request and no transfer step must follow.
type PrepareResult struct {
	SessionID        string
	Tokens           map[string]string
	NoTransferNeeded bool
}

// BatchFile references one prepared item in an upload-batch call.
type BatchFile struct {
	FileID  string `json:"fileId"`
	Token   string `json:"token"`
	FileURL string `json:"fileUrl"`
}

// BatchRequest transfers all non-text items of a session in one call.
type BatchRequest struct {
	SessionID string
	Files     []BatchFile
	Folders   []string
}

// ItemResult is the per-item outcome inside a batch result.
type ItemResult struct {
	FileID  string `json:"fileId"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BatchResult is the outcome of an upload-batch call.
//
// Partial marks a 207 response. HasDetail distinguishes "the backend
// reported per-item results" from "the backend reported none at all" —
// per the transport contract, a successful batch without detail means every
// submitted item succeeded.
type BatchResult struct {
	SuccessCount int
	FailedCount  int
	PerItem      []ItemResult
	Partial      bool
	HasDetail    bool
}

// ShareFileMeta describes one item when creating a share (download) session.
type ShareFileMeta struct {
	ID       string `json:"id"`
	FileName string `json:"fileName,omitempty"`
	Size     int64  `json:"size,omitempty"`
	FileType string `json:"fileType,omitempty"`
	FileURL  string `json:"fileUrl"`
}

// ShareResult is a created share session.
type ShareResult struct {
	SessionID   string `json:"sessionId"`
	DownloadURL string `json:"downloadUrl"`
}
