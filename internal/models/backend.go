package models

// BackendStatus reports whether the backend process is running and where it
// listens.
type BackendStatus struct {
	Running bool   `json:"running"`
	URL     string `json:"url"`
	Error   string `json:"error,omitempty"`
}

// BackendConfig is the backend's full configuration surface.
type BackendConfig struct {
	Alias                  string `json:"alias"`
	DownloadFolder         string `json:"download_folder"`
	LegacyMode             bool   `json:"legacy_mode"`
	UseMixedScan           bool   `json:"use_mixed_scan"`
	SkipNotify             bool   `json:"skip_notify"`
	MulticastAddress       string `json:"multicast_address"`
	MulticastPort          int    `json:"multicast_port"`
	PIN                    string `json:"pin"`
	AutoSave               bool   `json:"auto_save"`
	AutoSaveFromFavorites  bool   `json:"auto_save_from_favorites"`
	UseHTTPS               bool   `json:"use_https"`
	NetworkInterface       string `json:"network_interface"`
	NotifyOnDownload       bool   `json:"notify_on_download"`
	SaveReceiveHistory     bool   `json:"save_receive_history"`
	EnableExperimental     bool   `json:"enable_experimental"`
	UseDownload            bool   `json:"use_download"`
	DoNotMakeSessionFolder bool   `json:"do_not_make_session_folder"`
	DisableInfoLogging     bool   `json:"disable_info_logging"`
	ScanTimeout            int    `json:"scan_timeout"`
}

// ReceiveHistoryItem records one completed inbound transfer.
type ReceiveHistoryItem struct {
	ID          string   `json:"id"`
	Timestamp   int64    `json:"timestamp"`
	Title       string   `json:"title"`
	FolderPath  string   `json:"folderPath"`
	FileCount   int      `json:"fileCount"`
	Files       []string `json:"files"`
	IsText      bool     `json:"isText,omitempty"`
	TextPreview string   `json:"textPreview,omitempty"`
	TextContent string   `json:"textContent,omitempty"`
}
