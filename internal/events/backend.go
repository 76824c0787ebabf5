package events

import (
	"encoding/json"
	"fmt"

	"github.com/decky-localsend/deckysend/internal/models"
)

// Backend event tags as they appear on the wire.
const (
	TagDeviceDiscovered = "device_discovered"
	TagDeviceUpdated    = "device_updated"
	TagConfirmReceive   = "confirm_recv"
	TagConfirmDownload  = "confirm_download"
	TagPinRequired      = "pin_required"
	TagUploadStart      = "upload_start"
	TagUploadProgress   = "upload_progress"
	TagUploadEnd        = "upload_end"
	TagUploadCancelled  = "upload_cancelled"
	TagSendProgress     = "send_progress"
	TagInfo             = "info"
)

// BackendEvent is one push notification from the backend, decoded at the
// boundary into a closed union so dispatch can be exhaustive.
type BackendEvent interface {
	Tag() string
	backendEvent()
}

// DeviceDiscovered announces a newly discovered peer.
type DeviceDiscovered struct {
	Device models.Device
}

// DeviceUpdated announces changed fields on a known peer.
type DeviceUpdated struct {
	Device models.Device
}

// ConfirmReceive asks the user to accept or reject an inbound transfer.
type ConfirmReceive struct {
	SessionID string
	Sender    string
	Title     string
	Message   string
}

// ConfirmDownload asks the user to allow a remote device to pull shared
// files. ClientKey identifies the requesting device.
type ConfirmDownload struct {
	SessionID string
	ClientKey string
	Title     string
	Message   string
}

// PinRequired tells the user a peer demanded a PIN.
type PinRequired struct {
	Message string
}

// UploadStart opens a new inbound session.
type UploadStart struct {
	SessionID  string
	TotalFiles int
	FileName   string
	Sender     string
}

// UploadProgress advances an inbound session.
type UploadProgress struct {
	SessionID       string
	CompletedCount  int
	CurrentFileName string
}

// UploadEnd closes an inbound session.
type UploadEnd struct {
	SessionID string
	Title     string
	Message   string
}

// UploadCancelled aborts an inbound or outbound session.
type UploadCancelled struct {
	SessionID string
	Message   string
}

// SendProgress is the authoritative outbound progress report. FileID and
// Status are set for per-item updates; TotalFiles/CompletedCount carry the
// aggregate when the backend knows it.
type SendProgress struct {
	SessionID      string
	FileID         string
	Status         string
	Error          string
	TotalFiles     int
	CompletedCount int
}

// Info is an informational message, suppressed from the user.
type Info struct {
	Title   string
	Message string
}

// Generic is any event with an unrecognized tag.
type Generic struct {
	EventTag string
	Title    string
	Message  string
}

func (DeviceDiscovered) Tag() string { return TagDeviceDiscovered }
func (DeviceUpdated) Tag() string    { return TagDeviceUpdated }
func (ConfirmReceive) Tag() string   { return TagConfirmReceive }
func (ConfirmDownload) Tag() string  { return TagConfirmDownload }
func (PinRequired) Tag() string      { return TagPinRequired }
func (UploadStart) Tag() string      { return TagUploadStart }
func (UploadProgress) Tag() string   { return TagUploadProgress }
func (UploadEnd) Tag() string        { return TagUploadEnd }
func (UploadCancelled) Tag() string  { return TagUploadCancelled }
func (SendProgress) Tag() string     { return TagSendProgress }
func (Info) Tag() string             { return TagInfo }
func (g Generic) Tag() string        { return g.EventTag }

func (DeviceDiscovered) backendEvent() {}
func (DeviceUpdated) backendEvent()    {}
func (ConfirmReceive) backendEvent()   {}
func (ConfirmDownload) backendEvent()  {}
func (PinRequired) backendEvent()      {}
func (UploadStart) backendEvent()      {}
func (UploadProgress) backendEvent()   {}
func (UploadEnd) backendEvent()        {}
func (UploadCancelled) backendEvent()  {}
func (SendProgress) backendEvent()     {}
func (Info) backendEvent()             {}
func (Generic) backendEvent()          {}

// envelope is the superset of fields the backend writes; which ones are
// populated depends on the tag.
type envelope struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`

	// Device fields
	Alias       string `json:"alias,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	IPAddress   string `json:"ip_address,omitempty"`
	Port        int    `json:"port,omitempty"`
	Protocol    string `json:"protocol,omitempty"`
	DeviceType  string `json:"deviceType,omitempty"`
	DeviceModel string `json:"deviceModel,omitempty"`

	// Session fields
	SessionID string `json:"sessionId,omitempty"`
	ClientKey string `json:"clientKey,omitempty"`
	Sender    string `json:"sender,omitempty"`

	// Progress fields
	FileID         string `json:"fileId,omitempty"`
	FileName       string `json:"fileName,omitempty"`
	Status         string `json:"status,omitempty"`
	Error          string `json:"error,omitempty"`
	TotalFiles     int    `json:"totalFiles,omitempty"`
	CompletedCount int    `json:"completedCount,omitempty"`
}

func (e *envelope) device() models.Device {
	return models.Device{
		Fingerprint: e.Fingerprint,
		Alias:       e.Alias,
		IPAddress:   e.IPAddress,
		Port:        e.Port,
		Protocol:    e.Protocol,
		DeviceType:  e.DeviceType,
		DeviceModel: e.DeviceModel,
	}
}

// DecodeBackendEvent parses one backend notification payload. Unknown tags
// decode to Generic rather than failing; only malformed JSON is an error.
func DecodeBackendEvent(data []byte) (BackendEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode backend event: %w", err)
	}

	switch env.Type {
	case TagDeviceDiscovered:
		return DeviceDiscovered{Device: env.device()}, nil
	case TagDeviceUpdated:
		return DeviceUpdated{Device: env.device()}, nil
	case TagConfirmReceive:
		return ConfirmReceive{
			SessionID: env.SessionID,
			Sender:    env.Sender,
			Title:     env.Title,
			Message:   env.Message,
		}, nil
	case TagConfirmDownload:
		return ConfirmDownload{
			SessionID: env.SessionID,
			ClientKey: env.ClientKey,
			Title:     env.Title,
			Message:   env.Message,
		}, nil
	case TagPinRequired:
		return PinRequired{Message: env.Message}, nil
	case TagUploadStart:
		return UploadStart{
			SessionID:  env.SessionID,
			TotalFiles: env.TotalFiles,
			FileName:   env.FileName,
			Sender:     env.Sender,
		}, nil
	case TagUploadProgress:
		return UploadProgress{
			SessionID:       env.SessionID,
			CompletedCount:  env.CompletedCount,
			CurrentFileName: env.FileName,
		}, nil
	case TagUploadEnd:
		return UploadEnd{
			SessionID: env.SessionID,
			Title:     env.Title,
			Message:   env.Message,
		}, nil
	case TagUploadCancelled:
		return UploadCancelled{
			SessionID: env.SessionID,
			Message:   env.Message,
		}, nil
	case TagSendProgress:
		return SendProgress{
			SessionID:      env.SessionID,
			FileID:         env.FileID,
			Status:         env.Status,
			Error:          env.Error,
			TotalFiles:     env.TotalFiles,
			CompletedCount: env.CompletedCount,
		}, nil
	case TagInfo:
		return Info{Title: env.Title, Message: env.Message}, nil
	default:
		return Generic{EventTag: env.Type, Title: env.Title, Message: env.Message}, nil
	}
}
