package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/decky-localsend/deckysend/internal/logging"
	"github.com/decky-localsend/deckysend/internal/models"
)

const apiPrefix = "/api/self/v1"

// retryLogger adapts our logger to the retryablehttp.LeveledLogger
// interface. Info and Debug are intentionally quiet.
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Interface("detail", keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Interface("detail", keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{})  {}
func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

// Client calls the backend's self API. All methods take a context and
// translate the backend's status conventions into typed errors.
type Client struct {
	httpClient *nethttp.Client
	baseURL    string
	logger     *logging.Logger
}

// NewClient creates a gateway client for the backend at baseURL
// (e.g. "http://127.0.0.1:53317").
func NewClient(baseURL string) *Client {
	logger := logging.NewLogger("gateway")

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = &retryLogger{logger: logger}

	return &Client{
		httpClient: retryClient.StandardClient(),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		logger:     logger,
	}
}

// envelope is the backend's standard response wrapper.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body any) (int, *envelope, error) {
	var reader io.Reader
	if body != nil {
		if raw, ok := body.([]byte); ok {
			reader = bytes.NewReader(raw)
		} else {
			encoded, err := json.Marshal(body)
			if err != nil {
				return 0, nil, fmt.Errorf("encode request: %w", err)
			}
			reader = bytes.NewReader(encoded)
		}
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if _, ok := body.([]byte); ok {
		req.Header.Set("Content-Type", "application/octet-stream")
	} else if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	env := &envelope{}
	if len(raw) > 0 {
		// Tolerate non-JSON bodies on error statuses.
		if err := json.Unmarshal(raw, env); err != nil && resp.StatusCode < 300 {
			return resp.StatusCode, nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, env, nil
}

func statusErr(op string, status int, env *envelope) error {
	msg := ""
	if env != nil {
		msg = env.Error
	}
	return &StatusError{Operation: op, Status: status, Message: msg}
}

// PrepareUpload negotiates an upload session. A 401 surfaces as
// ErrAuthRequired so the caller can prompt for a PIN and retry once. A 204
// returns a result with NoTransferNeeded set and no tokens.
func (c *Client) PrepareUpload(ctx context.Context, req PrepareRequest) (*PrepareResult, error) {
	body := map[string]any{
		"targetTo": req.TargetFingerprint,
		"files":    req.Files,
	}
	if len(req.Folders) > 0 {
		body["folders"] = req.Folders
	}
	if req.PIN != "" {
		body["pin"] = req.PIN
	}

	status, env, err := c.do(ctx, nethttp.MethodPost, apiPrefix+"/prepare-upload", body)
	if err != nil {
		return nil, err
	}

	switch status {
	case nethttp.StatusOK:
		var data struct {
			SessionID string            `json:"sessionId"`
			Files     map[string]string `json:"files"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decode prepare result: %w", err)
		}
		return &PrepareResult{SessionID: data.SessionID, Tokens: data.Files}, nil
	case nethttp.StatusNoContent:
		return &PrepareResult{NoTransferNeeded: true}, nil
	case nethttp.StatusUnauthorized:
		return nil, ErrAuthRequired
	default:
		return nil, statusErr("prepare-upload", status, env)
	}
}

// UploadText pushes the encoded bytes of one inline text item.
func (c *Client) UploadText(ctx context.Context, sessionID, itemID, token string, data []byte) error {
	path := fmt.Sprintf("%s/upload?sessionId=%s&fileId=%s&token=%s",
		apiPrefix, url.QueryEscape(sessionID), url.QueryEscape(itemID), url.QueryEscape(token))

	status, env, err := c.do(ctx, nethttp.MethodPost, path, data)
	if err != nil {
		return err
	}
	if status != nethttp.StatusOK {
		return statusErr("upload", status, env)
	}
	return nil
}

// UploadBatch transfers all non-text items of a session in one call. Both
// 200 and 207 return a BatchResult; 207 additionally sets Partial. Any other
// status is a transport failure with no per-item detail.
func (c *Client) UploadBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	body := map[string]any{
		"sessionId": req.SessionID,
		"files":     req.Files,
	}
	if len(req.Folders) > 0 {
		body["folders"] = req.Folders
	}

	status, env, err := c.do(ctx, nethttp.MethodPost, apiPrefix+"/upload-batch", body)
	if err != nil {
		return nil, err
	}
	if status != nethttp.StatusOK && status != nethttp.StatusMultiStatus {
		return nil, statusErr("upload-batch", status, env)
	}

	result := &BatchResult{Partial: status == nethttp.StatusMultiStatus}
	if len(env.Result) > 0 {
		var data struct {
			Success int          `json:"success"`
			Failed  int          `json:"failed"`
			Results []ItemResult `json:"results"`
		}
		if err := json.Unmarshal(env.Result, &data); err != nil {
			return nil, fmt.Errorf("decode batch result: %w", err)
		}
		result.SuccessCount = data.Success
		result.FailedCount = data.Failed
		result.PerItem = data.Results
		result.HasDetail = data.Results != nil
	}
	return result, nil
}

// CancelUpload asks the backend to abort an outbound session. Best-effort:
// callers ignore the error and clean up locally regardless.
func (c *Client) CancelUpload(ctx context.Context, sessionID string) error {
	path := apiPrefix + "/cancel-upload?sessionId=" + url.QueryEscape(sessionID)
	status, env, err := c.do(ctx, nethttp.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status != nethttp.StatusOK {
		return statusErr("cancel-upload", status, env)
	}
	return nil
}

// ConfirmReceive accepts or rejects an inbound transfer request.
func (c *Client) ConfirmReceive(ctx context.Context, sessionID string, confirmed bool) error {
	path := fmt.Sprintf("%s/confirm-recv?sessionId=%s&confirmed=%s",
		apiPrefix, url.QueryEscape(sessionID), strconv.FormatBool(confirmed))
	status, env, err := c.do(ctx, nethttp.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status != nethttp.StatusOK {
		return statusErr("confirm-recv", status, env)
	}
	return nil
}

// ConfirmDownload accepts or rejects a remote device's pull request against
// a share session. clientKey identifies the requesting device.
func (c *Client) ConfirmDownload(ctx context.Context, sessionID, clientKey string, confirmed bool) error {
	path := fmt.Sprintf("%s/confirm-download?sessionId=%s&clientKey=%s&confirmed=%s",
		apiPrefix, url.QueryEscape(sessionID), url.QueryEscape(clientKey), strconv.FormatBool(confirmed))
	status, env, err := c.do(ctx, nethttp.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status != nethttp.StatusOK {
		return statusErr("confirm-download", status, env)
	}
	return nil
}

// ScanNow triggers a device scan. It returns as soon as the backend accepts
// the request; results arrive via ScanCurrent or push events.
func (c *Client) ScanNow(ctx context.Context) error {
	status, env, err := c.do(ctx, nethttp.MethodGet, apiPrefix+"/scan-now", nil)
	if err != nil {
		return err
	}
	if status != nethttp.StatusOK {
		return statusErr("scan-now", status, env)
	}
	return nil
}

// ScanCurrent returns the backend's current device list.
func (c *Client) ScanCurrent(ctx context.Context) ([]models.Device, error) {
	status, env, err := c.do(ctx, nethttp.MethodGet, apiPrefix+"/scan-current", nil)
	if err != nil {
		return nil, err
	}
	if status != nethttp.StatusOK {
		return nil, statusErr("scan-current", status, env)
	}
	var devices []models.Device
	if err := json.Unmarshal(env.Data, &devices); err != nil {
		return nil, fmt.Errorf("decode device list: %w", err)
	}
	return devices, nil
}

// NetworkInterfaces returns the backend's visible network interfaces.
func (c *Client) NetworkInterfaces(ctx context.Context) ([]models.NetworkInterface, error) {
	status, env, err := c.do(ctx, nethttp.MethodGet, apiPrefix+"/get-network-interfaces", nil)
	if err != nil {
		return nil, err
	}
	if status != nethttp.StatusOK {
		return nil, statusErr("get-network-interfaces", status, env)
	}
	var ifaces []models.NetworkInterface
	if err := json.Unmarshal(env.Data, &ifaces); err != nil {
		return nil, fmt.Errorf("decode interface list: %w", err)
	}
	return ifaces, nil
}

// Favorites returns the persisted favorite devices.
func (c *Client) Favorites(ctx context.Context) ([]models.FavoriteDevice, error) {
	status, env, err := c.do(ctx, nethttp.MethodGet, apiPrefix+"/get-favorites", nil)
	if err != nil {
		return nil, err
	}
	if status != nethttp.StatusOK {
		return nil, statusErr("get-favorites", status, env)
	}
	var favorites []models.FavoriteDevice
	if err := json.Unmarshal(env.Data, &favorites); err != nil {
		return nil, fmt.Errorf("decode favorites: %w", err)
	}
	return favorites, nil
}

// AddFavorite pins a device by fingerprint.
func (c *Client) AddFavorite(ctx context.Context, fingerprint, alias string) error {
	body := map[string]string{"fingerprint": fingerprint, "alias": alias}
	status, env, err := c.do(ctx, nethttp.MethodPost, apiPrefix+"/add-favorite", body)
	if err != nil {
		return err
	}
	if status != nethttp.StatusOK {
		return statusErr("add-favorite", status, env)
	}
	return nil
}

// RemoveFavorite unpins a device by fingerprint.
func (c *Client) RemoveFavorite(ctx context.Context, fingerprint string) error {
	body := map[string]string{"fingerprint": fingerprint}
	status, env, err := c.do(ctx, nethttp.MethodPost, apiPrefix+"/remove-favorite", body)
	if err != nil {
		return err
	}
	if status != nethttp.StatusOK {
		return statusErr("remove-favorite", status, env)
	}
	return nil
}

// BackendConfig fetches the backend's configuration.
func (c *Client) BackendConfig(ctx context.Context) (*models.BackendConfig, error) {
	status, env, err := c.do(ctx, nethttp.MethodGet, apiPrefix+"/get-config", nil)
	if err != nil {
		return nil, err
	}
	if status != nethttp.StatusOK {
		return nil, statusErr("get-config", status, env)
	}
	var cfg models.BackendConfig
	if err := json.Unmarshal(env.Data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// SetBackendConfig replaces the backend's configuration.
func (c *Client) SetBackendConfig(ctx context.Context, cfg models.BackendConfig) error {
	status, env, err := c.do(ctx, nethttp.MethodPost, apiPrefix+"/set-config", cfg)
	if err != nil {
		return err
	}
	if status != nethttp.StatusOK {
		return statusErr("set-config", status, env)
	}
	return nil
}

// CreateShareSession opens a reverse-transfer session hosting the given
// files for remote pull.
func (c *Client) CreateShareSession(ctx context.Context, files map[string]ShareFileMeta, pin string, autoAccept bool) (*ShareResult, error) {
	body := map[string]any{
		"files":      files,
		"pin":        pin,
		"autoAccept": autoAccept,
	}
	status, env, err := c.do(ctx, nethttp.MethodPost, apiPrefix+"/create-share-session", body)
	if err != nil {
		return nil, err
	}
	if status != nethttp.StatusOK {
		return nil, statusErr("create-share-session", status, env)
	}
	var result ShareResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return nil, fmt.Errorf("decode share session: %w", err)
	}
	if result.SessionID == "" || result.DownloadURL == "" {
		return nil, fmt.Errorf("create-share-session: incomplete response")
	}
	return &result, nil
}

// ShareSessions lists the share sessions the backend is hosting.
func (c *Client) ShareSessions(ctx context.Context) ([]ShareResult, error) {
	status, env, err := c.do(ctx, nethttp.MethodGet, apiPrefix+"/get-share-sessions", nil)
	if err != nil {
		return nil, err
	}
	if status != nethttp.StatusOK {
		return nil, statusErr("get-share-sessions", status, env)
	}
	var sessions []ShareResult
	if err := json.Unmarshal(env.Data, &sessions); err != nil {
		return nil, fmt.Errorf("decode share sessions: %w", err)
	}
	return sessions, nil
}

// CloseShareSession invalidates a share link.
func (c *Client) CloseShareSession(ctx context.Context, sessionID string) error {
	path := apiPrefix + "/close-share-session?sessionId=" + url.QueryEscape(sessionID)
	status, env, err := c.do(ctx, nethttp.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if status != nethttp.StatusOK {
		return statusErr("close-share-session", status, env)
	}
	return nil
}
