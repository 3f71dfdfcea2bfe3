package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raphcvrt/Anti-Virus/internal/models"
)

// Operation names, used in errors, logs and metrics
const (
	OpStatus           = "status"
	OpScanHistory      = "scan-history"
	OpQuarantineItems  = "quarantine-items"
	OpRecentScans      = "recent-scans"
	OpStats            = "stats"
	OpStartMonitoring  = "start-monitoring"
	OpStopMonitoring   = "stop-monitoring"
	OpScanFile         = "scan-file"
	OpUpload           = "upload"
	OpDeleteQuarantine = "delete-quarantine-item"
)

// Config holds the backend client settings
type Config struct {
	BaseURL string
	Timeout time.Duration
	// QuarantineDeletePath is the DELETE route for a quarantine item, with
	// "{name}" as placeholder. Empty keeps deletions local to the dashboard.
	QuarantineDeletePath string
	UserAgent            string
}

// Client talks to the antivirus backend REST API
type Client struct {
	config Config
	client *http.Client
	log    *zap.Logger
}

// New creates a backend client
func New(config Config, log *zap.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "Sentinel-Dashboard/1.0"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		log:    log,
	}
}

// BaseURL returns the API root all paths are relative to
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Status fetches the monitor status
func (c *Client) Status(ctx context.Context) (models.MonitorStatus, error) {
	var p statusResponse
	if err := c.getJSON(ctx, OpStatus, "/status", &p); err != nil {
		return models.MonitorStatus{}, err
	}
	return adaptStatus(p), nil
}

// ScanHistory fetches the scan history list
func (c *Client) ScanHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	var ps []historyResponse
	if err := c.getJSON(ctx, OpScanHistory, "/scan-history", &ps); err != nil {
		return nil, err
	}
	return adaptHistory(ps), nil
}

// QuarantineItems fetches the files currently held in quarantine
func (c *Client) QuarantineItems(ctx context.Context) ([]models.QuarantineItem, error) {
	var ps []quarantineResponse
	if err := c.getJSON(ctx, OpQuarantineItems, "/quarantine-items", &ps); err != nil {
		return nil, err
	}
	return adaptQuarantine(ps), nil
}

// RecentScans fetches the recent scans list
func (c *Client) RecentScans(ctx context.Context) ([]models.ScanRecord, error) {
	var ps []recentScanResponse
	if err := c.getJSON(ctx, OpRecentScans, "/recent-scans", &ps); err != nil {
		return nil, err
	}
	return adaptRecentScans(ps), nil
}

// Stats fetches the dashboard counters
func (c *Client) Stats(ctx context.Context) (models.DashboardStats, error) {
	var p statsResponse
	if err := c.getJSON(ctx, OpStats, "/stats", &p); err != nil {
		return models.DashboardStats{}, err
	}
	return adaptStats(p), nil
}

// StartMonitoring asks the backend to watch folder. It returns the backend message.
func (c *Client) StartMonitoring(ctx context.Context, folder string) (string, error) {
	payload := map[string]string{"folder_path": folder}

	var p commandResponse
	if err := c.postJSON(ctx, OpStartMonitoring, "/start-monitoring", payload, &p); err != nil {
		return "", err
	}
	if err := commandError(OpStartMonitoring, p); err != nil {
		return "", err
	}
	return p.Message, nil
}

// StopMonitoring asks the backend to stop watching. The request has no body.
func (c *Client) StopMonitoring(ctx context.Context) (string, error) {
	var p commandResponse
	if err := c.do(ctx, OpStopMonitoring, http.MethodPost, "/stop-monitoring", nil, "", &p); err != nil {
		return "", err
	}
	if err := commandError(OpStopMonitoring, p); err != nil {
		return "", err
	}
	return p.Message, nil
}

// ScanFile asks the backend to scan a path on its host
func (c *Client) ScanFile(ctx context.Context, path string) (models.ScanFileResult, error) {
	payload := map[string]string{"file_path": path}

	var p commandResponse
	if err := c.postJSON(ctx, OpScanFile, "/scan-file", payload, &p); err != nil {
		return models.ScanFileResult{}, err
	}
	if err := commandError(OpScanFile, p); err != nil {
		return models.ScanFileResult{}, err
	}

	result := adaptScanResult(p.Result)
	if result.FilePath == "" {
		result.FilePath = path
	}
	return result, nil
}

// Upload streams a file to the backend as the multipart field "file" and
// returns the backend's verdict.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(name))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	var p uploadResponse
	err := c.do(ctx, OpUpload, http.MethodPost, "/upload", pr, mw.FormDataContentType(), &p)
	// Unblocks the writer goroutine if the request ended early
	pr.Close()
	if err != nil {
		return "", err
	}
	if p.Error != "" {
		return "", &Error{Kind: BackendFailure, Op: OpUpload, Message: p.Error}
	}
	if strings.TrimSpace(p.Result) == "" {
		return "", &Error{Kind: BackendFailure, Op: OpUpload, Message: "le serveur n'a renvoyé aucun résultat d'analyse"}
	}
	return p.Result, nil
}

// DeleteQuarantineItem removes name from the backend quarantine. It is a
// no-op when no delete route is configured.
func (c *Client) DeleteQuarantineItem(ctx context.Context, name string) error {
	if c.config.QuarantineDeletePath == "" {
		c.log.Debug("quarantine delete route not configured, keeping deletion local",
			zap.String("name", name))
		return nil
	}

	path := strings.ReplaceAll(c.config.QuarantineDeletePath, "{name}", url.PathEscape(name))

	var p commandResponse
	if err := c.do(ctx, OpDeleteQuarantine, http.MethodDelete, path, nil, "", &p); err != nil {
		return err
	}
	if p.Success != nil && !*p.Success {
		return commandError(OpDeleteQuarantine, p)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	return c.do(ctx, op, http.MethodGet, path, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, op, path string, payload any, out any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return &Error{Kind: NetworkFailure, Op: op, Message: "failed to marshal request", Err: err}
	}
	return c.do(ctx, op, http.MethodPost, path, bytes.NewReader(jsonData), "application/json", out)
}

// do performs one request. There is no retry: every failure is terminal.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return &Error{Kind: NetworkFailure, Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug("backend request failed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Error(err))
		return &Error{Kind: NetworkFailure, Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: NetworkFailure, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.log.Debug("backend request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			Kind:    BackendFailure,
			Op:      op,
			Status:  resp.StatusCode,
			Message: errorMessage(data, resp.Status),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: NetworkFailure, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// commandError treats anything but an explicit success:true as a failure
func commandError(op string, p commandResponse) error {
	if p.Success != nil && *p.Success {
		return nil
	}
	message := p.Message
	if message == "" {
		message = "la commande a échoué"
	}
	return &Error{Kind: BackendFailure, Op: op, Message: message}
}
