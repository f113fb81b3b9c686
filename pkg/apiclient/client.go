package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/Fliplet/fliplet-widget-publishing/pkg/ratelimit"
)

// RemoteError 원격 제출 API 호출 실패.
// StatusCode 0은 응답을 받지 못한 전송 오류를 뜻한다.
type RemoteError struct {
	StatusCode int
	Code       string // 업스트림 오류 코드 (예: credential invalid)
	Message    string
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("submission api unreachable: %s", e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("submission api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("submission api error %d: %s", e.StatusCode, e.Message)
}

// NotFound 404 응답인지 확인
func (e *RemoteError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// Retryable 재시도해볼 만한 오류인지 (전송 오류, 타임아웃, 5xx)
func (e *RemoteError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

// errorBody 원격 API 오류 응답 형식
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Config 클라이언트 설정
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	RetryMax   int               // GET 재시도 횟수
	Throttle   *ratelimit.Bucket // 발신 요청 스로틀 (선택)
	HTTPClient *http.Client      // 테스트용 주입 (선택)
}

// Client 인증된 HTTP/JSON 클라이언트.
// GET은 제한적으로 재시도하고, 뮤테이션은 절대 자동 재시도하지 않는다
// (실패 시 로컬 상태가 바뀌지 않으므로 재시도는 호출자의 몫).
type Client struct {
	baseURL  string
	token    string
	throttle *ratelimit.Bucket
	reads    *retryablehttp.Client
	writes   *retryablehttp.Client
}

// New 클라이언트 생성
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 3
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	reads := retryablehttp.NewClient()
	reads.HTTPClient = hc
	reads.RetryMax = cfg.RetryMax
	reads.RetryWaitMin = 500 * time.Millisecond
	reads.RetryWaitMax = 5 * time.Second
	reads.Logger = nil

	writes := retryablehttp.NewClient()
	writes.HTTPClient = hc
	writes.RetryMax = 0
	writes.Logger = nil

	return &Client{
		baseURL:  cfg.BaseURL,
		token:    cfg.Token,
		throttle: cfg.Throttle,
		reads:    reads,
		writes:   writes,
	}
}

// Get GET 요청 후 응답을 out에 디코딩
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post POST 요청
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put PUT 요청
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if c.throttle != nil {
		if err := c.throttle.Wait(ctx); err != nil {
			return err
		}
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hc := c.writes
	if method == http.MethodGet {
		hc = c.reads
	}

	resp, err := hc.Do(req)
	if err != nil {
		return &RemoteError{Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.remoteError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// remoteError 오류 응답 본문에서 코드/메시지를 추출
func (c *Client) remoteError(status int, data []byte) *RemoteError {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		msg := body.Message
		if msg == "" {
			msg = body.Error
		}
		if msg != "" || body.Code != "" {
			return &RemoteError{StatusCode: status, Code: body.Code, Message: msg}
		}
	}

	msg := string(data)
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return &RemoteError{StatusCode: status, Message: msg}
}
