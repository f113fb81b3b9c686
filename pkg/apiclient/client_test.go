package apiclient

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() (*Client, *http.Client) {
	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)

	client := New(Config{
		BaseURL:    "https://api.example.test",
		Token:      "secret-token",
		HTTPClient: hc,
	})
	return client, hc
}

func TestClient_GetDecodesResponse(t *testing.T) {
	client, _ := newTestClient()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://api.example.test/v1/apps/app-1",
		func(req *http.Request) (*http.Response, error) {
			// 베어러 토큰과 요청 ID가 항상 실려야 함
			assert.Equal(t, "Bearer secret-token", req.Header.Get("Authorization"))
			assert.NotEmpty(t, req.Header.Get("X-Request-Id"))
			return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"id": "app-1"})
		})

	var out struct {
		ID string `json:"id"`
	}
	err := client.Get(context.Background(), "/v1/apps/app-1", &out)
	require.NoError(t, err)
	assert.Equal(t, "app-1", out.ID)
}

func TestClient_RemoteErrorCodePassthrough(t *testing.T) {
	client, _ := newTestClient()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPut, "https://api.example.test/v1/thing",
		httpmock.NewJsonResponderOrPanic(http.StatusUnprocessableEntity, map[string]string{
			"code":    "CERTIFICATE_EXPIRED",
			"message": "The distribution certificate has expired",
		}))

	err := client.Put(context.Background(), "/v1/thing", map[string]string{"a": "b"}, nil)
	require.Error(t, err)

	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, http.StatusUnprocessableEntity, remoteErr.StatusCode)
	assert.Equal(t, "CERTIFICATE_EXPIRED", remoteErr.Code)
	assert.Equal(t, "The distribution certificate has expired", remoteErr.Message)
	assert.False(t, remoteErr.Retryable())
}

func TestClient_NotFound(t *testing.T) {
	client, _ := newTestClient()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://api.example.test/v1/missing",
		httpmock.NewStringResponder(http.StatusNotFound, `{"message":"no submission"}`))

	err := client.Get(context.Background(), "/v1/missing", nil)
	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.True(t, remoteErr.NotFound())
}

func TestClient_MutationsAreNotRetried(t *testing.T) {
	client, _ := newTestClient()
	defer httpmock.DeactivateAndReset()

	calls := 0
	httpmock.RegisterResponder(http.MethodPost, "https://api.example.test/v1/build",
		func(req *http.Request) (*http.Response, error) {
			calls++
			return httpmock.NewStringResponse(http.StatusBadGateway, "upstream down"), nil
		})

	err := client.Post(context.Background(), "/v1/build", map[string]string{}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls, "a failed mutation must not be retried automatically")
}

func TestClient_GetRetriesOn5xx(t *testing.T) {
	client, _ := newTestClient()
	defer httpmock.DeactivateAndReset()

	calls := 0
	httpmock.RegisterResponder(http.MethodGet, "https://api.example.test/v1/status",
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls < 2 {
				return httpmock.NewStringResponse(http.StatusServiceUnavailable, ""), nil
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"ok": "yes"})
		})

	err := client.Get(context.Background(), "/v1/status", nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, calls, 2)
}
