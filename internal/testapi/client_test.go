package testapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/shotpub/internal/errors"
)

const testToken = "s3cr3t-pat"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithHTTP(srv.URL, "contoso", testToken, srv.Client())
}

func requireBasicAuth(t *testing.T, r *http.Request) {
	t.Helper()
	user, pass, ok := r.BasicAuth()
	assert.True(t, ok, "basic auth header expected")
	assert.Empty(t, user)
	assert.Equal(t, testToken, pass)
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	c := NewClient("https://dev.azure.com/", "my org", "tok", 0)
	assert.Equal(t, "https://dev.azure.com/my%20org", c.BaseURL())
}

func TestBasicAuth(t *testing.T) {
	t.Parallel()

	header := basicAuth("abc")
	require.True(t, strings.HasPrefix(header, "Basic "))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
	require.NoError(t, err)
	assert.Equal(t, ":abc", string(decoded))
}

func TestClient_Connect(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			requireBasicAuth(t, r)
			assert.Equal(t, "/contoso/_apis/connectionData", r.URL.Path)
			assert.Equal(t, "7.1-preview.1", r.URL.Query().Get("api-version"))
			_, _ = io.WriteString(w, `{"instanceId":"abc","authenticatedUser":{"id":"u1","providerDisplayName":"Build Service"}}`)
		})

		data, err := c.Connect(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "abc", data.InstanceID)
		assert.Equal(t, "Build Service", data.AuthenticatedUser.ProviderDisplayName)
	})

	t.Run("unauthorized", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := c.Connect(context.Background())
		require.ErrorIs(t, err, errors.ErrAuthFailed)
		assert.Contains(t, err.Error(), "status 401")
	})

	t.Run("unknown organization", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "organization not found", http.StatusNotFound)
		})

		_, err := c.Connect(context.Background())
		require.ErrorIs(t, err, errors.ErrConnection)
		assert.Contains(t, err.Error(), "organization not found")
	})

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		c := NewClientWithHTTP(srv.URL, "contoso", testToken, srv.Client())

		_, err := c.Connect(context.Background())
		require.ErrorIs(t, err, errors.ErrConnection)
	})
}

func TestClient_FailedResultsByBuild(t *testing.T) {
	t.Parallel()

	t.Run("follows continuation tokens", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			requireBasicAuth(t, r)
			assert.Equal(t, "/contoso/Mobile%20App/_apis/test/ResultsByBuild", r.URL.EscapedPath())
			q := r.URL.Query()
			assert.Equal(t, "42", q.Get("buildId"))
			assert.Equal(t, "Failed", q.Get("outcomes"))

			switch calls.Add(1) {
			case 1:
				assert.Empty(t, q.Get("continuationToken"))
				w.Header().Set("x-ms-continuationtoken", "page2")
				_, _ = io.WriteString(w, `{"count":1,"value":[{"id":100000,"runId":7,"automatedTestName":"testLogin","automatedTestStorage":"com.foo.LoginTest","outcome":"Failed"}]}`)
			default:
				assert.Equal(t, "page2", q.Get("continuationToken"))
				_, _ = io.WriteString(w, `{"count":1,"value":[{"id":100001,"runId":7,"automatedTestName":"testOne()","automatedTestStorage":"MyApp.UITests","testCaseTitle":"One"}]}`)
			}
		})

		results, err := c.FailedResultsByBuild(context.Background(), "Mobile App", 42)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, int32(2), calls.Load())

		assert.Equal(t, "testLogin", results[0].AutomatedTestName)
		assert.Equal(t, "com.foo.LoginTest", results[0].AutomatedTestStorage)
		assert.Equal(t, 7, results[0].RunID)
		assert.Equal(t, 100000, results[0].ID)
		assert.Equal(t, "One", results[1].TestCaseTitle)
	})

	t.Run("empty build", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"count":0,"value":[]}`)
		})

		results, err := c.FailedResultsByBuild(context.Background(), "p", 1)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("repeated token stops paging", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.Header().Set("x-ms-continuationtoken", "same")
			_, _ = io.WriteString(w, `{"count":0,"value":[]}`)
		})

		_, err := c.FailedResultsByBuild(context.Background(), "p", 1)
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := c.FailedResultsByBuild(context.Background(), "p", 1)
		require.ErrorIs(t, err, errors.ErrFetchFailed)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"value":`)
		})

		_, err := c.FailedResultsByBuild(context.Background(), "p", 1)
		require.ErrorIs(t, err, errors.ErrFetchFailed)
	})
}

func TestClient_CreateResultAttachment(t *testing.T) {
	t.Parallel()

	req := AttachmentRequest{
		Project:  "proj",
		RunID:    7,
		ResultID: 100000,
		Stream:   "aGVsbG8=",
		FileName: "testLogin.png",
		Comment:  "screenshot",
	}

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			requireBasicAuth(t, r)
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/contoso/proj/_apis/test/Runs/7/Results/100000/attachments", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "aGVsbG8=", body["stream"])
			assert.Equal(t, "testLogin.png", body["fileName"])
			assert.Equal(t, "screenshot", body["comment"])
			assert.Equal(t, "GeneralAttachment", body["attachmentType"])

			_, _ = io.WriteString(w, `{"id":55,"url":"https://example.test/attachments/55"}`)
		})

		ref, err := c.CreateResultAttachment(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 55, ref.ID)
		assert.Equal(t, "https://example.test/attachments/55", ref.URL)
	})

	emptyBodies := map[string]string{
		"null":        "null",
		"empty":       "",
		"zero object": "{}",
	}
	for name, body := range emptyBodies {
		t.Run("empty reference "+name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, body)
			})

			_, err := c.CreateResultAttachment(context.Background(), req)
			require.ErrorIs(t, err, errors.ErrAttachmentEmpty)
		})
	}

	t.Run("rejected", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "result not found", http.StatusNotFound)
		})

		_, err := c.CreateResultAttachment(context.Background(), req)
		require.ErrorIs(t, err, errors.ErrAttachmentRejected)
		assert.Contains(t, err.Error(), "status 404")
	})

	t.Run("forbidden", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})

		_, err := c.CreateResultAttachment(context.Background(), req)
		require.ErrorIs(t, err, errors.ErrAuthFailed)
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"id":1}`)
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.CreateResultAttachment(ctx, req)
		require.ErrorIs(t, err, errors.ErrAttachmentRejected)
	})
}
