// Package testapi talks to the Azure DevOps Test Plans REST API.
//
// Only the three calls the publisher needs are implemented: a connection
// check, the failed-results query for a build and attachment creation on a
// single test result.
package testapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/shotpub/internal/constants"
	"github.com/mrz1836/shotpub/internal/domain"
	"github.com/mrz1836/shotpub/internal/errors"
)

// maxErrorBody caps how much of a failed response is kept in an error.
const maxErrorBody = 4 << 10

// HTTPClient abstracts HTTP operations for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is an Azure DevOps REST client scoped to one organization.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient HTTPClient
}

// NewClient creates a client for {serverURL}/{organization}. A zero timeout
// falls back to constants.DefaultHTTPTimeout.
func NewClient(serverURL, organization, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	return NewClientWithHTTP(serverURL, organization, token, &http.Client{
		Timeout: timeout,
	})
}

// NewClientWithHTTP creates a client with a custom HTTP client.
func NewClientWithHTTP(serverURL, organization, token string, httpClient HTTPClient) *Client {
	return &Client{
		baseURL:    strings.TrimRight(serverURL, "/") + "/" + url.PathEscape(organization),
		token:      token,
		userAgent:  "shotpub",
		httpClient: httpClient,
	}
}

// BaseURL returns the organization URL requests are made against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ConnectionData is the subset of the connectionData response that is logged.
type ConnectionData struct {
	InstanceID        string   `json:"instanceId"`
	AuthenticatedUser Identity `json:"authenticatedUser"`
}

// Identity is the user the access token belongs to.
type Identity struct {
	ID                  string `json:"id"`
	ProviderDisplayName string `json:"providerDisplayName"`
}

// Connect verifies the organization exists and the token is accepted.
func (c *Client) Connect(ctx context.Context) (*ConnectionData, error) {
	endpoint := c.baseURL + "/_apis/connectionData?" + url.Values{
		"api-version": {constants.ConnectionDataAPIVersion},
	}.Encode()

	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrConnection, "%s: %v", c.baseURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // HTTP response body close

	if err := checkStatus(resp, errors.ErrConnection); err != nil {
		return nil, err
	}

	var data ConnectionData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, errors.Wrapf(errors.ErrConnection, "decode connection data: %v", err)
	}

	return &data, nil
}

// shallowResult is one entry of the ResultsByBuild response.
type shallowResult struct {
	ID                   int    `json:"id"`
	RunID                int    `json:"runId"`
	AutomatedTestName    string `json:"automatedTestName"`
	AutomatedTestStorage string `json:"automatedTestStorage"`
	TestCaseTitle        string `json:"testCaseTitle"`
	Outcome              string `json:"outcome"`
}

type resultsPage struct {
	Count int             `json:"count"`
	Value []shallowResult `json:"value"`
}

// FailedResultsByBuild returns every failed test result recorded for the
// build, following continuation tokens until the service stops sending one.
func (c *Client) FailedResultsByBuild(ctx context.Context, project string, buildID int) ([]domain.FailedTestCase, error) {
	logger := zerolog.Ctx(ctx)

	var (
		results      []domain.FailedTestCase
		continuation string
	)

	for page := 1; ; page++ {
		query := url.Values{
			"buildId":     {strconv.Itoa(buildID)},
			"outcomes":    {constants.OutcomeFailed},
			"api-version": {constants.TestAPIVersion},
		}
		if continuation != "" {
			query.Set("continuationToken", continuation)
		}
		endpoint := fmt.Sprintf("%s/%s/_apis/test/ResultsByBuild?%s", c.baseURL, url.PathEscape(project), query.Encode())

		items, next, err := c.fetchResultsPage(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		for _, r := range items {
			results = append(results, domain.FailedTestCase{
				AutomatedTestName:    r.AutomatedTestName,
				AutomatedTestStorage: r.AutomatedTestStorage,
				TestCaseTitle:        r.TestCaseTitle,
				Outcome:              r.Outcome,
				RunID:                r.RunID,
				ID:                   r.ID,
			})
		}

		logger.Debug().
			Int("page", page).
			Int("items", len(items)).
			Bool("more", next != "").
			Msg("fetched failed results page")

		if next == "" || next == continuation {
			break
		}
		continuation = next
	}

	return results, nil
}

func (c *Client) fetchResultsPage(ctx context.Context, endpoint string) ([]shallowResult, string, error) {
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", errors.Wrapf(errors.ErrFetchFailed, "request: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck // HTTP response body close

	if err := checkStatus(resp, errors.ErrFetchFailed); err != nil {
		return nil, "", err
	}

	var page resultsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, "", errors.Wrapf(errors.ErrFetchFailed, "decode results: %v", err)
	}

	return page.Value, resp.Header.Get(constants.ContinuationTokenHeader), nil
}

// AttachmentRequest describes one attachment to create on a test result.
type AttachmentRequest struct {
	Project  string
	RunID    int
	ResultID int
	// Stream is the base64 file content without a data URI prefix.
	Stream   string
	FileName string
	Comment  string
}

type attachmentBody struct {
	Stream         string `json:"stream"`
	FileName       string `json:"fileName"`
	Comment        string `json:"comment,omitempty"`
	AttachmentType string `json:"attachmentType"`
}

// CreateResultAttachment uploads an attachment to a test result.
//
// A response without a usable reference wraps errors.ErrAttachmentEmpty.
// A non-success status wraps errors.ErrAttachmentRejected, or
// errors.ErrAuthFailed for 401 and 403.
func (c *Client) CreateResultAttachment(ctx context.Context, req AttachmentRequest) (domain.AttachmentReference, error) {
	body, err := json.Marshal(attachmentBody{
		Stream:         req.Stream,
		FileName:       req.FileName,
		Comment:        req.Comment,
		AttachmentType: constants.AttachmentTypeGeneral,
	})
	if err != nil {
		return domain.AttachmentReference{}, fmt.Errorf("failed to encode attachment: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/_apis/test/Runs/%d/Results/%d/attachments?%s",
		c.baseURL, url.PathEscape(req.Project), req.RunID, req.ResultID,
		url.Values{"api-version": {constants.TestAPIVersion}}.Encode())

	resp, err := c.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return domain.AttachmentReference{}, errors.Wrapf(errors.ErrAttachmentRejected, "request: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck // HTTP response body close

	if err := checkStatus(resp, errors.ErrAttachmentRejected); err != nil {
		return domain.AttachmentReference{}, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.AttachmentReference{}, errors.Wrapf(errors.ErrAttachmentRejected, "read response: %v", err)
	}

	var ref *domain.AttachmentReference
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &ref); err != nil {
			return domain.AttachmentReference{}, errors.Wrapf(errors.ErrAttachmentEmpty, "decode reference: %v", err)
		}
	}
	if ref == nil || ref.IsZero() {
		return domain.AttachmentReference{}, errors.Wrapf(errors.ErrAttachmentEmpty, "run %d result %d", req.RunID, req.ResultID)
	}

	return *ref, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", basicAuth(c.token))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// basicAuth builds a personal-access-token header: empty user, token as password.
func basicAuth(token string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(":"+token))
}

// checkStatus maps a non-2xx response to sentinel, or ErrAuthFailed for 401/403.
func checkStatus(resp *http.Response, sentinel error) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		sentinel = errors.ErrAuthFailed
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if readErr != nil {
		return errors.Wrapf(sentinel, "status %d (failed to read response body: %v)", resp.StatusCode, readErr)
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return errors.Wrapf(sentinel, "status %d", resp.StatusCode)
	}
	return errors.Wrapf(sentinel, "status %d: %s", resp.StatusCode, msg)
}
