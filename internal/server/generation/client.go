// Package generation is a small client for the Gemini generateContent API.
// It backs the chat action.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/oops"
)

// Error codes attached to returned oops errors.
const (
	CodeNotConfigured = "GENERATION_NOT_CONFIGURED"
	CodeRequestFailed = "GENERATION_REQUEST_FAILED"
	CodeAPIError      = "GENERATION_API_ERROR"
	CodeBadResponse   = "GENERATION_BAD_RESPONSE"
	CodeEmptyResponse = "GENERATION_EMPTY_RESPONSE"
)

// ErrNotConfigured is returned by Generate when no API key is set.
var ErrNotConfigured = errors.New("generation API key not configured")

// APIError is a non-200 answer from the API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("generation API: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("generation API: HTTP %d %s: %s", e.StatusCode, e.Status, e.Message)
}

// Client calls {baseURL}/v1beta/models/{model}:generateContent.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
}

// NewClient returns a client. A nil httpClient means http.DefaultClient;
// timeouts are expected to come from the request context.
func NewClient(httpClient *http.Client, baseURL, model, apiKey string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate sends prompt as a single user turn and returns the concatenated
// text of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	errb := oops.In("generation").With("model", c.model)

	if c.apiKey == "" {
		return "", errb.Code(CodeNotConfigured).Wrap(ErrNotConfigured)
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", errb.Code(CodeRequestFailed).Wrapf(err, "marshaling request")
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errb.Code(CodeRequestFailed).Wrapf(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errb.Code(CodeRequestFailed).Wrapf(err, "sending request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errb.Code(CodeAPIError).With("status", resp.StatusCode).Wrap(readAPIError(resp))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errb.Code(CodeBadResponse).Wrapf(err, "decoding response")
	}

	if len(out.Candidates) == 0 {
		return "", errb.Code(CodeEmptyResponse).Errorf("no candidates in response")
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return "", errb.Code(CodeEmptyResponse).Errorf("first candidate has no text")
	}

	return sb.String(), nil
}

// readAPIError parses {"error":{"code":...,"message":...,"status":...}}.
func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var wire struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if json.Unmarshal(body, &wire) == nil && wire.Error.Message != "" {
		apiErr.Status = wire.Error.Status
		apiErr.Message = wire.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
