// Package dashboardsvc talks to the course-management dashboard's internal
// API, which owns rosters, work items and the submission log. The ledger only
// ever reads from it.
package dashboardsvc

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/smartstudentv6/smart-student-notices/core/notice"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
}

var (
	_ notice.Roster      = (*Client)(nil)
	_ notice.WorkItems   = (*Client)(nil)
	_ notice.Submissions = (*Client)(nil)
)

func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}
}

func (c *Client) getJSON(path string, result interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return errors.Wrap(err, "calling dashboard API")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return errors.Errorf("dashboard API: status=%d, body=%s", resp.StatusCode, string(body))
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(result), "decoding dashboard response")
}

func (c *Client) MembersOf(courseID string) ([]string, error) {
	var out struct {
		Members []string `json:"members"`
	}
	if err := c.getJSON("/internal/courses/"+url.PathEscape(courseID)+"/members", &out); err != nil {
		return nil, err
	}
	return out.Members, nil
}

func (c *Client) LifecycleState(workItemID, identity string) (notice.State, error) {
	var out struct {
		State notice.State `json:"state"`
	}
	path := fmt.Sprintf("/internal/work-items/%s/state?identity=%s", url.PathEscape(workItemID), url.QueryEscape(identity))
	if err := c.getJSON(path, &out); err != nil {
		return "", err
	}
	return out.State, nil
}

func (c *Client) AllTargetsTerminal(workItemID string) (bool, error) {
	var out struct {
		Terminal bool `json:"terminal"`
	}
	if err := c.getJSON("/internal/work-items/"+url.PathEscape(workItemID)+"/terminal", &out); err != nil {
		return false, err
	}
	return out.Terminal, nil
}

func (c *Client) ListSubmissions(workItemID string) ([]notice.Submission, error) {
	var out struct {
		Submissions []notice.Submission `json:"submissions"`
	}
	if err := c.getJSON("/internal/work-items/"+url.PathEscape(workItemID)+"/submissions", &out); err != nil {
		return nil, err
	}
	return out.Submissions, nil
}
