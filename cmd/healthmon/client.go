package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"
)

// containerStatus mirrors the daemon's /status response entries.
type containerStatus struct {
	Name      string    `json:"name"`
	Project   string    `json:"project"`
	Status    string    `json:"status"`
	LastCheck time.Time `json:"last_check"`
}

// APIClient talks to a running healthmon daemon over its status API.
type APIClient struct {
	baseURL string
	client  *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080/api"
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &APIClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *APIClient) decodeError(resp *http.Response) error {
	var errorResp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
		return fmt.Errorf("API error: status %d", resp.StatusCode)
	}
	return fmt.Errorf("API error: %s", errorResp.Error)
}

// Statuses fetches all tracked container records.
func (c *APIClient) Statuses() ([]containerStatus, error) {
	resp, err := c.client.Get(c.baseURL + "/status")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp)
	}
	var out []containerStatus
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Status fetches a single tracked container by exact name.
func (c *APIClient) Status(name string) (containerStatus, error) {
	resp, err := c.client.Get(c.baseURL + "/status?name=" + url.QueryEscape(name))
	if err != nil {
		return containerStatus{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return containerStatus{}, c.decodeError(resp)
	}
	var out containerStatus
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return containerStatus{}, err
	}
	return out, nil
}

// PendingRetries fetches the names of containers with a re-check in flight.
func (c *APIClient) PendingRetries() ([]string, error) {
	resp, err := c.client.Get(c.baseURL + "/retries")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp)
	}
	var out struct {
		Pending []string `json:"pending"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Pending, nil
}

func runStatus(flags StatusFlags) error {
	client := NewAPIClient(flags.APIUrl, flags.APITimeout)

	if flags.Retries {
		pending, err := client.PendingRetries()
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Println("no re-checks in flight")
			return nil
		}
		for _, name := range pending {
			fmt.Println(name)
		}
		return nil
	}

	if flags.Name != "" {
		rec, err := client.Status(flags.Name)
		if err != nil {
			return err
		}
		printStatuses([]containerStatus{rec})
		return nil
	}

	recs, err := client.Statuses()
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("no containers with healthchecks are tracked")
		return nil
	}
	printStatuses(recs)
	return nil
}

func printStatuses(recs []containerStatus) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tPROJECT\tSTATUS\tLAST CHECK")
	for _, r := range recs {
		last := "-"
		if !r.LastCheck.IsZero() {
			last = r.LastCheck.Format(time.RFC3339)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.Project, r.Status, last)
	}
	_ = w.Flush()
}
