// Package main implements canopyctl, the operator CLI for a running canopyd
// instance. Every command talks to the REST API; nothing here touches the
// database directly.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	serverURL string
	authToken string
	timeout   time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "canopyctl",
	Short: "Operator CLI for the canopy carbon-offset registry",
	Long: `canopyctl drives a running canopyd instance over its REST API.

Point it at the server with --server (or CANOPY_SERVER) and pass --token
(or CANOPY_AUTH_TOKEN) when the server enforces bearer auth on mutations.

Examples:
  canopyctl project list
  canopyctl estimate --area 100 --forest-type "Tropical Rainforest"
  canopyctl sync verify`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("CANOPY_SERVER", "http://localhost:8080"), "canopyd base URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("CANOPY_AUTH_TOKEN"), "bearer token for mutating calls")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(forestTypesCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(measurementCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(satelliteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// cmdContext bounds a single invocation by the --timeout flag.
func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// apiClient is a thin wrapper over the REST API: bearer auth, JSON bodies,
// and the {"error": "..."} envelope on failures.
type apiClient struct {
	base  string
	token string
	httpc *http.Client
}

func newClient() *apiClient {
	return &apiClient{
		base:  strings.TrimRight(serverURL, "/"),
		token: authToken,
		httpc: &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	resp, data, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if err := checkStatus(resp, data); err != nil {
		return err
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (c *apiClient) doRaw(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("reaching %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, data, nil
}

func checkStatus(resp *http.Response, data []byte) error {
	if resp.StatusCode < 400 {
		return nil
	}
	var envelope struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &envelope) == nil && envelope.Error != "" {
		return fmt.Errorf("%s (status %d)", envelope.Error, resp.StatusCode)
	}
	return fmt.Errorf("request failed with status %d", resp.StatusCode)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
