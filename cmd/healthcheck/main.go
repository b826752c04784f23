// Package main is the container health probe for the chartlet server.
// It exits 0 when /livez on the configured port answers 200.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/must-gpa/chartlet/internal/config"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), config.Healthcheck)
	defer cancel()

	if err := check(ctx, livezURL(os.Getenv(config.EnvPort))); err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck:", err)
		os.Exit(1)
	}
}

func livezURL(port string) string {
	if port == "" {
		port = "10000"
	}
	return "http://127.0.0.1:" + port + "/livez"
}

func check(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d", url, resp.StatusCode)
	}
	return nil
}
