// Command healthcheck probes the local server's liveness endpoint and exits
// non-zero when it does not answer 200. Intended for container health checks.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/garyellow/interview-linebot-go/internal/config"
)

func main() {
	port := os.Getenv(config.EnvPort)
	if port == "" {
		port = "3978"
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://localhost:%s/livez", port))
	if err != nil {
		os.Exit(1)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
