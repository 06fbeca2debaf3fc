package main

import (
	"fmt"
	"os"

	"github.com/faultline-io/faultline/pkg/mcp"
)

func main() {
	apiURL := os.Getenv("FAULTLINE_API_URL")
	s := mcp.NewServer(apiURL)
	if err := s.Serve(); err != nil {
		fmt.Fprintf(os.Stderr, "mcp server error: %v\n", err)
		os.Exit(1)
	}
}
