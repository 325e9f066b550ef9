// Command admin-token mints a bearer token for the admin HTTP routes.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"ai-video-queue/internal/config"
	apiv1 "ai-video-queue/internal/infra/api/apiv1"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	subject := flag.String("sub", "admin", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.HTTP.AdminSecret == "" {
		fmt.Fprintln(os.Stderr, "http.admin_secret is empty; admin routes are open and need no token")
		os.Exit(1)
	}

	tok, err := apiv1.NewAuthManager(cfg.HTTP.AdminSecret).Mint(*subject, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
