package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tphakala/microbe-go/cmd"
	"github.com/tphakala/microbe-go/internal/buildinfo"
	"github.com/tphakala/microbe-go/internal/runtime"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=...".
var (
	version   = "dev"
	buildDate = buildinfo.UnknownValue
)

func main() {
	rt := runtime.New(buildinfo.NewContext(version, buildDate))
	rootCmd := cmd.RootCommand(rt)

	err := rootCmd.ExecuteContext(context.Background())
	if closeErr := rt.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
