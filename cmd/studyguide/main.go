package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studyguide/cmd/studyguide/cmdutil"
	generatecmder "github.com/papercomputeco/studyguide/cmd/studyguide/generate"
	historycmder "github.com/papercomputeco/studyguide/cmd/studyguide/history"
	mcpcmder "github.com/papercomputeco/studyguide/cmd/studyguide/mcp"
	mergecmder "github.com/papercomputeco/studyguide/cmd/studyguide/merge"
	pushcmder "github.com/papercomputeco/studyguide/cmd/studyguide/push"
	servecmder "github.com/papercomputeco/studyguide/cmd/studyguide/serve"
	watchcmder "github.com/papercomputeco/studyguide/cmd/studyguide/watch"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "studyguide",
		Short:         "Turn lecture notes into study guides",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmdutil.AddPersistentFlags(root)

	root.AddCommand(
		servecmder.NewServeCmd(),
		generatecmder.NewGenerateCmd(),
		historycmder.NewHistoryCmd(),
		watchcmder.NewWatchCmd(),
		mcpcmder.NewMCPCmd(version),
		pushcmder.NewPushCmd(),
		mergecmder.NewMergeCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
