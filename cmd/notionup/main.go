package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mdpress/notionup/internal/config"
	"github.com/mdpress/notionup/internal/imghost"
	"github.com/mdpress/notionup/internal/notion"
	"github.com/mdpress/notionup/internal/uploader"
)

var (
	verbose    bool
	dryRun     bool
	showConfig bool
)

var rootCmd = &cobra.Command{
	Use:   "notionup <file.md>",
	Short: "Upload a markdown document to Notion as paginated pages",
	Args:  cobra.MaximumNArgs(1),
	RunE:  run,

	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "convert and paginate without uploading")
	rootCmd.Flags().BoolVar(&showConfig, "show-config", false, "print the resolved configuration and exit")
}

func run(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := config.Load()

	if showConfig {
		printConfig(cfg)
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("exactly one markdown file is required")
	}
	path := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var resolver imghost.Resolver
	var chain imghost.Chain
	if cfg.HasFTP() {
		chain = append(chain, &imghost.FTPHost{
			Addr:    cfg.FTPHost,
			User:    cfg.FTPUser,
			Pass:    cfg.FTPPass,
			Dir:     cfg.FTPDir,
			BaseURL: cfg.FTPBaseURL,
		})
	}
	if cfg.HasImgBB() {
		chain = append(chain, imghost.NewImgBBHost(cfg.ImgBBKey))
	}
	if len(chain) > 0 {
		resolver = chain
	}

	opts := notion.Options{
		MaxRichTextLen: cfg.MaxRichTextLen,
		VideoDomains:   cfg.VideoDomains,
		NativeCallouts: cfg.NativeCallouts,
	}

	if dryRun {
		up := uploader.New(nil, resolver, opts, cfg.MaxBlocksPerPage, cfg.StrictImages, log)
		plan, err := up.Prepare(ctx, path)
		if err != nil {
			return err
		}
		fmt.Printf("title: %s\n", plan.Title)
		for _, page := range plan.Pages {
			fmt.Printf("page %d/%d: %q, %d blocks\n", page.Index+1, page.Total, page.Title, len(page.Blocks))
		}
		if len(plan.Warnings) > 0 {
			fmt.Printf("%d warning(s)\n", len(plan.Warnings))
			for _, w := range plan.Warnings {
				fmt.Println("  " + w.String())
			}
		}
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	client := notion.NewClient(cfg.Token, cfg.DatabaseID)
	up := uploader.New(client, resolver, opts, cfg.MaxBlocksPerPage, cfg.StrictImages, log)

	res, err := up.Run(ctx, path)
	if res != nil {
		// Pages written before a failure stay written; report them.
		for _, page := range res.Pages {
			fmt.Println(page.URL)
		}
	}
	return err
}

func printConfig(cfg config.Config) {
	fmt.Printf("config dir:          %s\n", config.Dir())
	fmt.Printf("database id:         %s\n", mask(cfg.DatabaseID))
	fmt.Printf("token:               %s\n", mask(cfg.Token))
	fmt.Printf("ftp host:            %s (configured: %v)\n", cfg.FTPHost, cfg.HasFTP())
	fmt.Printf("imgbb:               configured: %v\n", cfg.HasImgBB())
	fmt.Printf("max blocks per page: %d\n", cfg.MaxBlocksPerPage)
	fmt.Printf("max rich text len:   %d\n", cfg.MaxRichTextLen)
	fmt.Printf("video domains:       %v\n", cfg.VideoDomains)
	fmt.Printf("native callouts:     %v\n", cfg.NativeCallouts)
	fmt.Printf("strict images:       %v\n", cfg.StrictImages)
}

func mask(s string) string {
	if s == "" {
		return "(unset)"
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:4] + "..." + s[len(s)-2:]
}
