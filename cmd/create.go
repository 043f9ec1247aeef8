package cmd

import (
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/storybooth/storybooth/internal/config"
	"github.com/storybooth/storybooth/internal/finalize"
	"github.com/storybooth/storybooth/internal/ingest"
	"github.com/storybooth/storybooth/internal/library"
	"github.com/storybooth/storybooth/internal/models"
	"github.com/storybooth/storybooth/internal/transform"
	"github.com/storybooth/storybooth/internal/translate"
)

func newCreateCmd(configPath *string) *cobra.Command {
	var (
		title     string
		storyCtx  string
		style     string
		direction string
	)

	cmd := &cobra.Command{
		Use:   "create <photo-dir>",
		Short: "Build a storybook from a directory of photos",
		Long: `Runs the whole import pipeline over the photos in a directory, in filename
order, and publishes the finished story to the local library.`,
		Example: `  # Build a watercolor story from ./vacation
  storybooth create ./vacation --title "Our Trip" --context "a family beach vacation"

  # Also fill the second caption language
  storybooth create ./vacation --title "Our Trip" --translate primary_to_secondary`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return executeCreate(cmd, cfg, args[0], title, storyCtx, style, direction)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "story title")
	cmd.Flags().StringVar(&storyCtx, "context", "", "story context passed to every illustration call")
	cmd.Flags().StringVar(&style, "style", "watercolor", "illustration style")
	cmd.Flags().StringVar(&direction, "translate", "", "fill the other caption language (primary_to_secondary or secondary_to_primary)")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func executeCreate(cmd *cobra.Command, cfg config.Config, photoDir, title, storyCtx, style, direction string) error {
	ctx := cmd.Context()

	files, err := readPhotoDir(photoDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no image files found in %s", photoDir)
	}
	slog.Info("Photos found", "dir", photoDir, "count", len(files))

	lib, err := library.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer lib.Close()

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	session := &models.StorySession{
		ID:                uuid.NewString(),
		Title:             title,
		StoryContext:      storyCtx,
		IllustrationStyle: style,
		Stage:             models.StageUpload,
		CreatedAt:         time.Now(),
	}

	report, err := ingest.New(cfg.UploadsDir()).Ingest(session, files)
	if err != nil {
		return err
	}
	for _, rejection := range report.Rejections {
		slog.Warn("Photo rejected", "name", rejection.Name, "reason", rejection.Reason)
	}
	if len(session.Items) == 0 {
		return fmt.Errorf("no photos accepted from %s", photoDir)
	}

	slog.Info("Transforming photos", "count", len(session.Items), "style", style, "pace", time.Duration(cfg.PaceDelay))
	if err := transform.New(provider, time.Duration(cfg.PaceDelay)).Run(ctx, session); err != nil {
		return err
	}
	for _, item := range session.Items {
		if item.Status == models.StatusError {
			slog.Warn("Photo failed, continuing without it", "name", item.SourceName, "reason", item.ErrorDetail)
		}
	}

	if direction != "" {
		dir, err := translate.ParseDirection(direction)
		if err != nil {
			return err
		}
		if err := translate.New(provider, cfg.LanguagePrimary, cfg.LanguageSecondary).Run(ctx, session, dir); err != nil {
			return err
		}
	}

	result, err := finalize.New(lib).Run(ctx, session)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Story %s created with %d page(s)", result.StoryID, result.PagesUploaded)
	if result.PagesFailed > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), " (%d page(s) lost to upload failures)", result.PagesFailed)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

func readPhotoDir(dir string) ([]ingest.File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read photo directory: %w", err)
	}

	var files []ingest.File
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contentType := mime.TypeByExtension(filepath.Ext(entry.Name()))
		switch contentType {
		case "image/png", "image/jpeg", "image/webp", "image/gif":
		default:
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		files = append(files, ingest.File{Name: entry.Name(), ContentType: contentType, Data: data})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
