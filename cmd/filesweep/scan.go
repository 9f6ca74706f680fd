package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/filesweep/filesweep/internal/dedupe"
	"github.com/filesweep/filesweep/internal/embedding"
	"github.com/filesweep/filesweep/internal/logging"
	"github.com/filesweep/filesweep/internal/types"
)

var (
	scanThreshold  float64
	scanConfigPath string
	scanEmbedModel string
	scanOllamaURL  string
	scanTimeout    time.Duration
)

var scanCmd = &cobra.Command{
	Use:   "scan <directory>",
	Short: "Scan a directory tree for duplicate files",
	Long: `Walk a directory tree, fingerprint every regular file, and report
groups of exact and near-duplicate files with a confidence score and the
space reclaimable by deleting the redundant copies.

Text embedding is off unless --embed-model names a model served by a local
Ollama instance (e.g. nomic-embed-text). Without it, detection runs on exact
content hashes and perceptual image hashes.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().Float64Var(&scanThreshold, "threshold", -1,
		"similarity threshold override in [0,1] (default: configured value)")
	scanCmd.Flags().StringVar(&scanConfigPath, "config", "",
		"path to a YAML config file")
	scanCmd.Flags().StringVar(&scanEmbedModel, "embed-model", "",
		"Ollama embedding model for text similarity (off when empty)")
	scanCmd.Flags().StringVar(&scanOllamaURL, "ollama-url", "",
		"Ollama server URL (default: local server)")
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 10*time.Minute,
		"overall deadline for the scan")
}

// fileOverrides is the YAML config file shape. Every field is optional and
// overlays the environment/default configuration.
type fileOverrides struct {
	Threshold        *float64 `yaml:"threshold"`
	MaxBatchSize     *int     `yaml:"max_batch_size"`
	MaxSampleBytes   *int     `yaml:"max_sample_bytes"`
	EmbedBatchSize   *int     `yaml:"embed_batch_size"`
	Parallelism      *int     `yaml:"parallelism"`
	EmbedTimeoutSecs *int     `yaml:"embed_timeout_secs"`
	EmbedModel       string   `yaml:"embed_model"`
	OllamaURL        string   `yaml:"ollama_url"`
}

func runScan(cmd *cobra.Command, args []string) error {
	logger := logging.New("filesweep")

	cfg, err := dedupe.ConfigFromEnv()
	if err != nil {
		return err
	}
	if scanConfigPath != "" {
		if err := applyConfigFile(scanConfigPath, &cfg); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var embedder embedding.Embedder
	if scanEmbedModel != "" {
		var opts []embedding.OllamaOption
		if scanOllamaURL != "" {
			opts = append(opts, embedding.WithServerURL(scanOllamaURL))
		}
		ollama, err := embedding.NewOllamaEmbedder(scanEmbedModel, opts...)
		if err != nil {
			return fmt.Errorf("setting up embedder: %w", err)
		}
		embedder = ollama
	}

	fs := afero.NewOsFs()
	engine, err := dedupe.New(cfg, embedder, fs, logger)
	if err != nil {
		return err
	}

	files, err := collectFiles(fs, args[0], cfg.MaxBatchSize)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No files found.")
		return nil
	}
	logger.Info("scanning", "dir", args[0], "files", len(files))

	req := &types.BatchRequest{
		BatchID: uuid.NewString(),
		Files:   files,
	}
	if scanThreshold >= 0 {
		req.ThresholdOverride = &scanThreshold
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), scanTimeout)
	defer cancel()

	result, err := engine.Detect(ctx, req)
	if err != nil {
		return err
	}

	printReport(result, files)
	return nil
}

// collectFiles walks the tree and builds one descriptor per regular file,
// classified by sniffed content type. The walk stops with an error once the
// batch limit is exceeded so the engine's rejection is surfaced early.
func collectFiles(fs afero.Fs, root string, maxFiles int) ([]types.FileDescriptor, error) {
	var files []types.FileDescriptor
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if len(files) >= maxFiles {
			return fmt.Errorf("more than %d files under %s; raise FILESWEEP_MAX_BATCH or scan a subdirectory", maxFiles, root)
		}
		files = append(files, types.FileDescriptor{
			ID:        path,
			Name:      info.Name(),
			Size:      info.Size(),
			MediaType: classifyFile(fs, path),
			Path:      path,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// classifyFile sniffs the head of the file and maps the detected MIME type
// onto the engine's media classes.
func classifyFile(fs afero.Fs, path string) types.MediaType {
	f, err := fs.Open(path)
	if err != nil {
		return types.MediaBinary
	}
	defer f.Close()

	head, err := io.ReadAll(io.LimitReader(f, 3072))
	if err != nil {
		return types.MediaBinary
	}
	return classifyBytes(head)
}

func classifyBytes(head []byte) types.MediaType {
	if len(head) == 0 {
		return types.MediaBinary
	}
	mtype := mimetype.Detect(head)
	switch {
	case strings.HasPrefix(mtype.String(), "image/"):
		return types.MediaImage
	case strings.HasPrefix(mtype.String(), "text/"):
		return types.MediaText
	default:
		return types.MediaBinary
	}
}

func applyConfigFile(path string, cfg *dedupe.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var overrides fileOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	if overrides.Threshold != nil {
		cfg.Threshold = *overrides.Threshold
	}
	if overrides.MaxBatchSize != nil {
		cfg.MaxBatchSize = *overrides.MaxBatchSize
	}
	if overrides.MaxSampleBytes != nil {
		cfg.MaxSampleBytes = *overrides.MaxSampleBytes
	}
	if overrides.EmbedBatchSize != nil {
		cfg.EmbedBatchSize = *overrides.EmbedBatchSize
	}
	if overrides.Parallelism != nil {
		cfg.Parallelism = *overrides.Parallelism
	}
	if overrides.EmbedTimeoutSecs != nil {
		cfg.EmbedTimeout = time.Duration(*overrides.EmbedTimeoutSecs) * time.Second
	}
	if overrides.EmbedModel != "" && scanEmbedModel == "" {
		scanEmbedModel = overrides.EmbedModel
	}
	if overrides.OllamaURL != "" && scanOllamaURL == "" {
		scanOllamaURL = overrides.OllamaURL
	}
	return nil
}

func printReport(result *types.BatchResult, files []types.FileDescriptor) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	names := make(map[string]string, len(files))
	for i := range files {
		names[files[i].ID] = files[i].Name
	}

	fmt.Printf("\n%s\n\n", cyan("=== FileSweep Report ==="))

	if len(result.Groups) == 0 {
		fmt.Printf("%s\n", green("No duplicates found."))
	}
	for i, group := range result.Groups {
		fmt.Printf("%s %s\n",
			yellow(fmt.Sprintf("Group %d", i+1)),
			gray(fmt.Sprintf("(confidence %.2f, reclaim %s)",
				group.Confidence, humanize.Bytes(uint64(group.SpaceWasted)))))
		for _, member := range group.Members {
			marker := "  delete"
			if member == group.Primary {
				marker = green("  keep  ")
			}
			fmt.Printf("%s %s %s\n", marker, member, gray(names[member]))
		}
	}

	stats := result.Stats
	fmt.Printf("\n%s %d files, %d groups, %d duplicates, %s reclaimable, %d comparisons in %dms\n",
		cyan("Totals:"),
		stats.FilesSubmitted, stats.GroupCount, stats.DuplicateFiles,
		humanize.Bytes(uint64(stats.SpaceWasted)),
		stats.ComparisonsMade, stats.ProcessingTimeMs)
}
