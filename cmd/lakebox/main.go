package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/lakebox/pkg/config"
	"github.com/cuemby/lakebox/pkg/graph"
	"github.com/cuemby/lakebox/pkg/httpapi"
	"github.com/cuemby/lakebox/pkg/lake"
	"github.com/cuemby/lakebox/pkg/log"
	"github.com/cuemby/lakebox/pkg/pipeline"
	"github.com/cuemby/lakebox/pkg/scaffold"
	"github.com/cuemby/lakebox/pkg/security"
	"github.com/cuemby/lakebox/pkg/types"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// shutdownTimeout bounds how long start waits for in-flight requests to
// drain on Ctrl+C before forcing the listener closed.
const shutdownTimeout = 10 * time.Second

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lakebox",
	Short: "lakebox - a self-hosted analytics workbench",
	Long: `lakebox ingests CSV, JSON, Parquet and database sources into an
embedded analytical warehouse, transforms them with SQL models tracked
in a dependency graph, and serves ad-hoc queries and dashboards over
a single HTTP API.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"lakebox version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	startCmd.Flags().IntP("port", "p", 3015, "Port to serve the API on")

	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(startCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var newCmd = &cobra.Command{
	Use:   "new <project-name>",
	Short: "Create a new lakebox project",
	Long: `Create a new lakebox project directory, seeded with a default
project.yml, a .secret.key for encrypting connection credentials, and a
worked example (sample CSV/JSON/SQLite sources, adapters, models,
queries and dashboards) so 'lakebox start' has something to show.`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

var startCmd = &cobra.Command{
	Use:   "start <project-name>",
	Short: "Start the lakebox API server for a project",
	Long: `Load an existing project's configuration and serve its HTTP API:
adapters, models, queries, dashboards, the dependency graph and the
pipeline scheduler, all behind one port.`,
	Args: cobra.ExactArgs(1),
	RunE: runStart,
}

func runNew(cmd *cobra.Command, args []string) error {
	projectName := args[0]

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	projectDir := filepath.Join(cwd, projectName)

	if _, err := os.Stat(projectDir); err == nil {
		return fmt.Errorf("directory '%s' already exists", projectDir)
	}

	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return fmt.Errorf("create project directory: %w", err)
	}

	if err := writeDefaultProject(projectDir); err != nil {
		return err
	}
	if err := createGitignore(projectDir); err != nil {
		return err
	}
	if err := createSecretKey(projectDir); err != nil {
		return err
	}

	cfg, err := config.Load(projectDir)
	if err != nil {
		return fmt.Errorf("load newly created project: %w", err)
	}

	g := graph.New(projectDir)
	if err := scaffold.CreateSampleProject(cfg, g); err != nil {
		return fmt.Errorf("seed sample project: %w", err)
	}

	fmt.Printf("✓ Project '%s' created successfully\n", projectName)
	fmt.Printf("  Run 'lakebox start %s' to open the project\n", projectName)
	return nil
}

// writeDefaultProject writes a fresh project.yml: local storage under
// ./storage, a SQLite catalog at ./database.db, no connections yet.
func writeDefaultProject(projectDir string) error {
	project := types.ProjectConfig{
		Storage:     types.StorageConfig{Local: &types.LocalStorage{Path: "./storage"}},
		Catalog:     types.CatalogConfig{Sqlite: &types.SqliteConnection{Path: "./database.db"}},
		Connections: map[string]types.ConnectionConfig{},
	}
	data, err := yaml.Marshal(project)
	if err != nil {
		return fmt.Errorf("marshal project.yml: %w", err)
	}
	return os.WriteFile(filepath.Join(projectDir, "project.yml"), data, 0o644)
}

// createGitignore writes the .gitignore every fresh project needs so
// the secret key, warehouse storage and sample data never land in git.
func createGitignore(projectDir string) error {
	content := ".secret.key\nstorage/\ndatabase.db\n.data/\nsample_data/\n"
	return os.WriteFile(filepath.Join(projectDir, ".gitignore"), []byte(content), 0o644)
}

// createSecretKey generates .secret.key unless one already exists, so
// re-running new against a half-initialized directory is harmless.
func createSecretKey(projectDir string) error {
	keyPath := security.KeyPath(projectDir)
	if _, err := os.Stat(keyPath); err == nil {
		return nil
	}
	return security.GenerateKey(keyPath)
}

func runStart(cmd *cobra.Command, args []string) error {
	projectName := args[0]
	port, _ := cmd.Flags().GetInt("port")

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	projectDir := filepath.Join(cwd, projectName)

	if _, err := os.Stat(filepath.Join(projectDir, "project.yml")); err != nil {
		return fmt.Errorf("'%s' is not a valid lakebox project (missing project.yml)", projectDir)
	}

	cfg, err := config.Load(projectDir)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}

	g, err := graph.Load(projectDir)
	if err != nil {
		return fmt.Errorf("load dependency graph: %w", err)
	}

	l, err := lake.New(cfg.Project.Catalog, cfg.Project.Storage, projectDir)
	if err != nil {
		return fmt.Errorf("open analytical engine: %w", err)
	}
	defer l.Close()

	executor := pipeline.NewExecutor(cfg, l)
	sched := pipeline.NewScheduler(projectDir, g, executor)

	server := httpapi.NewServer(cfg, g, l, sched)

	addr := fmt.Sprintf(":%d", port)
	httpServer := &http.Server{Addr: addr, Handler: server}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("API server error: %w", err)
		}
	}()

	fmt.Println("🚀 lakebox is running!")
	fmt.Printf("  API: http://localhost:%d\n", port)
	fmt.Println("  Press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		fmt.Println("\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		fmt.Println("✓ Stopped")
		return nil
	}
}
