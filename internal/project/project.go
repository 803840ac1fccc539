// Package project locates, loads, and initializes demoplan projects. A
// project is a directory with a .demoplan/ subdirectory holding the config
// file, the plan database, and the log file.
package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/demoplan/demoplan/internal/logging"
	"github.com/demoplan/demoplan/internal/store"
)

const (
	// ConfigDir is the directory name for project configuration.
	ConfigDir = ".demoplan"
	// ConfigFile is the name of the project config file.
	ConfigFile = "config.toml"
	// PlanDB is the name of the plan database file.
	PlanDB = "demoplan.db"
)

// Project represents a demoplan project.
type Project struct {
	Root   string    // Project directory path
	Config *Config   // Parsed config.toml
	DB     *store.DB // Plan database
}

// Find finds a project from a flag value or the current directory. If
// flagValue is non-empty, that path is used; otherwise the search starts
// at the working directory.
func Find(ctx context.Context, flagValue string) (*Project, error) {
	if flagValue != "" {
		return find(ctx, flagValue)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return find(ctx, cwd)
}

// find walks up from startDir looking for a .demoplan/ directory.
func find(ctx context.Context, startDir string) (*Project, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	for {
		configPath := filepath.Join(dir, ConfigDir, ConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return load(ctx, dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return nil, fmt.Errorf("no project found (no %s directory)", ConfigDir)
		}
		dir = parent
	}
}

// load loads a project from the given root directory.
func load(ctx context.Context, root string) (*Project, error) {
	configPath := filepath.Join(root, ConfigDir, ConfigFile)
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	// The environment variable wins over the config file.
	if lvl := cfg.Logging.GetLevel(); lvl != "" && os.Getenv(logging.LevelEnvVar) == "" {
		os.Setenv(logging.LevelEnvVar, lvl)
	}
	if err := logging.Init(filepath.Join(root, ConfigDir)); err != nil {
		logging.Warn("failed to initialize logging", "error", err)
	}

	database, err := store.OpenPath(ctx, filepath.Join(root, ConfigDir, PlanDB))
	if err != nil {
		return nil, fmt.Errorf("failed to open plan database: %w", err)
	}

	return &Project{
		Root:   root,
		Config: cfg,
		DB:     database,
	}, nil
}

// Create initializes a new project at the given directory.
func Create(ctx context.Context, dir string) (*Project, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDir)
	if _, err := os.Stat(configDir); err == nil {
		return nil, fmt.Errorf("project already exists at %s", absDir)
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}

	cfg := &Config{
		Project: ProjectConfig{
			Name:      filepath.Base(absDir),
			CreatedAt: time.Now(),
		},
		AI: AIConfig{
			Provider: ProviderOpenRouter,
		},
	}

	configPath := filepath.Join(configDir, ConfigFile)
	if err := cfg.SaveDocumentedConfig(configPath); err != nil {
		os.RemoveAll(configDir)
		return nil, err
	}

	// Create the summaries directory so there is somewhere to drop input.
	if err := os.MkdirAll(filepath.Join(absDir, cfg.Watch.GetDir()), 0755); err != nil {
		os.RemoveAll(configDir)
		return nil, fmt.Errorf("failed to create summaries directory: %w", err)
	}

	// Initialize the plan database.
	database, err := store.OpenPath(ctx, filepath.Join(configDir, PlanDB))
	if err != nil {
		os.RemoveAll(configDir)
		return nil, fmt.Errorf("failed to initialize plan database: %w", err)
	}
	database.Close()

	return &Project{
		Root:   absDir,
		Config: cfg,
	}, nil
}

// DataDir returns the path to the .demoplan directory.
func (p *Project) DataDir() string {
	return filepath.Join(p.Root, ConfigDir)
}

// DBPath returns the path to the plan database.
func (p *Project) DBPath() string {
	return filepath.Join(p.Root, ConfigDir, PlanDB)
}

// ExportsPath returns the path to the export directory.
func (p *Project) ExportsPath() string {
	return filepath.Join(p.Root, p.Config.Export.GetDir())
}

// SummariesPath returns the path to the watched summaries directory.
func (p *Project) SummariesPath() string {
	return filepath.Join(p.Root, p.Config.Watch.GetDir())
}

// Close closes the plan database.
func (p *Project) Close() error {
	if p.DB != nil {
		if err := p.DB.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
	}
	return nil
}
