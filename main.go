package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cratesweep",
	Short: "Find and purge cargo target directories",
	Long: `Scan a directory tree for cargo projects, list their target
directories by size, and interactively delete the ones you select.`,
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var rootFlags struct {
	dryRun      bool
	searchRoot  string
	scanWorkers int
	configPath  string
}

func init() {
	rootCmd.Flags().BoolVar(&rootFlags.dryRun, "dry-run", false, "Pretend to delete without touching the filesystem")
	rootCmd.Flags().StringVarP(&rootFlags.searchRoot, "search-root", "r", "", "Directory to scan (default: home directory)")
	rootCmd.Flags().IntVarP(&rootFlags.scanWorkers, "scan-workers", "p", 0, "Number of scan workers (0 = CPU count - 1)")
	rootCmd.Flags().StringVar(&rootFlags.configPath, "config", "", "Path to a config file")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(rootFlags.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = rootFlags.dryRun
	}
	if cmd.Flags().Changed("search-root") {
		cfg.SearchRoot = rootFlags.searchRoot
	}
	if cmd.Flags().Changed("scan-workers") {
		cfg.ScanWorkers = rootFlags.scanWorkers
	}

	searchRoot := cfg.SearchRoot
	if searchRoot == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		searchRoot = home
	}
	absRoot, err := filepath.Abs(searchRoot)
	if err != nil {
		return fmt.Errorf("resolve search root: %w", err)
	}

	workers := cfg.ScanWorkers
	if workers == 0 {
		workers = defaultScanWorkers()
	}

	notify := NewNotifyChannel()
	results, scanProgress := FindProjects(absRoot, workers, notify)

	m := NewModel(absRoot, cfg.DryRun, notify, scanProgress)
	go drainResults(results, m.items)

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
