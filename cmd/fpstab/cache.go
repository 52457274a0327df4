package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	fperrors "fpstab/internal/errors"
	"fpstab/internal/export"
	"fpstab/internal/expr"
	"fpstab/internal/output"
	"fpstab/internal/paths"
	"fpstab/internal/storage"
)

var cacheListLimit int

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and move the result cache",
	Long:  "Inspect, export and import the stabilizer result cache (stabilizer.db)",
}

var cacheLookupCmd = &cobra.Command{
	Use:   "lookup <expression>",
	Short: "Show the cached verdict for an expression without calling the solver",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheLookup,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache row counts",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached results, most referenced first",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cacheExportCmd = &cobra.Command{
	Use:   "export <archive.yaml[.zst]>",
	Short: "Export cached results and their call sites",
	Long: `Write every cached result with its recorded call sites to a YAML archive.
The archive is zstd-compressed when the path ends in .zst.`,
	Args: cobra.ExactArgs(1),
	RunE: runCacheExport,
}

var cacheImportCmd = &cobra.Command{
	Use:   "import <archive.yaml[.zst]>",
	Short: "Import an exported archive into the cache",
	Long: `Insert every result of an archive into the cache. Inputs that are already
cached keep their existing row; call sites are appended.`,
	Args: cobra.ExactArgs(1),
	RunE: runCacheImport,
}

func init() {
	cacheListCmd.Flags().IntVarP(&cacheListLimit, "limit", "n", 20, "Maximum rows to list (0 for all)")

	cacheCmd.AddCommand(cacheLookupCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheExportCmd)
	cacheCmd.AddCommand(cacheImportCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheLookup(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	e, err := expr.Parse(args[0])
	if err != nil {
		return fperrors.New(fperrors.ParseFailure, "cannot parse expression", err)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	cached := false
	resp := &StabilizeResponse{Input: e.String(), Output: e.String(), Cached: &cached}
	if r, ok := a.stab.Lookup(cmd.Context(), e); ok {
		resp = newStabilizeResponse(r)
		cached = true
		resp.Cached = &cached
	}

	return output.Write(cmd.OutOrStdout(), format, resp)
}

// CacheStatsResponse is the output of cache stats
type CacheStatsResponse struct {
	Database string        `json:"database" yaml:"database"`
	Exists   bool          `json:"exists" yaml:"exists"`
	Stats    storage.Stats `json:"stats" yaml:"stats"`
}

// RenderText prints the counts as aligned columns.
func (r *CacheStatsResponse) RenderText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "database:\t%s\n", r.Database)
	if !r.Exists {
		fmt.Fprintf(tw, "status:\tnot created yet\n")
		return tw.Flush()
	}
	fmt.Fprintf(tw, "results:\t%d\n", r.Stats.Results)
	fmt.Fprintf(tw, "improved:\t%d\n", r.Stats.Improved)
	fmt.Fprintf(tw, "regressed:\t%d\n", r.Stats.Regressed)
	fmt.Fprintf(tw, "call sites:\t%d\n", r.Stats.DebugRecords)
	return tw.Flush()
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	resp := &CacheStatsResponse{Database: paths.DatabasePath(a.store.Root())}
	resp.Exists, err = a.store.View(cmd.Context(), func(repo *storage.ResultRepository) error {
		var err error
		resp.Stats, err = repo.Stats(cmd.Context())
		return err
	})
	if err != nil {
		return fperrors.New(fperrors.StoreUnavailable, "Failed to read cache", err)
	}

	return output.Write(cmd.OutOrStdout(), format, resp)
}

// CacheListItem is one row of cache list
type CacheListItem struct {
	CmdIn     string       `json:"cmdin" yaml:"cmdin"`
	CmdOut    string       `json:"cmdout" yaml:"cmdout"`
	ErrIn     *output.Bits `json:"errin" yaml:"errin"`
	ErrOut    *output.Bits `json:"errout" yaml:"errout"`
	CallSites int          `json:"callSites" yaml:"callSites"`
}

// CacheListResponse is the output of cache list
type CacheListResponse struct {
	Results []CacheListItem `json:"results" yaml:"results"`
}

// RenderText prints one row per result.
func (r *CacheListResponse) RenderText(w io.Writer) error {
	if len(r.Results) == 0 {
		_, err := io.WriteString(w, "No cached results.\n")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SITES\tERRIN\tERROUT\tINPUT\tOUTPUT")
	for _, item := range r.Results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			item.CallSites, formatMetric(item.ErrIn), formatMetric(item.ErrOut), item.CmdIn, item.CmdOut)
	}
	return tw.Flush()
}

func runCacheList(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	resp := &CacheListResponse{Results: []CacheListItem{}}
	_, err = a.store.View(cmd.Context(), func(repo *storage.ResultRepository) error {
		rows, err := repo.List(cmd.Context(), cacheListLimit)
		if err != nil {
			return err
		}
		for _, row := range rows {
			resp.Results = append(resp.Results, CacheListItem{
				CmdIn:     row.CmdIn,
				CmdOut:    row.CmdOut,
				ErrIn:     output.Metric(row.ErrIn),
				ErrOut:    output.Metric(row.ErrOut),
				CallSites: row.DebugCount,
			})
		}
		return nil
	})
	if err != nil {
		return fperrors.New(fperrors.StoreUnavailable, "Failed to read cache", err)
	}

	return output.Write(cmd.OutOrStdout(), format, resp)
}

func runCacheExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	archive, err := export.Export(cmd.Context(), a.store)
	if err != nil {
		return fperrors.New(fperrors.StoreUnavailable, "Failed to export cache", err)
	}
	if err := export.WriteFile(args[0], archive); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	a.logger.Info("Cache exported", "path", args[0], "results", len(archive.Results))
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d results to %s\n", len(archive.Results), args[0])
	return nil
}

// ImportResponse is the output of cache import
type ImportResponse struct {
	Archive            string `json:"archive" yaml:"archive"`
	export.ImportStats `yaml:",inline"`
}

// RenderText prints the import counts.
func (r *ImportResponse) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Imported %d results and %d call sites from %s (%d skipped)\n",
		r.Results, r.DebugRecords, r.Archive, r.Skipped)
	return err
}

func runCacheImport(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	archive, err := export.ReadFile(args[0])
	if err != nil {
		return fperrors.New(fperrors.ParseFailure, "Failed to read archive", err)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	stats := export.Import(cmd.Context(), a.store, archive, a.logger)
	return output.Write(cmd.OutOrStdout(), format, &ImportResponse{Archive: args[0], ImportStats: stats})
}
