package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/time/rate"

	"github.com/desertthunder/nunvibe/internal/formatter"
	"github.com/desertthunder/nunvibe/internal/metrics"
	"github.com/desertthunder/nunvibe/internal/models"
	"github.com/desertthunder/nunvibe/internal/shared"
)

// ManifestName is the file a sweep writes its summary to.
const ManifestName = "manifest.json"

// SweepOpts contains configuration for a sample sweep.
type SweepOpts struct {
	Format     formatter.Format // Output format (default: text)
	OutputDir  string           // Base output directory (default: samples_{epoch})
	Limit      int              // Songs per genre, passed through to the recommender
	NumWorkers int              // Concurrent writers (default: 4, max: 8)
	RateLimit  float64          // Sample requests per second (default: 2)
}

// GenreResult is the outcome for one genre of a sweep.
type GenreResult struct {
	Genre     string `json:"genre"`
	Success   bool   `json:"success"`
	Songs     int    `json:"songs"`
	File      string `json:"file,omitempty"`
	ErrorText string `json:"error,omitempty"`
	Error     error  `json:"-"`

	index int
}

// SweepResult summarizes a sweep. Results are in input genre order.
type SweepResult struct {
	TotalGenres     int           `json:"total_genres"`
	Successful      int           `json:"successful"`
	Failed          int           `json:"failed"`
	OutputDirectory string        `json:"output_directory"`
	ManifestPath    string        `json:"-"`
	Results         []GenreResult `json:"results"`
}

// sweepJob carries either a fetched batch or the error that prevented fetching it. Only workers
// write results, so the results channel closes once every worker has drained jobs.
type sweepJob struct {
	index int
	genre string
	stem  string
	batch models.Batch
	err   error
}

// Sweep fetches a sample batch for each genre and writes one file per genre into opts.OutputDir.
//
// Duplicate genres are swept once. Requests are sequential and rate limited; rendering and
// writing run on a worker pool. Failed genres are recorded, not returned as errors.
func (e *SweepEngine) Sweep(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	genres []string,
	opts SweepOpts,
) (*SweepResult, error) {
	genres = dedupe(genres)
	if err := e.validate(genres); err != nil {
		return nil, err
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatText
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("samples_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &SweepResult{
		TotalGenres:     len(genres),
		OutputDirectory: opts.OutputDir,
		Results:         make([]GenreResult, 0, len(genres)),
	}

	names := stems(genres)
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan sweepJob, len(genres))
	results := make(chan GenreResult, len(genres))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, genre := range genres {
			if err := limiter.Wait(ctx); err != nil {
				for j := i; j < len(genres); j++ {
					jobs <- sweepJob{index: j, genre: genres[j], err: err}
				}
				return
			}
			e.sendProgress(prog, fetchingSamplesUpdate(i+1, len(genres), genre))

			songs, err := e.client.Samples(ctx, []string{genre}, opts.Limit)
			if err != nil {
				e.logger.Warn("sample request failed", "genre", genre, "error", err)
				jobs <- sweepJob{index: i, genre: genre, err: fmt.Errorf("failed to fetch samples: %w", err)}
				continue
			}

			batch := models.Batch{Kind: models.BatchSamples, Songs: songs}
			if batch.Songs == nil {
				batch.Songs = []models.Song{}
			}
			metrics.RecordBatch(string(batch.Kind), batch.Len())
			e.cacheSongs(batch)

			jobs <- sweepJob{index: i, genre: genre, stem: names[i], batch: batch}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Successful++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(genres), res))
		} else {
			result.Failed++
			e.sendProgress(prog, exportFailedUpdate(completed, len(genres), res))
		}
	}

	slices.SortFunc(result.Results, func(a, b GenreResult) int { return a.index - b.index })

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("sweep interrupted after %d of %d genres: %w", completed, len(genres), err)
	}

	manifestPath := filepath.Join(opts.OutputDir, ManifestName)
	e.sendProgress(prog, manifestUpdate(manifestPath))
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("sweep completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker renders and writes batches from the jobs channel. Every drained job yields exactly
// one result; after cancellation jobs are reported as failed instead of written.
func (e *SweepEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan sweepJob,
	results chan<- GenreResult,
	opts SweepOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if job.err == nil {
			job.err = ctx.Err()
		}
		if job.err != nil {
			results <- GenreResult{
				Genre:     job.genre,
				Error:     job.err,
				ErrorText: job.err.Error(),
				index:     job.index,
			}
			continue
		}
		results <- e.exportBatch(job, opts)
	}
}

func (e *SweepEngine) exportBatch(j sweepJob, opts SweepOpts) GenreResult {
	res := GenreResult{Genre: j.genre, Songs: j.batch.Len(), index: j.index}

	data, err := formatter.Export(j.batch, opts.Format, j.genre)
	if err != nil {
		res.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		res.ErrorText = res.Error.Error()
		return res
	}

	path := filepath.Join(opts.OutputDir, j.stem+opts.Format.Extension())
	if err := os.WriteFile(path, data, 0644); err != nil {
		res.Error = fmt.Errorf("write failed: %w", err)
		res.ErrorText = res.Error.Error()
		return res
	}

	res.File = path
	res.Success = true
	return res
}

// Slug turns a genre name into a file name stem: "Hip Hop/Rap" becomes "hip-hop-rap".
func Slug(genre string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(genre) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "genre"
	}
	return s
}

func dedupe(genres []string) []string {
	seen := make(map[string]bool, len(genres))
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}

// stems assigns each genre a distinct file name stem, suffixing repeats of the same slug.
func stems(genres []string) []string {
	used := make(map[string]int, len(genres))
	out := make([]string, len(genres))
	for i, g := range genres {
		stem := Slug(g)
		used[stem]++
		if n := used[stem]; n > 1 {
			stem = fmt.Sprintf("%s-%d", stem, n)
		}
		out[i] = stem
	}
	return out
}

func writeManifest(result *SweepResult, path string) error {
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
