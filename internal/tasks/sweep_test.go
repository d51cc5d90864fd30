package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/nunvibe/internal/formatter"
	"github.com/desertthunder/nunvibe/internal/models"
	"github.com/desertthunder/nunvibe/internal/shared"
	tu "github.com/desertthunder/nunvibe/internal/testing"
)

func newSampler() *mockSampler {
	return &mockSampler{
		songs: map[string][]models.Song{
			"rock":    tu.Songs("r1", "r2"),
			"jazz":    tu.Songs("j1"),
			"hip hop": tu.Songs("h1", "h2", "h3"),
		},
		errs: map[string]error{},
	}
}

func TestSweep(t *testing.T) {
	tests := []struct {
		name           string
		format         formatter.Format
		genres         []string
		wantSuccess    int
		wantFailed     int
		validateResult func(t *testing.T, result *SweepResult, dir string)
	}{
		{
			name:        "single genre text sweep",
			format:      formatter.FormatText,
			genres:      []string{"rock"},
			wantSuccess: 1,
			validateResult: func(t *testing.T, result *SweepResult, dir string) {
				path := filepath.Join(dir, "rock.txt")
				tu.AssertFileExists(t, path)
				if content := tu.MustReadFile(t, path); !strings.Contains(content, "Samples: 2") {
					t.Errorf("unexpected content:\n%s", content)
				}
			},
		},
		{
			name:        "markdown uses genre as title",
			format:      formatter.FormatMarkdown,
			genres:      []string{"hip hop"},
			wantSuccess: 1,
			validateResult: func(t *testing.T, result *SweepResult, dir string) {
				content := tu.MustReadFile(t, filepath.Join(dir, "hip-hop.md"))
				if !strings.HasPrefix(content, "# hip hop") {
					t.Errorf("expected genre title, got:\n%s", content)
				}
			},
		},
		{
			name:        "multiple genres csv keep input order",
			format:      formatter.FormatCSV,
			genres:      []string{"jazz", "rock", "hip hop"},
			wantSuccess: 3,
			validateResult: func(t *testing.T, result *SweepResult, dir string) {
				want := []string{"jazz", "rock", "hip hop"}
				for i, res := range result.Results {
					if res.Genre != want[i] {
						t.Errorf("result %d: expected %s, got %s", i, want[i], res.Genre)
					}
				}
				if result.Results[2].Songs != 3 {
					t.Errorf("expected 3 songs for hip hop, got %d", result.Results[2].Songs)
				}
				tu.AssertFileExists(t, filepath.Join(dir, "jazz.csv"))
			},
		},
		{
			name:        "duplicate genres swept once",
			format:      formatter.FormatJSON,
			genres:      []string{"rock", "rock", "jazz"},
			wantSuccess: 2,
			validateResult: func(t *testing.T, result *SweepResult, dir string) {
				if result.TotalGenres != 2 {
					t.Errorf("expected 2 genres, got %d", result.TotalGenres)
				}

				var batch models.Batch
				tu.MustReadJSON(t, filepath.Join(dir, "rock.json"), &batch)
				if batch.Kind != models.BatchSamples || batch.Len() != 2 {
					t.Errorf("unexpected batch %+v", batch)
				}
			},
		},
		{
			name:        "empty batch still written",
			format:      formatter.FormatText,
			genres:      []string{"polka"},
			wantSuccess: 1,
			validateResult: func(t *testing.T, result *SweepResult, dir string) {
				if result.Results[0].Songs != 0 {
					t.Errorf("expected 0 songs, got %d", result.Results[0].Songs)
				}
				tu.AssertFileExists(t, filepath.Join(dir, "polka.txt"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			e := NewSweepEngine(newSampler(), nil, nil)

			result, err := e.Sweep(context.Background(), nil, tt.genres, SweepOpts{
				Format:    tt.format,
				OutputDir: dir,
				RateLimit: 1000,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.Successful != tt.wantSuccess {
				t.Errorf("expected %d successful, got %d", tt.wantSuccess, result.Successful)
			}
			if result.Failed != tt.wantFailed {
				t.Errorf("expected %d failed, got %d", tt.wantFailed, result.Failed)
			}
			if result.ManifestPath != filepath.Join(dir, ManifestName) {
				t.Errorf("unexpected manifest path %s", result.ManifestPath)
			}
			tt.validateResult(t, result, dir)
		})
	}
}

func TestSweep_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	sampler := newSampler()
	sampler.errs["jazz"] = shared.ErrServiceUnavailable
	cache := &mockCacher{}
	prog := make(chan ProgressUpdate, 32)

	e := NewSweepEngine(sampler, cache, nil)
	result, err := e.Sweep(context.Background(), prog, []string{"rock", "jazz", "hip hop"}, SweepOpts{
		OutputDir: dir,
		Limit:     7,
		RateLimit: 1000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("Counts", func(t *testing.T) {
		if result.Successful != 2 || result.Failed != 1 {
			t.Errorf("expected 2/1, got %d/%d", result.Successful, result.Failed)
		}
	})

	t.Run("Failed Genre Recorded", func(t *testing.T) {
		res := result.Results[1]
		if res.Success || !errors.Is(res.Error, shared.ErrServiceUnavailable) {
			t.Errorf("unexpected jazz result %+v", res)
		}
		if _, err := os.Stat(filepath.Join(dir, "jazz.txt")); !os.IsNotExist(err) {
			t.Error("no file should be written for a failed genre")
		}
	})

	t.Run("Requests", func(t *testing.T) {
		if strings.Join(sampler.calls, ",") != "rock,jazz,hip hop" {
			t.Errorf("unexpected calls %v", sampler.calls)
		}
		for _, l := range sampler.limits {
			if l != 7 {
				t.Errorf("expected limit 7, got %d", l)
			}
		}
	})

	t.Run("Cache", func(t *testing.T) {
		if cache.batches != 2 || cache.songs != 5 {
			t.Errorf("expected 2 batches with 5 songs cached, got %d/%d", cache.batches, cache.songs)
		}
	})

	t.Run("Manifest", func(t *testing.T) {
		var manifest SweepResult
		tu.MustReadJSON(t, result.ManifestPath, &manifest)
		if manifest.TotalGenres != 3 || manifest.Failed != 1 {
			t.Errorf("unexpected manifest %+v", manifest)
		}
		if !strings.Contains(manifest.Results[1].ErrorText, shared.ErrServiceUnavailable.Error()) {
			t.Errorf("expected error text in manifest, got %q", manifest.Results[1].ErrorText)
		}
	})

	t.Run("Progress", func(t *testing.T) {
		close(prog)
		phases := map[Phase]int{}
		for u := range prog {
			phases[u.Phase]++
		}
		if phases[FetchSamples] != 3 || phases[ExportBatch] != 3 || phases[WriteManifest] != 1 {
			t.Errorf("unexpected progress counts %v", phases)
		}
	})
}

func TestSweep_Errors(t *testing.T) {
	t.Run("no genres", func(t *testing.T) {
		e := NewSweepEngine(newSampler(), nil, nil)

		_, err := e.Sweep(context.Background(), nil, []string{"", ""}, SweepOpts{OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		e := NewSweepEngine(newSampler(), nil, nil)

		result, err := e.Sweep(context.Background(), nil, []string{"rock"}, SweepOpts{
			Format:    formatter.Format("xml"),
			OutputDir: t.TempDir(),
			RateLimit: 1000,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Failed != 1 || !errors.Is(result.Results[0].Error, shared.ErrInvalidArgument) {
			t.Errorf("expected format failure, got %+v", result.Results[0])
		}
	})

	t.Run("output dir is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		e := NewSweepEngine(newSampler(), nil, nil)

		if _, err := e.Sweep(context.Background(), nil, []string{"rock"}, SweepOpts{OutputDir: path}); err == nil {
			t.Error("expected error creating output directory")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		e := NewSweepEngine(newSampler(), nil, nil)

		result, err := e.Sweep(ctx, nil, []string{"rock", "jazz"}, SweepOpts{OutputDir: t.TempDir(), RateLimit: 1000})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if result.Failed != 2 || len(result.Results) != 2 {
			t.Errorf("expected both genres reported as failed, got %+v", result)
		}
	})

	t.Run("cancelled mid sweep", func(t *testing.T) {
		for i := 0; i < 25; i++ {
			dir := t.TempDir()
			ctx, cancel := context.WithCancel(context.Background())
			sampler := newSampler()
			sampler.songs["blues"] = tu.Songs("b1")
			sampler.errs["hip hop"] = shared.ErrServiceUnavailable
			sampler.onCall = func(genre string) {
				if genre == "hip hop" {
					cancel()
				}
			}
			e := NewSweepEngine(sampler, nil, nil)

			genres := []string{"rock", "jazz", "hip hop", "blues"}
			result, err := e.Sweep(ctx, nil, genres, SweepOpts{OutputDir: dir, NumWorkers: 1, RateLimit: 1000})
			cancel()

			if !errors.Is(err, context.Canceled) {
				t.Fatalf("expected context.Canceled, got %v", err)
			}
			if result.Successful+result.Failed != len(genres) || len(result.Results) != len(genres) {
				t.Fatalf("every genre should be reported, got %d ok %d failed of %d", result.Successful, result.Failed, len(genres))
			}
			for j, res := range result.Results {
				if res.Genre != genres[j] {
					t.Errorf("result %d: expected %s, got %s", j, genres[j], res.Genre)
				}
			}
			if !errors.Is(result.Results[2].Error, shared.ErrServiceUnavailable) {
				t.Errorf("expected fetch failure for hip hop, got %v", result.Results[2].Error)
			}
			if last := result.Results[3]; last.Success || !errors.Is(last.Error, context.Canceled) {
				t.Errorf("expected blues to be cancelled, got %+v", last)
			}
			if _, err := os.Stat(filepath.Join(dir, ManifestName)); !os.IsNotExist(err) {
				t.Error("no manifest should be written after cancellation")
			}
			if sampler.calls[len(sampler.calls)-1] != "hip hop" {
				t.Errorf("no request should follow cancellation, got %v", sampler.calls)
			}
		}
	})
}
