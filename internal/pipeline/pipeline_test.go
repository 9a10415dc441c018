package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/docdistill/internal/domain"
	"github.com/phrazzld/docdistill/internal/generation"
	"github.com/phrazzld/docdistill/internal/prompt"
	"github.com/phrazzld/docdistill/internal/store"
)

type stubProvider struct {
	prompts []string
	respond func(call int, prompt string) (string, error)
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(_ context.Context, promptText string, _ generation.GenerateOptions) (string, error) {
	call := len(s.prompts)
	s.prompts = append(s.prompts, promptText)
	return s.respond(call, promptText)
}

func (s *stubProvider) Models(context.Context) ([]string, error) {
	return []string{"stub-1"}, nil
}

type stubBatchProvider struct {
	stubProvider

	submitJob *domain.BatchJob
	polls     []*domain.BatchJob
	pollCall  int
	results   []domain.BatchResult
	submitted []generation.BatchRequest
}

func (s *stubBatchProvider) SubmitBatch(_ context.Context, requests []generation.BatchRequest) (*domain.BatchJob, error) {
	s.submitted = requests
	return s.submitJob, nil
}

func (s *stubBatchProvider) PollBatch(_ context.Context, jobID string) (*domain.BatchJob, error) {
	if s.pollCall < len(s.polls) {
		job := s.polls[s.pollCall]
		s.pollCall++
		return job, nil
	}
	return &domain.BatchJob{ID: jobID, Status: domain.BatchStatusInProgress}, nil
}

func (s *stubBatchProvider) FetchBatchResults(context.Context, string) ([]domain.BatchResult, error) {
	return s.results, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBuilder(t *testing.T) *prompt.Builder {
	t.Helper()
	builder, err := prompt.NewBuilder()
	require.NoError(t, err)
	return builder
}

// replyWith renders a well-formed model reply with n numbered pairs.
func replyWith(n int) string {
	var b strings.Builder
	for k := 1; k <= n; k++ {
		fmt.Fprintf(&b, "Q%d: question %d?\nA%d: answer %d.\n", k, k, k, k)
	}
	return b.String()
}

func entries(ids ...string) []domain.Entry {
	out := make([]domain.Entry, len(ids))
	for i, id := range ids {
		out[i] = domain.Entry{ID: id, Content: "content for " + id}
	}
	return out
}

func TestNewSequentialValidatesDependencies(t *testing.T) {
	dir := t.TempDir()
	records := store.NewRecordStore(filepath.Join(dir, "out.jsonl"))
	marker := store.NewMarker(filepath.Join(dir, ".progress"))
	provider := &stubProvider{}
	cfg := SequentialConfig{PairsPerEntry: 1}

	tests := []struct {
		name    string
		build   func() (*Sequential, error)
		wantErr error
	}{
		{
			name: "nil provider",
			build: func() (*Sequential, error) {
				return NewSequential(nil, testBuilder(t), records, marker, testLogger(), cfg)
			},
			wantErr: ErrNilProvider,
		},
		{
			name: "nil prompt builder",
			build: func() (*Sequential, error) {
				return NewSequential(provider, nil, records, marker, testLogger(), cfg)
			},
			wantErr: ErrNilPromptBuilder,
		},
		{
			name: "nil record store",
			build: func() (*Sequential, error) {
				return NewSequential(provider, testBuilder(t), nil, marker, testLogger(), cfg)
			},
			wantErr: ErrNilRecordStore,
		},
		{
			name: "nil marker in marker mode",
			build: func() (*Sequential, error) {
				return NewSequential(provider, testBuilder(t), records, nil, testLogger(), cfg)
			},
			wantErr: ErrNilMarker,
		},
		{
			name: "nil logger",
			build: func() (*Sequential, error) {
				return NewSequential(provider, testBuilder(t), records, marker, nil, cfg)
			},
			wantErr: ErrNilLogger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSequentialResumesFromMarker(t *testing.T) {
	dir := t.TempDir()
	records := store.NewRecordStore(filepath.Join(dir, "out.jsonl"))
	marker := store.NewMarker(filepath.Join(dir, ".progress"))
	require.NoError(t, marker.Store(1))

	provider := &stubProvider{respond: func(int, string) (string, error) {
		return replyWith(2), nil
	}}

	runner, err := NewSequential(provider, testBuilder(t), records, marker, testLogger(), SequentialConfig{
		PairsPerEntry: 2,
	})
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background(), entries("/docs/a", "/docs/b", "/docs/c")))

	// Entry at index 0 was never dispatched.
	assert.Len(t, provider.prompts, 2)

	counts, err := records.CountBySource()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"/docs/b": 2, "/docs/c": 2}, counts)

	// Completion clears the marker.
	_, exists, err := marker.Load()
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSequentialCountResumeRequestsShortfall(t *testing.T) {
	records := store.NewRecordStore(filepath.Join(t.TempDir(), "out.jsonl"))

	seed := make([]domain.Record, 3)
	for i := range seed {
		seed[i] = domain.Record{Source: "/docs/x", Question: fmt.Sprintf("old q%d?", i), Answer: "old a."}
	}
	require.NoError(t, records.Append(seed))

	provider := &stubProvider{respond: func(int, string) (string, error) {
		return replyWith(10), nil
	}}

	runner, err := NewSequential(provider, testBuilder(t), records, nil, testLogger(), SequentialConfig{
		PairsPerEntry: 10,
		Resume:        ResumeCount,
	})
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background(), entries("/docs/x")))

	require.Len(t, provider.prompts, 1)
	assert.Contains(t, provider.prompts[0], "exactly 7 question")

	// Over-delivery is capped at the shortfall, landing exactly on target.
	counts, err := records.CountBySource()
	require.NoError(t, err)
	assert.Equal(t, 10, counts["/docs/x"])
}

func TestSequentialCountResumeSkipsCompleteEntries(t *testing.T) {
	records := store.NewRecordStore(filepath.Join(t.TempDir(), "out.jsonl"))
	require.NoError(t, records.Append([]domain.Record{
		{Source: "/docs/done", Question: "q1?", Answer: "a."},
		{Source: "/docs/done", Question: "q2?", Answer: "a."},
	}))

	provider := &stubProvider{respond: func(int, string) (string, error) {
		return replyWith(2), nil
	}}

	runner, err := NewSequential(provider, testBuilder(t), records, nil, testLogger(), SequentialConfig{
		PairsPerEntry: 2,
		Resume:        ResumeCount,
	})
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background(), entries("/docs/done", "/docs/todo")))

	require.Len(t, provider.prompts, 1)
	assert.Contains(t, provider.prompts[0], "/docs/todo")
}

func TestSequentialSkipsFailedEntry(t *testing.T) {
	dir := t.TempDir()
	records := store.NewRecordStore(filepath.Join(dir, "out.jsonl"))
	marker := store.NewMarker(filepath.Join(dir, ".progress"))

	provider := &stubProvider{respond: func(call int, _ string) (string, error) {
		if call == 0 {
			return "", fmt.Errorf("%w: upstream 500", generation.ErrProvider)
		}
		return replyWith(2), nil
	}}

	runner, err := NewSequential(provider, testBuilder(t), records, marker, testLogger(), SequentialConfig{
		PairsPerEntry: 2,
	})
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background(), entries("/docs/a", "/docs/b")))

	counts, err := records.CountBySource()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"/docs/b": 2}, counts)
}

func TestSequentialRestartsOnStaleMarker(t *testing.T) {
	dir := t.TempDir()
	records := store.NewRecordStore(filepath.Join(dir, "out.jsonl"))
	marker := store.NewMarker(filepath.Join(dir, ".progress"))
	require.NoError(t, marker.Store(99))

	provider := &stubProvider{respond: func(int, string) (string, error) {
		return replyWith(1), nil
	}}

	runner, err := NewSequential(provider, testBuilder(t), records, marker, testLogger(), SequentialConfig{
		PairsPerEntry: 1,
	})
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background(), entries("/docs/a", "/docs/b")))
	assert.Len(t, provider.prompts, 2)
}

func TestSequentialHonorsCanceledContext(t *testing.T) {
	dir := t.TempDir()
	records := store.NewRecordStore(filepath.Join(dir, "out.jsonl"))
	marker := store.NewMarker(filepath.Join(dir, ".progress"))

	provider := &stubProvider{respond: func(int, string) (string, error) {
		return replyWith(1), nil
	}}

	runner, err := NewSequential(provider, testBuilder(t), records, marker, testLogger(), SequentialConfig{
		PairsPerEntry: 1,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = runner.Run(ctx, entries("/docs/a"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, provider.prompts)
}

func TestCorrelationIDSanitizesAndSuffixes(t *testing.T) {
	assert.Equal(t, "_docs_getting-started-0", CorrelationID("/docs/getting-started", 0))
	assert.Equal(t, "api_v2_auth-12", CorrelationID("api/v2/auth", 12))
}

func TestCorrelationIDCapsLength(t *testing.T) {
	long := "/docs/" + strings.Repeat("section/", 20) + "leaf"
	id := CorrelationID(long, 42)

	assert.LessOrEqual(t, len(id), 64)
	assert.True(t, strings.HasSuffix(id, "-42"))
	assert.True(t, strings.HasPrefix(id, "_docs_"))
	assert.Contains(t, id, "leaf")

	for _, c := range id {
		valid := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') || c == '_' || c == '-'
		assert.True(t, valid, "character %q", c)
	}
}

func TestBatchSubmitsOnlyShortfall(t *testing.T) {
	records := store.NewRecordStore(filepath.Join(t.TempDir(), "out.jsonl"))
	require.NoError(t, records.Append([]domain.Record{
		{Source: "/docs/b", Question: "q1?", Answer: "a."},
		{Source: "/docs/b", Question: "q2?", Answer: "a."},
	}))

	wantID := CorrelationID("/docs/a", 0)
	provider := &stubBatchProvider{
		submitJob: &domain.BatchJob{ID: "job-1", Status: domain.BatchStatusInProgress},
		polls: []*domain.BatchJob{
			{ID: "job-1", Status: domain.BatchStatusEnded, ResultsURL: "https://example.com/results"},
		},
		results: []domain.BatchResult{
			{CustomID: wantID, Outcome: domain.BatchOutcomeSucceeded, Text: replyWith(2)},
		},
	}

	runner, err := NewBatch(provider, testBuilder(t), records, testLogger(), BatchConfig{
		PairsPerEntry: 2,
		PollInterval:  time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background(), entries("/docs/a", "/docs/b")))

	require.Len(t, provider.submitted, 1)
	assert.Equal(t, wantID, provider.submitted[0].CustomID)

	counts, err := records.CountBySource()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"/docs/a": 2, "/docs/b": 2}, counts)
}

func TestBatchPersistsOnlySucceededOutcomes(t *testing.T) {
	records := store.NewRecordStore(filepath.Join(t.TempDir(), "out.jsonl"))

	provider := &stubBatchProvider{
		submitJob: &domain.BatchJob{ID: "job-2", Status: domain.BatchStatusInProgress},
		polls: []*domain.BatchJob{
			{ID: "job-2", Status: domain.BatchStatusEnded, ResultsURL: "https://example.com/results"},
		},
		results: []domain.BatchResult{
			{CustomID: CorrelationID("/docs/a", 0), Outcome: domain.BatchOutcomeSucceeded, Text: replyWith(2)},
			{CustomID: CorrelationID("/docs/b", 1), Outcome: domain.BatchOutcomeErrored, ErrorInfo: "overloaded"},
			{CustomID: CorrelationID("/docs/c", 2), Outcome: domain.BatchOutcomeExpired},
		},
	}

	runner, err := NewBatch(provider, testBuilder(t), records, testLogger(), BatchConfig{
		PairsPerEntry: 2,
		PollInterval:  time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background(), entries("/docs/a", "/docs/b", "/docs/c")))

	counts, err := records.CountBySource()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"/docs/a": 2}, counts)
}

func TestBatchNothingToSubmit(t *testing.T) {
	records := store.NewRecordStore(filepath.Join(t.TempDir(), "out.jsonl"))
	require.NoError(t, records.Append([]domain.Record{
		{Source: "/docs/a", Question: "q?", Answer: "a."},
	}))

	provider := &stubBatchProvider{}

	runner, err := NewBatch(provider, testBuilder(t), records, testLogger(), BatchConfig{
		PairsPerEntry: 1,
		PollInterval:  time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background(), entries("/docs/a")))
	assert.Nil(t, provider.submitted)
}

func TestBatchRejectsProviderWithoutBatchAPI(t *testing.T) {
	records := store.NewRecordStore(filepath.Join(t.TempDir(), "out.jsonl"))

	_, err := NewBatch(&stubProvider{}, testBuilder(t), records, testLogger(), BatchConfig{
		PairsPerEntry: 1,
	})
	assert.ErrorIs(t, err, generation.ErrBatchUnsupported)
}

func TestBatchPollTimeout(t *testing.T) {
	records := store.NewRecordStore(filepath.Join(t.TempDir(), "out.jsonl"))

	// Polls never report an ended job.
	provider := &stubBatchProvider{
		submitJob: &domain.BatchJob{ID: "job-3", Status: domain.BatchStatusInProgress},
	}

	runner, err := NewBatch(provider, testBuilder(t), records, testLogger(), BatchConfig{
		PairsPerEntry: 1,
		PollInterval:  50 * time.Millisecond,
		MaxPollWait:   5 * time.Millisecond,
	})
	require.NoError(t, err)

	err = runner.Run(context.Background(), entries("/docs/a"))
	assert.ErrorIs(t, err, ErrPollTimeout)
}
