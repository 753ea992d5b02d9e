package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/focusplan/internal/ai"
	"github.com/sadopc/focusplan/internal/repository"
	"github.com/sadopc/focusplan/internal/store"
)

type fakeAssistant struct {
	mu        sync.Mutex
	calls     int
	result    *ai.Decomposition
	err       error
	analysis  string
	lastReq   ai.DecompositionRequest
	lastCfg   ai.Config
	lastStats ai.EfficiencyStats
	block     chan struct{} // when set, Decompose waits on it
}

func (f *fakeAssistant) Decompose(ctx context.Context, cfg ai.Config, req ai.DecompositionRequest) (*ai.Decomposition, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	f.lastCfg = cfg
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.result, f.err
}

func (f *fakeAssistant) AnalyzeEfficiency(ctx context.Context, cfg ai.Config, stats ai.EfficiencyStats) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastCfg = cfg
	f.lastStats = stats
	return f.analysis, f.err
}

func (f *fakeAssistant) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestController(t *testing.T, assistant Assistant) (*Controller, *repository.Repository) {
	t.Helper()
	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	repo := repository.New(s)
	return NewController(repo, assistant, log.New(io.Discard)), repo
}

func configure(t *testing.T, repo *repository.Repository) {
	t.Helper()
	require.NoError(t, repo.UpdateAPIConfig(store.DefaultBaseURL, "sk-test", store.DefaultModel, true))
}

func addParent(t *testing.T, repo *repository.Repository) int64 {
	t.Helper()
	id, err := repo.InsertTask(store.Task{Title: "parent", DueDate: time.Now().Add(72 * time.Hour)})
	require.NoError(t, err)
	return id
}

func decompositionRequest() ai.DecompositionRequest {
	return ai.DecompositionRequest{
		MainTask:      "Write thesis chapter",
		DaysAvailable: 3,
		HoursPerDay:   2,
		Priority:      "high",
	}
}

func draftOutline() *ai.Decomposition {
	return &ai.Decomposition{
		SubTasks: []ai.GeneratedSubTask{{
			Date:           "2024-01-01",
			TaskTitle:      "Draft outline",
			Description:    "x",
			EstimatedHours: 2.5,
			Priority:       "high",
		}},
		Summary: "s",
	}
}

// ============================================================
// State
// ============================================================

func TestInitialStateIdle(t *testing.T) {
	c, _ := newTestController(t, &fakeAssistant{})
	assert.Equal(t, State{Kind: Idle}, c.State())
}

func TestAddTaskSuccessState(t *testing.T) {
	c, repo := newTestController(t, &fakeAssistant{})
	states, cancel := c.Subscribe()
	defer cancel()

	id, err := c.AddTask(store.Task{Title: "write"})
	require.NoError(t, err)

	assert.Equal(t, State{Kind: Success, Message: "Task added successfully"}, c.State())
	assert.Equal(t, Success, (<-states).Kind, "subscriber sees the latest state")

	got, err := repo.Task(id)
	require.NoError(t, err)
	assert.Equal(t, "write", got.Title)
}

func TestClearMessage(t *testing.T) {
	c, _ := newTestController(t, &fakeAssistant{})
	_, err := c.AddTask(store.Task{})
	require.Error(t, err)
	assert.Equal(t, Error, c.State().Kind)

	c.ClearMessage()
	assert.Equal(t, State{Kind: Idle}, c.State())
}

func TestLoadingWhileInFlight(t *testing.T) {
	fake := &fakeAssistant{result: draftOutline(), block: make(chan struct{})}
	c, repo := newTestController(t, fake)
	configure(t, repo)
	parent := addParent(t, repo)

	done := make(chan error, 1)
	go func() {
		_, err := c.DecomposeTask(context.Background(), parent, decompositionRequest())
		done <- err
	}()

	require.Eventually(t, func() bool { return fake.callCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, Loading, c.State().Kind)

	close(fake.block)
	require.NoError(t, <-done)
	assert.Equal(t, Success, c.State().Kind)
}

func TestSubscribeCancel(t *testing.T) {
	c, _ := newTestController(t, &fakeAssistant{})
	states, cancel := c.Subscribe()
	cancel()
	cancel()

	_, ok := <-states
	assert.False(t, ok)
	c.ClearMessage() // must not panic on the released channel
}

// ============================================================
// Decomposition
// ============================================================

func TestDecomposeNotConfigured(t *testing.T) {
	tests := map[string]func(*repository.Repository) error{
		"never configured": func(*repository.Repository) error { return nil },
		"flag off": func(r *repository.Repository) error {
			return r.UpdateAPIConfig(store.DefaultBaseURL, "sk-test", store.DefaultModel, false)
		},
		"empty key": func(r *repository.Repository) error {
			return r.UpdateAPIConfig(store.DefaultBaseURL, "", store.DefaultModel, true)
		},
	}
	for name, setup := range tests {
		t.Run(name, func(t *testing.T) {
			fake := &fakeAssistant{result: draftOutline()}
			c, repo := newTestController(t, fake)
			require.NoError(t, setup(repo))
			parent := addParent(t, repo)

			_, err := c.DecomposeTask(context.Background(), parent, decompositionRequest())
			require.ErrorIs(t, err, ai.ErrNotConfigured)
			assert.Equal(t, ConfigurationMissing, Classify(err))
			assert.Equal(t, State{Kind: Error, Message: notConfiguredMessage}, c.State())
			assert.Zero(t, fake.callCount())
		})
	}
}

func TestDecomposePersistsSubtasks(t *testing.T) {
	fake := &fakeAssistant{result: draftOutline()}
	c, repo := newTestController(t, fake)
	configure(t, repo)
	parent := addParent(t, repo)

	ids, err := c.DecomposeTask(context.Background(), parent, decompositionRequest())
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, State{Kind: Success, Message: "Task decomposed successfully"}, c.State())

	assert.Equal(t, "sk-test", fake.lastCfg.APIKey)
	assert.True(t, fake.lastCfg.Configured)
	assert.Equal(t, decompositionRequest(), fake.lastReq)

	subs, err := repo.SubTasks(parent)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	st := subs[0]
	assert.Equal(t, "Draft outline", st.Title)
	assert.Equal(t, "x", st.Description)
	assert.Equal(t, 2.5, st.EstimatedHours)
	assert.False(t, st.Completed)
	assert.True(t, st.ScheduledDate.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)))
	_, err = uuid.Parse(st.GenerationID)
	assert.NoError(t, err, "generation id should be a uuid")
}

func TestDecomposeSharesGenerationID(t *testing.T) {
	result := draftOutline()
	result.SubTasks = append(result.SubTasks, ai.GeneratedSubTask{Date: "2024-01-02", TaskTitle: "Write intro", EstimatedHours: 1, Priority: "medium"})
	c, repo := newTestController(t, &fakeAssistant{result: result})
	configure(t, repo)
	parent := addParent(t, repo)

	_, err := c.DecomposeTask(context.Background(), parent, decompositionRequest())
	require.NoError(t, err)
	_, err = c.DecomposeTask(context.Background(), parent, decompositionRequest())
	require.NoError(t, err)

	subs, err := repo.SubTasks(parent)
	require.NoError(t, err)
	require.Len(t, subs, 4)
	gens := map[string]int{}
	for _, st := range subs {
		gens[st.GenerationID]++
	}
	assert.Len(t, gens, 2, "each run gets its own generation id")
	for _, n := range gens {
		assert.Equal(t, 2, n)
	}
}

func TestDecomposeDateFallback(t *testing.T) {
	result := draftOutline()
	result.SubTasks[0].Date = "not-a-date"
	c, repo := newTestController(t, &fakeAssistant{result: result})
	now := time.Date(2024, 4, 2, 15, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return now }
	configure(t, repo)
	parent := addParent(t, repo)

	_, err := c.DecomposeTask(context.Background(), parent, decompositionRequest())
	require.NoError(t, err)
	assert.Equal(t, Success, c.State().Kind)

	subs, err := repo.SubTasks(parent)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.True(t, subs[0].ScheduledDate.Equal(now), "got %v", subs[0].ScheduledDate)
}

func TestDecomposeFailuresPersistNothing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{"malformed", &ai.MalformedResponseError{Err: errors.New("unexpected token")}, MalformedResponse},
		{"unauthorized", &ai.APIError{StatusCode: 401, Message: "bad key"}, TransportError},
		{"network", &ai.APIError{Message: "connection refused"}, TransportError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, repo := newTestController(t, &fakeAssistant{err: tt.err})
			configure(t, repo)
			parent := addParent(t, repo)

			_, err := c.DecomposeTask(context.Background(), parent, decompositionRequest())
			require.Error(t, err)
			assert.Equal(t, tt.kind, Classify(err))
			assert.Equal(t, State{Kind: Error, Message: tt.err.Error()}, c.State())

			subs, err := repo.SubTasks(parent)
			require.NoError(t, err)
			assert.Empty(t, subs)
		})
	}
}

func TestDecomposeMissingParentIsStoreError(t *testing.T) {
	c, repo := newTestController(t, &fakeAssistant{result: draftOutline()})
	configure(t, repo)

	_, err := c.DecomposeTask(context.Background(), 999, decompositionRequest())
	require.Error(t, err)
	assert.Equal(t, StoreError, Classify(err))
	assert.Equal(t, Error, c.State().Kind)
}

func TestDecomposeAgainstProvider(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
		kind    ErrorKind
		want    int
	}{
		{"valid", http.StatusOK, `{"subtasks":[{"date":"2024-01-01","taskTitle":"Draft outline","description":"x","estimatedHours":2.5,"priority":"high"}],"summary":"s"}`, NoError, 1},
		{"invalid json", http.StatusOK, `not json at all`, MalformedResponse, 0},
		{"unauthorized", http.StatusUnauthorized, "", TransportError, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.status == http.StatusOK {
					fmt.Fprintf(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`, tt.content)
					return
				}
				io.WriteString(w, `{"error":{"message":"Incorrect API key provided"}}`)
			}))
			defer srv.Close()

			c, repo := newTestController(t, ai.NewClient())
			require.NoError(t, repo.UpdateAPIConfig(srv.URL+"/v1/", "sk-test", "gpt-3.5-turbo", true))
			parent := addParent(t, repo)

			_, err := c.DecomposeTask(context.Background(), parent, decompositionRequest())
			assert.Equal(t, tt.kind, Classify(err))
			if tt.kind == TransportError {
				var apiErr *ai.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, 401, apiErr.StatusCode)
			}

			subs, err := repo.SubTasks(parent)
			require.NoError(t, err)
			assert.Len(t, subs, tt.want)
		})
	}
}

// ============================================================
// Planned tasks
// ============================================================

func TestCreatePlannedTaskWithoutDecomposition(t *testing.T) {
	fake := &fakeAssistant{}
	c, repo := newTestController(t, fake)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	id, err := c.CreatePlannedTask(context.Background(), PlanInput{
		Title:         "Learn Go",
		Description:   "tour",
		DaysAvailable: 5,
		HoursPerDay:   1.5,
		Priority:      "high",
	})
	require.NoError(t, err)
	assert.Equal(t, State{Kind: Success, Message: "Task added successfully"}, c.State())
	assert.Zero(t, fake.callCount())

	got, err := repo.Task(id)
	require.NoError(t, err)
	assert.Equal(t, store.PriorityHigh, got.Priority)
	assert.Equal(t, store.StatusPending, got.Status)
	assert.Equal(t, 7.5, got.EstimatedHours, "estimate covers every day")
	assert.True(t, got.StartDate.Equal(now))
	assert.True(t, got.DueDate.Equal(now.AddDate(0, 0, 5)))
	assert.False(t, got.AIGenerated)
}

func TestCreatePlannedTaskPriorityMapping(t *testing.T) {
	c, repo := newTestController(t, &fakeAssistant{})
	for in, want := range map[string]store.Priority{
		"high":   store.PriorityHigh,
		"medium": store.PriorityMedium,
		"low":    store.PriorityLow,
		"":       store.PriorityLow,
	} {
		id, err := c.CreatePlannedTask(context.Background(), PlanInput{Title: "t", DaysAvailable: 1, HoursPerDay: 1, Priority: in})
		require.NoError(t, err)
		got, err := repo.Task(id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Priority, "priority %q", in)
	}
}

func TestCreatePlannedTaskWithDecomposition(t *testing.T) {
	fake := &fakeAssistant{result: draftOutline()}
	c, repo := newTestController(t, fake)
	configure(t, repo)

	id, err := c.CreatePlannedTask(context.Background(), PlanInput{
		Title:         "Write thesis chapter",
		DaysAvailable: 3,
		HoursPerDay:   2,
		Priority:      "high",
		Decompose:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, State{Kind: Success, Message: "Task decomposed successfully"}, c.State())
	assert.Equal(t, decompositionRequest(), fake.lastReq)

	got, err := repo.Task(id)
	require.NoError(t, err)
	assert.True(t, got.AIGenerated)
	subs, err := repo.SubTasks(id)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestCreatePlannedTaskKeepsTaskWhenDecompositionFails(t *testing.T) {
	c, repo := newTestController(t, &fakeAssistant{result: draftOutline()})

	id, err := c.CreatePlannedTask(context.Background(), PlanInput{
		Title: "t", DaysAvailable: 2, HoursPerDay: 1, Priority: "low", Decompose: true,
	})
	require.ErrorIs(t, err, ai.ErrNotConfigured)
	assert.NotZero(t, id)
	assert.Equal(t, Error, c.State().Kind)

	_, err = repo.Task(id)
	assert.NoError(t, err)
}

func TestCreatePlannedTaskInvalidInput(t *testing.T) {
	c, repo := newTestController(t, &fakeAssistant{})
	for name, in := range map[string]PlanInput{
		"no title":     {DaysAvailable: 1, HoursPerDay: 1},
		"zero days":    {Title: "t", HoursPerDay: 1},
		"zero hours":   {Title: "t", DaysAvailable: 1},
		"bad priority": {Title: "t", DaysAvailable: 1, HoursPerDay: 1, Priority: "urgent", Decompose: true},
	} {
		_, err := c.CreatePlannedTask(context.Background(), in)
		assert.Equal(t, InvalidInput, Classify(err), name)
	}
	tasks, err := repo.Tasks()
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestRequestFor(t *testing.T) {
	c, _ := newTestController(t, &fakeAssistant{})
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	req := c.RequestFor(store.Task{
		Title:    "t",
		DueDate:  now.Add(50 * time.Hour),
		Priority: store.PriorityMedium,
	}, 2)
	assert.Equal(t, 3, req.DaysAvailable)
	assert.Equal(t, 2.0, req.HoursPerDay)
	assert.Equal(t, "medium", req.Priority)

	req = c.RequestFor(store.Task{Title: "t", DueDate: now.Add(-time.Hour), EstimatedHours: 4}, 2)
	assert.Equal(t, 1, req.DaysAvailable)
	assert.Equal(t, 4.0, req.HoursPerDay)
}

func TestRequestForSpreadsEstimate(t *testing.T) {
	c, _ := newTestController(t, &fakeAssistant{})
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	tests := []struct {
		name     string
		due      time.Time
		estimate float64
		days     int
		hours    float64
	}{
		{"five days", now.AddDate(0, 0, 5), 20, 5, 4},
		{"partial day rounds up", now.Add(49 * time.Hour), 9, 3, 3},
		{"no estimate uses fallback", now.AddDate(0, 0, 4), 0, 4, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := c.RequestFor(store.Task{Title: "t", DueDate: tt.due, EstimatedHours: tt.estimate}, 2)
			assert.Equal(t, tt.days, req.DaysAvailable)
			assert.InDelta(t, tt.hours, req.HoursPerDay, 1e-9)
		})
	}
}

func TestPlannedTaskRequestMatchesInput(t *testing.T) {
	c, repo := newTestController(t, &fakeAssistant{})
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	id, err := c.CreatePlannedTask(context.Background(), PlanInput{Title: "t", DaysAvailable: 4, HoursPerDay: 2.5})
	require.NoError(t, err)
	got, err := repo.Task(id)
	require.NoError(t, err)

	req := c.RequestFor(*got, 1)
	assert.Equal(t, 4, req.DaysAvailable)
	assert.InDelta(t, 2.5, req.HoursPerDay, 1e-9)
}

func TestPlanDefaults(t *testing.T) {
	c, _ := newTestController(t, &fakeAssistant{})
	days, hours := c.PlanDefaults(10, 5)
	assert.Equal(t, 7, days)
	assert.Equal(t, 2.0, hours)

	require.NoError(t, c.SavePlanDefaults(3, 1.5))
	days, hours = c.PlanDefaults(10, 5)
	assert.Equal(t, 3, days)
	assert.Equal(t, 1.5, hours)

	assert.Error(t, c.SavePlanDefaults(0, 1))
}

// ============================================================
// Task updates
// ============================================================

func TestUpdateTaskProgress(t *testing.T) {
	c, repo := newTestController(t, &fakeAssistant{})
	id := addParent(t, repo)

	require.NoError(t, c.UpdateTaskProgress(id, 50))
	require.NoError(t, c.UpdateTaskProgress(id, 50))
	got, err := repo.Task(id)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Progress)

	err = c.UpdateTaskProgress(id, 150)
	assert.Equal(t, InvalidInput, Classify(err))
	assert.Equal(t, Error, c.State().Kind)
}

func TestUpdateTaskStatus(t *testing.T) {
	c, repo := newTestController(t, &fakeAssistant{})
	id := addParent(t, repo)

	require.NoError(t, c.UpdateTaskStatus(id, store.StatusCompleted))
	require.NoError(t, c.UpdateTaskStatus(id, store.StatusPending))
	got, err := repo.Task(id)
	require.NoError(t, err)
	assert.Equal(t, store.StatusPending, got.Status)

	assert.Equal(t, InvalidInput, Classify(c.UpdateTaskStatus(id, "archived")))
	assert.Equal(t, StoreError, Classify(c.UpdateTaskStatus(999, store.StatusPending)))
}

func TestUpdateAndDeleteTask(t *testing.T) {
	c, repo := newTestController(t, &fakeAssistant{})
	id := addParent(t, repo)

	got, err := repo.Task(id)
	require.NoError(t, err)
	got.Title = "renamed"
	require.NoError(t, c.UpdateTask(*got))
	assert.Equal(t, "Task updated", c.State().Message)

	require.NoError(t, c.DeleteTask(id))
	assert.Equal(t, "Task deleted", c.State().Message)
	_, err = repo.Task(id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSubTaskOperations(t *testing.T) {
	c, repo := newTestController(t, &fakeAssistant{})
	parent := addParent(t, repo)

	id, err := c.AddSubTask(store.SubTask{ParentTaskID: parent, Title: "step"})
	require.NoError(t, err)
	st, err := repo.SubTask(id)
	require.NoError(t, err)
	assert.False(t, st.ScheduledDate.IsZero(), "scheduled date defaults to now")

	require.NoError(t, c.SetSubTaskCompleted(id, true))
	st, err = repo.SubTask(id)
	require.NoError(t, err)
	assert.True(t, st.Completed)
	assert.NotNil(t, st.CompletedAt)

	require.NoError(t, c.SetSubTaskCompleted(id, false))
	st, err = repo.SubTask(id)
	require.NoError(t, err)
	assert.False(t, st.Completed)
	assert.Nil(t, st.CompletedAt)

	_, err = c.AddSubTask(store.SubTask{ParentTaskID: 999, Title: "orphan"})
	assert.Equal(t, StoreError, Classify(err))
}

func TestUpdateAPIConfig(t *testing.T) {
	c, repo := newTestController(t, &fakeAssistant{})

	require.NoError(t, c.UpdateAPIConfig("http://localhost:11434/v1", "key", "llama3"))
	assert.Equal(t, State{Kind: Success, Message: "API configuration updated"}, c.State())

	cfg, err := repo.APIConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Configured)
	assert.Equal(t, "llama3", cfg.Model)

	assert.Equal(t, InvalidInput, Classify(c.UpdateAPIConfig("", "key", "m")))
}

func TestSaveAPIConfig(t *testing.T) {
	c, repo := newTestController(t, &fakeAssistant{})
	cfg := store.DefaultAPIConfig()
	cfg.APIKey = "k"
	cfg.MaxTokens = 100
	cfg.Configured = true
	require.NoError(t, c.SaveAPIConfig(cfg))

	got, err := repo.APIConfig()
	require.NoError(t, err)
	assert.Equal(t, 100, got.MaxTokens)

	cfg.MaxTokens = 0
	assert.Equal(t, InvalidInput, Classify(c.SaveAPIConfig(cfg)))
}

// ============================================================
// Timer
// ============================================================

func TestStopTimerAccruesActualHours(t *testing.T) {
	c, repo := newTestController(t, &fakeAssistant{})
	task := addParent(t, repo)
	_, err := repo.InsertTimeLog(store.TimeLog{TaskID: task, StartTime: time.Now().Add(-2 * time.Hour)})
	require.NoError(t, err)

	l, err := c.StopTimer()
	require.NoError(t, err)
	assert.False(t, l.Running())
	assert.InDelta(t, 2*time.Hour, l.Duration, float64(5*time.Second))

	got, err := repo.Task(task)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got.ActualHours, 0.01)
}

func TestStopTimerNothingRunning(t *testing.T) {
	c, _ := newTestController(t, &fakeAssistant{})
	_, err := c.StopTimer()
	assert.Equal(t, InvalidInput, Classify(err))
}

func TestStartTimerSwitchesTask(t *testing.T) {
	c, repo := newTestController(t, &fakeAssistant{})
	a := addParent(t, repo)
	b := addParent(t, repo)

	first, err := c.StartTimer(a)
	require.NoError(t, err)
	again, err := c.StartTimer(a)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "restarting the same task keeps its timer")

	second, err := c.StartTimer(b)
	require.NoError(t, err)
	assert.Equal(t, b, second.TaskID)

	stopped, err := repo.TimeLog(first.ID)
	require.NoError(t, err)
	assert.False(t, stopped.Running())

	running, err := repo.RunningTimeLog()
	require.NoError(t, err)
	assert.Equal(t, second.ID, running.ID)
}

// ============================================================
// Efficiency analysis
// ============================================================

func TestAnalyzeEfficiency(t *testing.T) {
	fake := &fakeAssistant{analysis: "Estimate more generously."}
	c, repo := newTestController(t, fake)
	configure(t, repo)
	id := addParent(t, repo)
	require.NoError(t, repo.UpdateTaskStatus(id, store.StatusCompleted))
	addParent(t, repo)

	got, err := c.AnalyzeEfficiency(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Estimate more generously.", got)
	assert.Equal(t, 2, fake.lastStats.TotalTasks)
	assert.Equal(t, 1, fake.lastStats.CompletedTasks)
	assert.InDelta(t, 100, fake.lastStats.OnTimeCompletionRate, 1e-9)
}

func TestAnalyzeEfficiencyNotConfigured(t *testing.T) {
	fake := &fakeAssistant{}
	c, _ := newTestController(t, fake)

	_, err := c.AnalyzeEfficiency(context.Background())
	assert.Equal(t, ConfigurationMissing, Classify(err))
	assert.Zero(t, fake.callCount())
}

// ============================================================
// Classify
// ============================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, NoError},
		{ai.ErrNotConfigured, ConfigurationMissing},
		{fmt.Errorf("wrapped: %w", ai.ErrNotConfigured), ConfigurationMissing},
		{fmt.Errorf("%w: x", ErrInvalidInput), InvalidInput},
		{fmt.Errorf("%w: x", ai.ErrInvalidRequest), InvalidInput},
		{&ai.APIError{StatusCode: 500}, TransportError},
		{fmt.Errorf("call: %w", &ai.APIError{StatusCode: 401}), TransportError},
		{&ai.MalformedResponseError{Err: errors.New("eof")}, MalformedResponse},
		{fmt.Errorf("get task 1: %w", store.ErrNotFound), StoreError},
		{errors.New("disk I/O error"), StoreError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), "%v", tt.err)
	}
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "transport error", TransportError.String())
}
