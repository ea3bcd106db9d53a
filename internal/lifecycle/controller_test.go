package lifecycle

import (
	"context"
	"errors"
	"os"
	"testing"

	"briefdesk/internal/config"
	"briefdesk/internal/db"
	"briefdesk/internal/dispatch"
	"briefdesk/internal/models"
	"briefdesk/internal/testutil"
)

func skipIfNoTestDB(t *testing.T) {
	t.Helper()
	if os.Getenv("TEST_DATABASE_URL") == "" && os.Getenv("RUN_INTEGRATION_TESTS") == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}
}

// fakeDispatcher records dispatch requests and returns a scripted response.
type fakeDispatcher struct {
	ack     *dispatch.Ack
	err     error
	lastReq dispatch.Request
	calls   int
}

func (f *fakeDispatcher) Dispatch(_ context.Context, req dispatch.Request) (*dispatch.Ack, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.ack, nil
}

func (f *fakeDispatcher) Ping(context.Context) error { return nil }

func setupController(t *testing.T, dispatcher dispatch.Dispatcher) (*Controller, *db.DB, func()) {
	t.Helper()
	skipIfNoTestDB(t)

	database, cleanup := testutil.TestDB(t)

	cfg := &config.Config{
		DispatcherURL: "http://worker.test",
		PluginToken:   "test-token",
		CallbackURL:   "https://briefdesk.test/webhook/generation-callback",
	}
	gen, err := config.LoadGenerationConfig("nonexistent.yaml")
	if err != nil {
		cleanup()
		t.Fatalf("LoadGenerationConfig() error = %v", err)
	}

	return New(database, dispatcher, cfg, gen, nil), database, cleanup
}

func TestApprove_QueuesGeneration(t *testing.T) {
	fake := &fakeDispatcher{ack: &dispatch.Ack{Status: "queued", TaskID: "t1"}}
	controller, database, cleanup := setupController(t, fake)
	defer cleanup()

	ctx := context.Background()
	id := testutil.CreateTestBrief(t, database, "garden sheds", models.StatusPending)

	result, err := controller.Approve(ctx, id)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if result.Status != models.StatusGenerating {
		t.Errorf("result status = %q, want %q", result.Status, models.StatusGenerating)
	}

	if fake.calls != 1 {
		t.Fatalf("dispatcher called %d times, want 1", fake.calls)
	}
	if fake.lastReq.BriefID != id {
		t.Errorf("dispatched brief_id = %d, want %d", fake.lastReq.BriefID, id)
	}
	if fake.lastReq.Keyword != "garden sheds" {
		t.Errorf("dispatched keyword = %q", fake.lastReq.Keyword)
	}
	if fake.lastReq.CallbackURL != "https://briefdesk.test/webhook/generation-callback" {
		t.Errorf("dispatched callback_url = %q", fake.lastReq.CallbackURL)
	}

	brief, err := database.GetBriefByID(ctx, id)
	if err != nil {
		t.Fatalf("GetBriefByID() error = %v", err)
	}
	if brief.Status != models.StatusGenerating {
		t.Errorf("stored status = %q, want %q", brief.Status, models.StatusGenerating)
	}
	if brief.TaskID != "t1" {
		t.Errorf("stored task_id = %q, want %q", brief.TaskID, "t1")
	}
}

func TestApprove_DispatchFailureLeavesApproved(t *testing.T) {
	fake := &fakeDispatcher{err: &dispatch.Error{Message: "context deadline exceeded"}}
	controller, database, cleanup := setupController(t, fake)
	defer cleanup()

	ctx := context.Background()
	id := testutil.CreateTestBrief(t, database, "slow worker", models.StatusPending)

	result, err := controller.Approve(ctx, id)
	if err != nil {
		t.Fatalf("Approve() error = %v, approval must survive a failed dispatch", err)
	}
	if result.Status != models.StatusApproved {
		t.Errorf("result status = %q, want %q", result.Status, models.StatusApproved)
	}

	brief, err := database.GetBriefByID(ctx, id)
	if err != nil {
		t.Fatalf("GetBriefByID() error = %v", err)
	}
	if brief.Status != models.StatusApproved {
		t.Errorf("stored status = %q, want approved after dispatch failure", brief.Status)
	}
	if brief.ErrorMessage == "" {
		t.Error("dispatch failure not recorded in error_message")
	}
}

func TestApprove_NotApprovable(t *testing.T) {
	fake := &fakeDispatcher{ack: &dispatch.Ack{Status: "queued", TaskID: "t1"}}
	controller, database, cleanup := setupController(t, fake)
	defer cleanup()

	id := testutil.CreateTestBrief(t, database, "already drafted", models.StatusDraftReady)

	_, err := controller.Approve(context.Background(), id)
	if !errors.Is(err, ErrNotApprovable) {
		t.Errorf("Approve() error = %v, want ErrNotApprovable", err)
	}
	if fake.calls != 0 {
		t.Errorf("dispatcher called %d times for an unapprovable brief", fake.calls)
	}
}

func TestApprove_IncompletePayloadStaysApproved(t *testing.T) {
	fake := &fakeDispatcher{ack: &dispatch.Ack{Status: "queued", TaskID: "t1"}}
	controller, database, cleanup := setupController(t, fake)
	defer cleanup()

	ctx := context.Background()
	brief := &models.Brief{
		Keyword:      "no prompt yet",
		Priority:     3,
		SearchIntent: models.IntentInformational,
	}
	if err := database.CreateBrief(ctx, brief); err != nil {
		t.Fatalf("CreateBrief() error = %v", err)
	}

	result, err := controller.Approve(ctx, brief.ID)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if result.Status != models.StatusApproved {
		t.Errorf("result status = %q, want approved with generation skipped", result.Status)
	}
	if fake.calls != 0 {
		t.Errorf("dispatcher called %d times with an incomplete payload", fake.calls)
	}
}

func TestRequestGeneration_FillsDefaultWordCount(t *testing.T) {
	fake := &fakeDispatcher{ack: &dispatch.Ack{Status: "queued", TaskID: "t2"}}
	controller, database, cleanup := setupController(t, fake)
	defer cleanup()

	ctx := context.Background()
	brief := &models.Brief{
		Keyword:          "default words",
		Status:           models.StatusApproved,
		Priority:         3,
		SearchIntent:     models.IntentInformational,
		GenerationPrompt: "Write about default words",
	}
	if err := database.CreateBrief(ctx, brief); err != nil {
		t.Fatalf("CreateBrief() error = %v", err)
	}

	if _, err := controller.RequestGeneration(ctx, brief.ID); err != nil {
		t.Fatalf("RequestGeneration() error = %v", err)
	}

	if fake.lastReq.TargetWordCount != 1500 {
		t.Errorf("dispatched target_word_count = %d, want default 1500", fake.lastReq.TargetWordCount)
	}

	got, err := database.GetBriefByID(ctx, brief.ID)
	if err != nil {
		t.Fatalf("GetBriefByID() error = %v", err)
	}
	if got.TargetWordCount != 1500 {
		t.Errorf("stored target_word_count = %d, want 1500", got.TargetWordCount)
	}
}

func TestRequestGeneration_RequiresApproved(t *testing.T) {
	fake := &fakeDispatcher{ack: &dispatch.Ack{Status: "queued", TaskID: "t1"}}
	controller, database, cleanup := setupController(t, fake)
	defer cleanup()

	id := testutil.CreateTestBrief(t, database, "still pending", models.StatusPending)

	_, err := controller.RequestGeneration(context.Background(), id)
	if !errors.Is(err, ErrNotApproved) {
		t.Errorf("RequestGeneration() error = %v, want ErrNotApproved", err)
	}
}

func TestSetStatus_Guards(t *testing.T) {
	fake := &fakeDispatcher{ack: &dispatch.Ack{Status: "queued", TaskID: "t1"}}
	controller, database, cleanup := setupController(t, fake)
	defer cleanup()

	ctx := context.Background()

	t.Run("cannot enter generating manually", func(t *testing.T) {
		id := testutil.CreateTestBrief(t, database, "manual generating", models.StatusPending)
		_, err := controller.SetStatus(ctx, id, models.StatusGenerating)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("SetStatus() error = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("cannot leave generating manually", func(t *testing.T) {
		id := testutil.CreateTestBrief(t, database, "worker owned", models.StatusGenerating)
		_, err := controller.SetStatus(ctx, id, models.StatusSkip)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("SetStatus() error = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		id := testutil.CreateTestBrief(t, database, "bad status", models.StatusPending)
		_, err := controller.SetStatus(ctx, id, models.Status("archived"))
		if !errors.Is(err, ErrUnknownStatus) {
			t.Errorf("SetStatus() error = %v, want ErrUnknownStatus", err)
		}
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		id := testutil.CreateTestBrief(t, database, "noop", models.StatusSkip)
		result, err := controller.SetStatus(ctx, id, models.StatusSkip)
		if err != nil {
			t.Fatalf("SetStatus() error = %v", err)
		}
		if result.Message != "status unchanged" {
			t.Errorf("message = %q", result.Message)
		}
	})

	t.Run("setting approved chains generation", func(t *testing.T) {
		calls := fake.calls
		id := testutil.CreateTestBrief(t, database, "chain via set", models.StatusSkip)
		result, err := controller.SetStatus(ctx, id, models.StatusApproved)
		if err != nil {
			t.Fatalf("SetStatus() error = %v", err)
		}
		if result.Status != models.StatusGenerating {
			t.Errorf("result status = %q, want generating", result.Status)
		}
		if fake.calls != calls+1 {
			t.Errorf("dispatcher calls = %d, want %d", fake.calls, calls+1)
		}
	})
}

func TestHandleCallback_Success(t *testing.T) {
	fake := &fakeDispatcher{ack: &dispatch.Ack{Status: "queued", TaskID: "t1"}}
	controller, database, cleanup := setupController(t, fake)
	defer cleanup()

	ctx := context.Background()
	id := testutil.CreateTestBrief(t, database, "callback success", models.StatusGenerating)

	postID := int64(99)
	result, err := controller.HandleCallback(ctx, models.GenerationCallback{
		BriefID:          id,
		TaskID:           "t1",
		Status:           "success",
		GeneratedPostID:  &postID,
		GeneratedPostURL: "https://example.com/?p=99",
	})
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	if result.Status != models.StatusDraftReady {
		t.Errorf("result status = %q, want %q", result.Status, models.StatusDraftReady)
	}

	brief, err := database.GetBriefByID(ctx, id)
	if err != nil {
		t.Fatalf("GetBriefByID() error = %v", err)
	}
	if brief.Status != models.StatusDraftReady {
		t.Errorf("stored status = %q, want draft_ready", brief.Status)
	}
	if brief.GeneratedPostID == nil || *brief.GeneratedPostID != 99 {
		t.Errorf("generated_post_id = %v, want 99", brief.GeneratedPostID)
	}
	if brief.GeneratedPostURL != "https://example.com/?p=99" {
		t.Errorf("generated_post_url = %q", brief.GeneratedPostURL)
	}
}

func TestHandleCallback_ErrorVerbatim(t *testing.T) {
	fake := &fakeDispatcher{}
	controller, database, cleanup := setupController(t, fake)
	defer cleanup()

	ctx := context.Background()
	id := testutil.CreateTestBrief(t, database, "callback error", models.StatusGenerating)

	result, err := controller.HandleCallback(ctx, models.GenerationCallback{
		BriefID:      id,
		TaskID:       "t1",
		Status:       "error",
		ErrorMessage: "model refused the prompt",
	})
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	if result.Status != models.StatusError {
		t.Errorf("result status = %q, want error", result.Status)
	}

	brief, err := database.GetBriefByID(ctx, id)
	if err != nil {
		t.Fatalf("GetBriefByID() error = %v", err)
	}
	if brief.ErrorMessage != "model refused the prompt" {
		t.Errorf("error_message = %q, want worker message verbatim", brief.ErrorMessage)
	}
}

func TestHandleCallback_SuccessWithoutPostID(t *testing.T) {
	fake := &fakeDispatcher{}
	controller, database, cleanup := setupController(t, fake)
	defer cleanup()

	ctx := context.Background()
	id := testutil.CreateTestBrief(t, database, "empty success", models.StatusGenerating)

	result, err := controller.HandleCallback(ctx, models.GenerationCallback{
		BriefID: id,
		TaskID:  "t1",
		Status:  "success",
	})
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	if result.Status != models.StatusError {
		t.Errorf("result status = %q, want error for success without content", result.Status)
	}

	brief, err := database.GetBriefByID(ctx, id)
	if err != nil {
		t.Fatalf("GetBriefByID() error = %v", err)
	}
	if brief.Status != models.StatusError {
		t.Errorf("stored status = %q, want error", brief.Status)
	}
}

func TestHandleCallback_UnknownBrief(t *testing.T) {
	fake := &fakeDispatcher{}
	controller, _, cleanup := setupController(t, fake)
	defer cleanup()

	_, err := controller.HandleCallback(context.Background(), models.GenerationCallback{
		BriefID: 999999,
		Status:  "success",
	})
	if !errors.Is(err, db.ErrBriefNotFound) {
		t.Errorf("HandleCallback() error = %v, want ErrBriefNotFound", err)
	}
}

func TestBulkApprove(t *testing.T) {
	fake := &fakeDispatcher{ack: &dispatch.Ack{Status: "queued", TaskID: "t-bulk"}}
	controller, database, cleanup := setupController(t, fake)
	defer cleanup()

	ctx := context.Background()
	a := testutil.CreateTestBrief(t, database, "bulk a", models.StatusPending)
	b := testutil.CreateTestBrief(t, database, "bulk b", models.StatusError)
	c := testutil.CreateTestBrief(t, database, "bulk c", models.StatusPublished)

	result := controller.BulkApprove(ctx, []int64{a, b, c})

	if result.Approved != 2 {
		t.Errorf("approved = %d, want 2", result.Approved)
	}
	if result.GenerationTriggered != 2 {
		t.Errorf("generation_triggered = %d, want 2", result.GenerationTriggered)
	}
	if result.Failed != 1 {
		t.Errorf("failed = %d, want 1", result.Failed)
	}
	if len(result.FailedIDs) != 1 || result.FailedIDs[0] != c {
		t.Errorf("failed_ids = %v, want [%d]", result.FailedIDs, c)
	}
}
