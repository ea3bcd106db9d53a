package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v3"

	"briefdesk/internal/config"
	"briefdesk/internal/dispatch"
	"briefdesk/internal/lifecycle"
	"briefdesk/internal/models"
	"briefdesk/internal/testutil"
)

func skipIfNoTestDB(t *testing.T) {
	t.Helper()
	if os.Getenv("TEST_DATABASE_URL") == "" && os.Getenv("RUN_INTEGRATION_TESTS") == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(context.Context, dispatch.Request) (*dispatch.Ack, error) {
	return &dispatch.Ack{Status: "queued", TaskID: "t-noop"}, nil
}
func (noopDispatcher) Ping(context.Context) error { return nil }

func setupCallbackApp(t *testing.T) (*fiber.App, int64, func()) {
	t.Helper()
	skipIfNoTestDB(t)

	database, cleanup := testutil.TestDB(t)

	cfg := &config.Config{
		DispatcherURL: "http://worker.test",
		PluginToken:   "cb-token",
		CallbackURL:   "https://briefdesk.test/webhook/generation-callback",
	}
	gen, err := config.LoadGenerationConfig("nonexistent.yaml")
	if err != nil {
		cleanup()
		t.Fatalf("LoadGenerationConfig() error = %v", err)
	}
	controller := lifecycle.New(database, noopDispatcher{}, cfg, gen, nil)

	app := fiber.New()
	handler := NewCallbackHandler(cfg, controller)
	app.Post("/webhook/generation-callback", handler.HandleGenerationCallback)

	briefID := testutil.CreateTestBrief(t, database, "callback target", models.StatusGenerating)

	return app, briefID, cleanup
}

func TestHandleGenerationCallback(t *testing.T) {
	app, briefID, cleanup := setupCallbackApp(t)
	defer cleanup()

	postID := int64(99)

	tests := []struct {
		name       string
		token      string
		body       any
		rawBody    string
		wantStatus int
		wantNew    models.Status
	}{
		{
			name:  "success result",
			token: "cb-token",
			body: models.GenerationCallback{
				BriefID:          briefID,
				TaskID:           "t1",
				Status:           "success",
				GeneratedPostID:  &postID,
				GeneratedPostURL: "https://example.com/?p=99",
			},
			wantStatus: fiber.StatusOK,
			wantNew:    models.StatusDraftReady,
		},
		{
			name:  "error result",
			token: "cb-token",
			body: models.GenerationCallback{
				BriefID:      briefID,
				TaskID:       "t1",
				Status:       "error",
				ErrorMessage: "model refused the prompt",
			},
			wantStatus: fiber.StatusOK,
			wantNew:    models.StatusError,
		},
		{
			name:       "wrong token",
			token:      "wrong",
			body:       models.GenerationCallback{BriefID: briefID, Status: "success"},
			wantStatus: fiber.StatusForbidden,
		},
		{
			name:       "missing token",
			token:      "",
			body:       models.GenerationCallback{BriefID: briefID, Status: "success"},
			wantStatus: fiber.StatusForbidden,
		},
		{
			name:       "malformed body",
			token:      "cb-token",
			rawBody:    "{not json",
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "missing brief_id",
			token:      "cb-token",
			body:       models.GenerationCallback{Status: "success"},
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "unknown brief",
			token:      "cb-token",
			body:       models.GenerationCallback{BriefID: 999999, Status: "success", GeneratedPostID: &postID},
			wantStatus: fiber.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload []byte
			if tt.rawBody != "" {
				payload = []byte(tt.rawBody)
			} else {
				var err error
				payload, err = json.Marshal(tt.body)
				if err != nil {
					t.Fatalf("marshal body: %v", err)
				}
			}

			req := httptest.NewRequest("POST", "/webhook/generation-callback", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			if tt.token != "" {
				req.Header.Set("X-Plugin-Token", tt.token)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			if tt.wantStatus == fiber.StatusOK {
				var ack models.CallbackAck
				if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
					t.Fatalf("decode ack: %v", err)
				}
				if ack.Status != "success" {
					t.Errorf("ack status = %q, want %q", ack.Status, "success")
				}
				if ack.BriefID != briefID {
					t.Errorf("ack brief_id = %d, want %d", ack.BriefID, briefID)
				}
				if ack.NewStatus != tt.wantNew {
					t.Errorf("ack new_status = %q, want %q", ack.NewStatus, tt.wantNew)
				}
			}
		})
	}
}
