//go:build integration_test

package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	httpAddr = "http://localhost:8080"
	grpcAddr = "localhost:8081"
)

// TestQuiz plays a whole room game against a running server.
func TestQuiz(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	checkHealth(ctx, t)

	var (
		groups    = []string{"TEAM RED", "TEAM BLUE", "TEAM GREEN"}
		questions = []map[string]any{
			{"question": "2+2?", "options": []string{"3", "4"}, "correctAnswer": 1},
			{"question": "Capital of France?", "options": []string{"Paris", "Rome"}, "correctAnswer": "Paris"},
			{"question": "Largest planet?", "options": []string{"Mars", "Jupiter", "Venus"}, "correctAnswer": 1},
		}
	)

	var created struct {
		ID        string `json:"id"`
		HostToken string `json:"hostToken"`
	}
	call(ctx, t, http.MethodPost, "/api/rooms", nil, map[string]any{
		"roomName":     "DEMO " + uuid.NewString(),
		"roomPassword": "1234",
	}, &created)
	room := "/api/rooms/" + created.ID

	participants := make(map[string]string, len(groups))
	for _, g := range groups {
		var joined struct {
			Participant struct {
				ID string `json:"id"`
			} `json:"participant"`
		}
		call(ctx, t, http.MethodPost, room+"/join", nil, map[string]any{"groupName": g}, &joined)
		participants[g] = joined.Participant.ID
	}

	call(ctx, t, http.MethodPost, room+"/start", nil, map[string]any{"questions": questions}, nil)

	host := http.Header{"X-Host-Token": []string{created.HostToken}}

	// For each question, all groups answer concurrently
	for qi := range questions {
		t.Logf("Starting question %d", qi)

		var eg errgroup.Group
		for i, g := range groups {
			eg.Go(func() error {
				var resp struct {
					IsCorrect    bool `json:"isCorrect"`
					CurrentScore int  `json:"currentScore"`
				}
				err := do(ctx, http.MethodPost, room+"/answer", nil, map[string]any{
					"participantId":  participants[g],
					"questionIndex":  qi,
					"selectedAnswer": (qi + i) % 2,
					"timeSpent":      i + 1,
				}, &resp)
				if err != nil {
					return fmt.Errorf("group %q submit answer: %w", g, err)
				}

				t.Logf("Group %q answered: correct=%t, score=%d", g, resp.IsCorrect, resp.CurrentScore)
				return nil
			})
		}
		require.NoError(t, eg.Wait())

		call(ctx, t, http.MethodPost, room+"/next", host, nil, nil)
	}

	var ranking struct {
		Status      string `json:"status"`
		GameResults []struct {
			GroupName string `json:"groupName"`
			Score     int    `json:"score"`
			Position  int    `json:"position"`
		} `json:"gameResults"`
	}
	call(ctx, t, http.MethodGet, room+"/ranking", nil, nil, &ranking)

	require.Equal(t, "finished", ranking.Status)
	require.Len(t, ranking.GameResults, len(groups))
	for _, r := range ranking.GameResults {
		t.Logf("%d. %s: %d", r.Position, r.GroupName, r.Score)
	}

	call(ctx, t, http.MethodDelete, room, host, nil, nil)
}

func checkHealth(ctx context.Context, t *testing.T) {
	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func call(ctx context.Context, t *testing.T, method, path string, header http.Header, body, out any) {
	t.Helper()
	require.NoError(t, do(ctx, method, path, header, body, out))
}

func do(ctx context.Context, method, path string, header http.Header, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, httpAddr+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Reason  string `json:"reason"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s %s: status %d: %s: %s", method, path, resp.StatusCode, e.Reason, e.Message)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
