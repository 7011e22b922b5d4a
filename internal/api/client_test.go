package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sidequest-dev/sidequest/internal/model"
)

// staticToken is a TokenSource returning a fixed token.
type staticToken string

func (s staticToken) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

func TestSaveProgressSendsBearerToken(t *testing.T) {
	var gotAuth string
	var gotBody progressRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(progressResponse{
			TotalPoints: 100, CurrentStreak: 5, LastClaimedDay: 10,
		})
	}))
	defer srv.Close()

	client := New(srv.URL, staticToken("tok-123"), nil)

	echo, err := client.SaveProgress(context.Background(),
		model.ProgressSnapshot{Points: 100, Streak: 5, LastClaimedDay: 10})
	if err != nil {
		t.Fatalf("SaveProgress failed: %v", err)
	}

	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
	if gotBody.Points != 100 || gotBody.Streak != 5 || gotBody.LastDay != 10 {
		t.Errorf("request body = %+v", gotBody)
	}
	want := model.ProgressSnapshot{Points: 100, Streak: 5, LastClaimedDay: 10}
	if echo != want {
		t.Errorf("echo = %+v, want %+v", echo, want)
	}
}

func TestLoginSkipsAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login carried Authorization header %q", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode(authResponse{Token: "fresh-token"})
	}))
	defer srv.Close()

	client := New(srv.URL, staticToken("stale"), nil)

	token, err := client.Login(context.Background(), "alex", "hunter2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token != "fresh-token" {
		t.Errorf("token = %q, want fresh-token", token)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    Class
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			want: ClassAuth,
		},
		{
			name: "forbidden",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			want: ClassAuth,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			want: ClassHTTP,
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("this is not json"))
			},
			want: ClassMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := New(srv.URL, staticToken(""), nil)
			_, err := client.SaveProgress(context.Background(), model.ProgressSnapshot{})
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := Classify(err); got != tt.want {
				t.Errorf("Classify() = %v, want %v (err: %v)", got, tt.want, err)
			}
		})
	}
}

func TestUnreachableServerClassifiesAsNetwork(t *testing.T) {
	// Reserve a port and close it so the connection is refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := New(srv.URL, staticToken(""), nil)
	_, err := client.SaveProgress(context.Background(), model.ProgressSnapshot{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("err = %v, want ErrUnreachable", err)
	}
	if got := Classify(err); got != ClassNetwork {
		t.Errorf("Classify() = %v, want ClassNetwork", got)
	}
}

func TestTaskHistoryDecodesTimestamps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		json.NewEncoder(w).Encode([]taskHistoryItem{
			{
				Quest: "Stretch for 10 minutes", Points: 10, Status: "COMPLETED",
				Timestamp: "2026-08-30T21:15:00Z",
				GoalInfo:  &model.GoalInfo{GoalID: "g-9", Title: "Mobility"},
			},
			{
				Quest: "Cook a new recipe", Points: 25, Status: "REJECTED",
				Timestamp: "2026-08-29T12:00:00Z",
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, staticToken("tok"), nil)

	entries, err := client.TaskHistory(context.Background())
	if err != nil {
		t.Fatalf("TaskHistory failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	if entries[0].Status != model.StatusCompleted {
		t.Errorf("entries[0].Status = %q", entries[0].Status)
	}
	if entries[0].Date == "" || entries[0].Time == "" {
		t.Errorf("timestamp not split: date=%q time=%q", entries[0].Date, entries[0].Time)
	}
	if entries[0].Goal == nil || entries[0].Goal.GoalID != "g-9" {
		t.Errorf("goal info lost: %+v", entries[0].Goal)
	}
}

func TestIncrementGoalProgressPath(t *testing.T) {
	var gotPath, gotMethod string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Write([]byte(`{"id":"g-1","progress":3}`))
	}))
	defer srv.Close()

	client := New(srv.URL, staticToken("tok"), nil)

	err := client.IncrementGoalProgress(context.Background(), "g-1", 1, "q-7")
	if err != nil {
		t.Fatalf("IncrementGoalProgress failed: %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Errorf("method = %s, want PATCH", gotMethod)
	}
	if gotPath != "/goals/g-1/progress" {
		t.Errorf("path = %s, want /goals/g-1/progress", gotPath)
	}
}

func TestProberUsesExactURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}))
	defer srv.Close()

	prober := NewProber(srv.URL + "/ping")
	if err := prober.Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if gotPath != "/ping" {
		t.Errorf("probed path = %q, want /ping", gotPath)
	}
}

func TestProberServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	prober := NewProber(srv.URL + "/ping")
	err := prober.Health(context.Background())

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Health error = %v, want HTTPError 503", err)
	}
}

func TestSplitTimestamp(t *testing.T) {
	tests := []struct {
		in       string
		wantDate string
		wantTime string
	}{
		{"2026-08-30 21:15", "2026-08-30", "21:15"},
		{"not a timestamp", "not a timestamp", ""},
		{"garbage with spaces", "garbage with spaces", ""},
	}

	for _, tt := range tests {
		date, clock := splitTimestamp(tt.in)
		if date != tt.wantDate {
			t.Errorf("splitTimestamp(%q) date = %q, want %q", tt.in, date, tt.wantDate)
		}
		if clock != tt.wantTime {
			t.Errorf("splitTimestamp(%q) time = %q, want %q", tt.in, clock, tt.wantTime)
		}
	}
}
