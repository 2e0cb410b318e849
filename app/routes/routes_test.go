package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"collab-go/app/config"
	"collab-go/app/controllers"
	"collab-go/app/models"
	"collab-go/app/services"
	"collab-go/app/store/sqlitestore"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoLLM struct{}

func (echoLLM) Complete(_ context.Context, prompt string) (string, error) {
	return strings.ToUpper(prompt), nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := sqlitestore.New(context.Background(), filepath.Join(t.TempDir(), "collab.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })

	users := services.NewUserService(s, config.AuthConfig{Secret: "k", Issuer: "collab-test", TokenTTL: time.Hour})
	router := mux.NewRouter()
	RegisterRoutes(router, Controllers{
		Users:     controllers.NewUserController(users),
		Projects:  controllers.NewProjectController(services.NewProjectService(s, s)),
		Messages:  controllers.NewMessageController(services.NewMessageService(s, s)),
		Tasks:     controllers.NewTaskController(services.NewTaskService(s)),
		Assistant: controllers.NewAssistantController(services.NewAssistantService(echoLLM{}, nil, 0)),
	}, users)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rdr)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// signup registers username and logs in through the OAuth2 password form.
func signup(t *testing.T, base, username string) *client {
	t.Helper()
	c := &client{t: t, base: base}
	status := c.do(http.MethodPost, "/register", models.RegisterRequest{
		Name: username, Email: username + "@example.com", Username: username, Password: "password123",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	resp, err := http.PostForm(base+"/login", url.Values{
		"username": {username + "@example.com"},
		"password": {"password123"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tok models.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	assert.Equal(t, "bearer", tok.TokenType)
	c.token = tok.AccessToken
	return c
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL}
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/healthz", nil, nil))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL}
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/tasks", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/me", nil, nil))
	c.token = "garbage"
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/projects", nil, nil))
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)
	alice := signup(t, srv.URL, "alice")

	var me models.User
	require.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/me", nil, &me))
	assert.Equal(t, "alice", me.Username)

	anon := &client{t: t, base: srv.URL}
	assert.Equal(t, http.StatusConflict, anon.do(http.MethodPost, "/register", models.RegisterRequest{
		Name: "A", Email: "alice@example.com", Username: "alice9", Password: "password123",
	}, nil))
	assert.Equal(t, http.StatusBadRequest, anon.do(http.MethodPost, "/register", map[string]string{"name": "x"}, nil))
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodPost, "/login", models.LoginRequest{
		Email: "alice@example.com", Password: "nope",
	}, nil))

	var tok models.TokenResponse
	require.Equal(t, http.StatusOK, anon.do(http.MethodPost, "/login", models.LoginRequest{
		Email: "alice@example.com", Password: "password123",
	}, &tok))
	assert.NotEmpty(t, tok.AccessToken)

	var users []models.User
	require.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/users", nil, &users))
	assert.Len(t, users, 1)
}

func TestTaskThreadFlow(t *testing.T) {
	srv := newTestServer(t)
	carol := signup(t, srv.URL, "carol")
	dave := signup(t, srv.URL, "dave")
	eve := signup(t, srv.URL, "eve")

	var task models.Task
	require.Equal(t, http.StatusCreated, carol.do(http.MethodPost, "/tasks", models.CreateTaskRequest{Title: "Plan"}, &task))
	assert.Equal(t, "pending", task.Status)

	root := "m1"
	update := models.UpdateTaskRequest{
		Title:  "Plan",
		Status: "doing",
		Messages: []models.TaskMessage{{
			ID: "m1", Sender: "carol", Text: "kickoff", Timestamp: "2025-03-01T10:00:00Z",
			Replies: []models.TaskMessage{{
				ID: "m2", Sender: "carol", Text: "hello @dave and @frank, cc @dave", Timestamp: "2025-03-01T10:05:00Z",
				ParentID: &root, Replies: []models.TaskMessage{},
			}},
		}},
	}
	var updated models.Task
	require.Equal(t, http.StatusOK, carol.do(http.MethodPut, "/tasks/"+task.ID, update, &updated))
	assert.Equal(t, []string{"dave", "frank"}, updated.MentionedUsers)
	assert.Equal(t, update.Messages, updated.Messages)

	var daveTasks []models.Task
	require.Equal(t, http.StatusOK, dave.do(http.MethodGet, "/tasks", nil, &daveTasks))
	require.Len(t, daveTasks, 1)

	assert.Equal(t, http.StatusNotFound, eve.do(http.MethodPut, "/tasks/"+task.ID, update, nil))
	assert.Equal(t, http.StatusNotFound, eve.do(http.MethodGet, "/tasks/"+task.ID, nil, nil))

	bad := update
	bad.Messages = []models.TaskMessage{{ID: "x", Sender: "carol", Timestamp: "soon"}}
	assert.Equal(t, http.StatusBadRequest, carol.do(http.MethodPut, "/tasks/"+task.ID, bad, nil))

	assert.Equal(t, http.StatusNotFound, dave.do(http.MethodDelete, "/tasks/"+task.ID, nil, nil))
	assert.Equal(t, http.StatusNoContent, carol.do(http.MethodDelete, "/tasks/"+task.ID, nil, nil))
}

func TestProjectAndMessageFlow(t *testing.T) {
	srv := newTestServer(t)
	alice := signup(t, srv.URL, "alice")
	bob := signup(t, srv.URL, "bob")

	var p models.Project
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/projects", models.CreateProjectRequest{Title: "Launch"}, &p))
	assert.Equal(t, http.StatusNotFound, bob.do(http.MethodGet, "/projects/"+p.ID, nil, nil))
	assert.Equal(t, http.StatusForbidden, bob.do(http.MethodPost, "/projects/"+p.ID+"/members", models.AddMemberRequest{Email: "bob@example.com"}, nil))
	assert.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/projects/"+p.ID+"/members", models.AddMemberRequest{Email: "bob@example.com"}, nil))

	var added struct {
		NoteID string `json:"note_id"`
	}
	require.Equal(t, http.StatusCreated, bob.do(http.MethodPost, "/projects/"+p.ID+"/notes", models.NoteRequest{Title: "Agenda"}, &added))
	assert.Equal(t, http.StatusOK, alice.do(http.MethodPut, "/projects/"+p.ID+"/notes/"+added.NoteID, models.NoteRequest{Title: "Agenda v2"}, nil))
	assert.Equal(t, http.StatusOK, alice.do(http.MethodDelete, "/projects/"+p.ID+"/notes/"+added.NoteID, nil, nil))
	assert.Equal(t, http.StatusNotFound, alice.do(http.MethodDelete, "/projects/"+p.ID+"/notes/"+added.NoteID, nil, nil))

	var me models.User
	require.Equal(t, http.StatusOK, bob.do(http.MethodGet, "/me", nil, &me))
	var sent models.DirectMessage
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/messages", models.SendMessageRequest{ReceiverID: me.ID, Content: "hi"}, &sent))
	assert.Equal(t, "alice", sent.SenderName)

	var convs []models.Conversation
	require.Equal(t, http.StatusOK, bob.do(http.MethodGet, "/messages/conversations", nil, &convs))
	require.Len(t, convs, 1)
	assert.Equal(t, "alice", convs[0].Name)

	var thread []models.DirectMessage
	require.Equal(t, http.StatusOK, bob.do(http.MethodGet, "/messages/"+convs[0].ID, nil, &thread))
	require.Len(t, thread, 1)
	assert.Equal(t, "hi", thread[0].Content)
}

func TestAssistant(t *testing.T) {
	srv := newTestServer(t)
	anon := &client{t: t, base: srv.URL}

	var resp models.LLMResponse
	require.Equal(t, http.StatusOK, anon.do(http.MethodPost, "/llms", models.LLMRequest{
		Messages: []models.LLMMessage{{Role: "user", Message: "hi"}, {Role: "assistant", Message: "hello"}, {Role: "user", Message: "ping"}},
	}, &resp))
	assert.Equal(t, models.LLMResponse{Role: "assistant", Message: "Answer: PING"}, resp)

	assert.Equal(t, http.StatusBadRequest, anon.do(http.MethodPost, "/llms", models.LLMRequest{}, nil))
}
