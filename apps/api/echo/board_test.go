package echoapi_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fypcompass/compass/core/chatbot"
	"github.com/fypcompass/compass/core/discussion"
	"github.com/fypcompass/compass/core/progress"
	"github.com/fypcompass/compass/core/project"
	"github.com/fypcompass/compass/core/user"
	"github.com/fypcompass/compass/testutil"
)

func Test_discussionApi(t *testing.T) {
	env, server := setup(t)
	f := newAdvisorFixtures(t, env)
	path := "/api/discussions/" + f.mine.ID

	post := func(usr user.User, text string) (int, string, discussion.View) {
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, env.Conf, usr), marchallObj(t, discussion.NewMessage{Text: text}))
		server.ServeHTTP(rec, req)
		var v discussion.View
		if rec.Code == http.StatusCreated {
			unmarshal(t, rec, &v)
		}
		return rec.Code, rec.Body.String(), v
	}

	code, body, first := post(f.stu1, "  Is the proposal due Friday?  ")
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "Is the proposal due Friday?", first.Text)
	assert.Equal(t, user.Summary{ID: f.stu1.ID, Name: f.stu1.Name, Role: user.RoleStudent}, first.Sender)

	code, body, second := post(f.adv, "Yes.")
	require.Equal(t, http.StatusCreated, code, body)

	code, body, third := post(f.admin, "Admins can chime in.")
	require.Equal(t, http.StatusCreated, code, body)

	tests := []httpTest{
		{name: "auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "blank message", method: http.MethodPost, path: path, token: getToken(t, env.Conf, f.adv),
			body: []byte(`{"message":"   "}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "message cannot be empty"}),
		},
		{
			name: "not a member: read", path: path, token: getToken(t, env.Conf, f.stu2),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "not a member: post", method: http.MethodPost, path: path, token: getToken(t, env.Conf, f.adv2),
			body: []byte(`{"message":"hi"}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "unknown project", path: "/api/discussions/lol", token: getToken(t, env.Conf, f.adv),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "project not found"}),
		},
		{
			name: "oldest first", path: path, token: getToken(t, env.Conf, f.stu1),
			wantData: marchallList(t, first, second, third),
		},
	}
	runHTTPTests(t, server, tests)
}

func Test_progressApi(t *testing.T) {
	env, server := setup(t)
	f := newAdvisorFixtures(t, env)

	_, err := env.ProjectSvc.AddStudent(
		context.Background(), f.adv, project.AddStudent{ProjectID: f.mine.ID, StudentID: f.stu2.ID},
	)
	require.NoError(t, err)
	t1 := testutil.CreateTask(t, env.TaskRepo, f.mine.ID, "Proposal", f.adv.ID)
	t2 := testutil.CreateTask(t, env.TaskRepo, f.mine.ID, "Design", f.adv.ID)
	testutil.CreateTask(t, env.TaskRepo, f.mine.ID, "Report", f.adv.ID)
	testutil.CreateSubmission(t, env.TaskRepo, t1.ID, f.stu1.ID, testutil.Float(10))
	testutil.CreateSubmission(t, env.TaskRepo, t1.ID, f.stu2.ID, testutil.Float(8))
	testutil.CreateSubmission(t, env.TaskRepo, t2.ID, f.stu1.ID, testutil.Float(7))
	testutil.CreateSubmission(t, env.TaskRepo, t2.ID, f.stu2.ID, nil)
	_, err = env.TaskSvc.Complete(context.Background(), f.adv, t1.ID)
	require.NoError(t, err)

	token := getToken(t, env.Conf, f.stu1)
	tests := []httpTest{
		{
			name: "project", path: "/api/progress/project/" + f.mine.ID, token: token,
			wantData: marchallObj(t, progress.ProjectReport{
				ProjectID: f.mine.ID, TotalTasks: 3, CompletedTasks: 1, CompletionPercentage: 33, Progress: "33%",
			}),
		},
		{
			name: "project: empty", path: "/api/progress/project/" + f.theirs.ID, token: getToken(t, env.Conf, f.adv2),
			wantData: marchallObj(t, progress.ProjectReport{ProjectID: f.theirs.ID, Progress: "0%"}),
		},
		{
			name: "project: not a member", path: "/api/progress/project/" + f.theirs.ID, token: token,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "task: all evaluated", path: "/api/progress/task/" + t1.ID, token: getToken(t, env.Conf, f.adv),
			wantData: marchallObj(t, progress.TaskReport{
				TaskID: t1.ID, TotalSubmissions: 2, EvaluatedSubmissions: 2, CompletionPercentage: 100, Progress: "100%",
			}),
		},
		{
			name: "task: half evaluated", path: "/api/progress/task/" + t2.ID, token: getToken(t, env.Conf, f.admin),
			wantData: marchallObj(t, progress.TaskReport{
				TaskID: t2.ID, TotalSubmissions: 2, EvaluatedSubmissions: 1, CompletionPercentage: 50, Progress: "50%",
			}),
		},
		{
			name: "task: unknown", path: "/api/progress/task/lol", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "task not found"}),
		},
	}
	runHTTPTests(t, server, tests)
}

func Test_chatbotApi(t *testing.T) {
	_, server := setup(t)

	ask := func(body string) (int, string, chatbot.Answer) {
		req, rec := newRequest(http.MethodPost, "/api/chatbot/ask", []byte(body))
		server.ServeHTTP(rec, req)
		var a chatbot.Answer
		if rec.Code == http.StatusOK {
			unmarshal(t, rec, &a)
		}
		return rec.Code, rec.Body.String(), a
	}

	tests := []httpTest{
		{
			name: "empty query", method: http.MethodPost, path: "/api/chatbot/ask", body: []byte(`{"query":"  "}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "query is required"}),
		},
		{
			name: "no body", method: http.MethodPost, path: "/api/chatbot/ask", body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "query is required"}),
		},
	}
	runHTTPTests(t, server, tests)

	t.Run("faq", func(t *testing.T) {
		code, body, a := ask(`{"query":"How to submit task"}`)
		require.Equal(t, http.StatusOK, code, body)
		assert.Equal(t, a.Answer, a.Response)
		assert.Contains(t, strings.ToLower(a.Answer), "submit")
		assert.Nil(t, a.PDF)
	})

	t.Run("question alias", func(t *testing.T) {
		code, body, a := ask(`{"question":"Tell me about Detectra"}`)
		require.Equal(t, http.StatusOK, code, body)
		assert.True(t, strings.HasPrefix(a.Answer, "Project: DETECTRA AI"), a.Answer)
		assert.NotNil(t, a.PDF)
	})

	t.Run("default answer", func(t *testing.T) {
		code, body, a := ask(`{"query":"qwertyuiop"}`)
		require.Equal(t, http.StatusOK, code, body)
		assert.Equal(t, chatbot.DefaultResponse, a.Answer)
		assert.Nil(t, a.PDF)
	})
}
