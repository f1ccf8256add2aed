package echoapi_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/fypcompass/compass/apps/api/echo"
	"github.com/fypcompass/compass/core/task"
	"github.com/fypcompass/compass/core/user"
	"github.com/fypcompass/compass/testutil"
)

func Test_studentApi_access(t *testing.T) {
	env, server := setup(t)
	f := newAdvisorFixtures(t, env)

	tests := []httpTest{
		{name: "auth required", path: "/api/student/projects", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "advisor refused", path: "/api/student/projects", token: getToken(t, env.Conf, f.adv),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "admin refused", path: "/api/student/projects", token: getToken(t, env.Conf, f.admin),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
	}
	runHTTPTests(t, server, tests)
}

func Test_studentApi_projectsAndTasks(t *testing.T) {
	env, server := setup(t)
	f := newAdvisorFixtures(t, env)
	token := getToken(t, env.Conf, f.stu1)

	t1 := testutil.CreateTask(t, env.TaskRepo, f.mine.ID, "Proposal", f.adv.ID)
	t2 := testutil.CreateTask(t, env.TaskRepo, f.mine.ID, "Design", f.adv.ID)
	other := testutil.CreateTask(t, env.TaskRepo, f.theirs.ID, "Other", f.adv2.ID)
	mySub := testutil.CreateSubmission(t, env.TaskRepo, t1.ID, f.stu1.ID, testutil.Float(12))

	tests := []httpTest{
		{
			name: "projects", path: "/api/student/projects", token: token,
			wantData: marchallList(t, projectView(f.mine, []user.User{f.adv}, []user.User{f.stu1})),
		},
		{
			name: "tasks", path: fmt.Sprintf("/api/student/projects/%s/tasks", f.mine.ID), token: token,
			wantData: marchallList(t,
				task.StudentTask{Task: t1, MySubmission: &mySub},
				task.StudentTask{Task: t2},
			),
		},
		{
			name: "tasks: not enrolled", path: fmt.Sprintf("/api/student/projects/%s/tasks", f.theirs.ID), token: token,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "task", path: "/api/student/tasks/" + t1.ID, token: token,
			wantData: marchallObj(t, echoapi.StudentTaskResponse{Task: t1, MySubmission: &mySub}),
		},
		{
			name: "task: not submitted yet", path: "/api/student/tasks/" + t2.ID, token: token,
			wantData: marchallObj(t, echoapi.StudentTaskResponse{Task: t2}),
		},
		{
			name: "task: not enrolled", path: "/api/student/tasks/" + other.ID, token: token,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "task: unknown", path: "/api/student/tasks/lol", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "task not found"}),
		},
	}
	runHTTPTests(t, server, tests)
}

func Test_studentApi_submissions(t *testing.T) {
	env, server := setup(t)
	ctx := context.Background()
	f := newAdvisorFixtures(t, env)
	token := getToken(t, env.Conf, f.stu1)

	tsk := testutil.CreateTask(t, env.TaskRepo, f.mine.ID, "Proposal", f.adv.ID)
	other := testutil.CreateTask(t, env.TaskRepo, f.theirs.ID, "Other", f.adv2.ID)
	theirSub := testutil.CreateSubmission(t, env.TaskRepo, other.ID, f.stu2.ID, nil)

	pdf := func(content string) *formFile {
		return &formFile{field: "file", name: "report.pdf", content: []byte(content)}
	}
	submit := func(taskID string, file *formFile) (int, string, task.Submission) {
		req, rec := newMultipartRequest(t, http.MethodPost, "/api/student/submit-task", token, map[string]string{"task_id": taskID}, file)
		server.ServeHTTP(rec, req)
		var s task.Submission
		if rec.Code < 300 {
			unmarshal(t, rec, &s)
		}
		return rec.Code, rec.Body.String(), s
	}
	errFileRequired := marchallObj(t, map[string]string{"file": "file is required"})

	t.Run("missing file", func(t *testing.T) {
		code, body, _ := submit(tsk.ID, nil)
		assert.Equal(t, http.StatusBadRequest, code)
		ok, err := jsonBytesEqual([]byte(body), errFileRequired)
		require.NoError(t, err)
		assert.True(t, ok, body)
	})

	t.Run("missing task", func(t *testing.T) {
		code, _, _ := submit("", pdf("v1"))
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("not enrolled", func(t *testing.T) {
		code, _, _ := submit(other.ID, pdf("v1"))
		assert.Equal(t, http.StatusForbidden, code)
	})

	var first task.Submission
	t.Run("first submission", func(t *testing.T) {
		code, body, s := submit(tsk.ID, pdf("v1"))
		require.Equal(t, http.StatusCreated, code, body)
		assert.Equal(t, tsk.ID, s.TaskID)
		assert.Equal(t, f.stu1.ID, s.StudentID)
		assert.Equal(t, task.StatusSubmitted, s.Status)
		assert.Nil(t, s.Marks)
		assert.True(t, strings.HasPrefix(s.FileURL, "/uploads/submissions/"), s.FileURL)
		first = s
	})

	_, err := env.TaskSvc.Grade(ctx, f.adv, first.ID, 15)
	require.NoError(t, err)

	t.Run("resubmission", func(t *testing.T) {
		code, body, s := submit(tsk.ID, pdf("v2"))
		require.Equal(t, http.StatusOK, code, body)
		assert.Equal(t, first.ID, s.ID)
		assert.Equal(t, task.StatusSubmitted, s.Status)
		assert.Nil(t, s.Marks, "marks are cleared on resubmission")
		assert.NotEqual(t, first.FileURL, s.FileURL)
	})

	edit := func(id string, file *formFile) (int, string, task.Submission) {
		req, rec := newMultipartRequest(t, http.MethodPatch, "/api/student/submissions/"+id, token, nil, file)
		server.ServeHTTP(rec, req)
		var s task.Submission
		if rec.Code < 300 {
			unmarshal(t, rec, &s)
		}
		return rec.Code, rec.Body.String(), s
	}

	t.Run("edit", func(t *testing.T) {
		code, body, _ := edit(first.ID, nil)
		assert.Equal(t, http.StatusBadRequest, code, body)

		code, body, _ = edit(theirSub.ID, pdf("mine now"))
		assert.Equal(t, http.StatusForbidden, code, body)

		code, body, _ = edit("lol", pdf("v3"))
		assert.Equal(t, http.StatusNotFound, code, body)

		_, err := env.TaskSvc.Grade(ctx, f.adv, first.ID, 9)
		require.NoError(t, err)

		code, body, s := edit(first.ID, pdf("v3"))
		require.Equal(t, http.StatusOK, code, body)
		assert.Equal(t, first.ID, s.ID)
		assert.Equal(t, task.StatusSubmitted, s.Status)
		assert.Nil(t, s.Marks)
	})
}
