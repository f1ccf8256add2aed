package inmemdb_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/discussion"
	"github.com/fypcompass/compass/core/project"
	"github.com/fypcompass/compass/core/task"
	"github.com/fypcompass/compass/core/user"
	inmemdb "github.com/fypcompass/compass/storage/database/inmem"
	"github.com/fypcompass/compass/testutil"
)

type repos struct {
	usr  user.Repository
	proj project.Repository
	task task.Repository
	msg  discussion.Repository
}

func open() repos {
	db := inmemdb.Open()
	return repos{
		usr:  inmemdb.NewUserRepository(db),
		proj: inmemdb.NewProjectRepository(db),
		task: inmemdb.NewTaskRepository(db),
		msg:  inmemdb.NewDiscussionRepository(db),
	}
}

func postMessage(t *testing.T, repo discussion.Repository, projectID, senderID, text string) discussion.Message {
	t.Helper()
	now := time.Now().UTC()
	m, err := repo.CreateMessage(context.Background(), discussion.Message{
		ProjectID: projectID, SenderID: senderID, Text: text, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return m
}

func TestDeleteProject_cascades(t *testing.T) {
	r := open()
	ctx := context.Background()

	adv := testutil.CreateUser(t, r.usr, "Ada", "ada@compass.io", "", user.RoleAdvisor, true)
	stu := testutil.CreateUser(t, r.usr, "Bob", "bob@compass.io", "", user.RoleStudent, true)
	doomed := testutil.CreateProject(t, r.proj, "Doomed", []string{adv.ID}, []string{stu.ID})
	kept := testutil.CreateProject(t, r.proj, "Kept", []string{adv.ID}, []string{stu.ID})

	t1 := testutil.CreateTask(t, r.task, doomed.ID, "T1", adv.ID)
	t2 := testutil.CreateTask(t, r.task, kept.ID, "T2", adv.ID)
	s1 := testutil.CreateSubmission(t, r.task, t1.ID, stu.ID, nil)
	s2 := testutil.CreateSubmission(t, r.task, t2.ID, stu.ID, nil)
	postMessage(t, r.msg, doomed.ID, stu.ID, "bye")
	m2 := postMessage(t, r.msg, kept.ID, stu.ID, "hi")

	require.NoError(t, r.proj.DeleteProject(ctx, doomed.ID))

	_, err := r.proj.GetProject(ctx, doomed.ID)
	assert.Equal(t, project.ErrNotFound, err)
	_, err = r.task.GetTask(ctx, t1.ID)
	assert.Equal(t, task.ErrNotFound, err)
	_, err = r.task.GetSubmission(ctx, task.SubmissionGetFilter{ID: s1.ID})
	assert.Equal(t, task.ErrSubmissionNotFound, err)
	msgs, err := r.msg.QueryMessages(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, err = r.task.GetSubmission(ctx, task.SubmissionGetFilter{ID: s2.ID})
	assert.NoError(t, err)
	msgs, err = r.msg.QueryMessages(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, []discussion.Message{m2}, msgs)

	assert.Equal(t, project.ErrNotFound, r.proj.DeleteProject(ctx, doomed.ID))
}

func TestDeleteUsers_dropsMemberships(t *testing.T) {
	r := open()
	ctx := context.Background()

	adv := testutil.CreateUser(t, r.usr, "Ada", "ada@compass.io", "", user.RoleAdvisor, true)
	stu := testutil.CreateUser(t, r.usr, "Bob", "bob@compass.io", "", user.RoleStudent, true)
	p := testutil.CreateProject(t, r.proj, "Compass", []string{adv.ID}, []string{stu.ID})
	tsk := testutil.CreateTask(t, r.task, p.ID, "T1", adv.ID)
	s := testutil.CreateSubmission(t, r.task, tsk.ID, stu.ID, nil)
	postMessage(t, r.msg, p.ID, stu.ID, "hi")
	m := postMessage(t, r.msg, p.ID, adv.ID, "hello")

	require.NoError(t, r.usr.DeleteUsersByID(ctx, stu.ID))

	p, err := r.proj.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, p.StudentIDs)
	assert.Equal(t, []string{adv.ID}, p.AdvisorIDs)

	_, err = r.task.GetSubmission(ctx, task.SubmissionGetFilter{ID: s.ID})
	assert.Equal(t, task.ErrSubmissionNotFound, err)
	msgs, err := r.msg.QueryMessages(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []discussion.Message{m}, msgs)
}

func TestQueryProjects(t *testing.T) {
	r := open()
	ctx := context.Background()

	adv := testutil.CreateUser(t, r.usr, "Ada", "ada@compass.io", "", user.RoleAdvisor, true)
	stu := testutil.CreateUser(t, r.usr, "Bob", "bob@compass.io", "", user.RoleStudent, true)
	now := time.Now()
	p1 := testutil.CreateProject(t, r.proj, "Beta", []string{adv.ID}, nil, now.Add(-time.Hour))
	p2 := testutil.CreateProject(t, r.proj, "alpha", nil, []string{stu.ID}, now)
	p3 := testutil.CreateProject(t, r.proj, "Gamma", []string{adv.ID}, []string{stu.ID}, now.Add(-2*time.Hour))

	ids := func(projects []project.Project) []string {
		out := make([]string, 0, len(projects))
		for _, p := range projects {
			out = append(out, p.ID)
		}
		return out
	}

	tests := []struct {
		name     string
		filter   *project.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "default: oldest first", want: []string{p3.ID, p1.ID, p2.ID}},
		{name: "by name", ordering: []core.DBOrdering{{Field: "name", Ascending: true}}, want: []string{p2.ID, p1.ID, p3.ID}},
		{name: "advisor", filter: &project.QueryFilter{AdvisorID: adv.ID}, want: []string{p3.ID, p1.ID}},
		{name: "student", filter: &project.QueryFilter{StudentID: stu.ID}, want: []string{p3.ID, p2.ID}},
		{name: "search", filter: &project.QueryFilter{Search: "AMM"}, want: []string{p3.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.proj.QueryProjects(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}
