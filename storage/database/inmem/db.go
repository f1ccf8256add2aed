package inmemdb

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/discussion"
	"github.com/fypcompass/compass/core/project"
	"github.com/fypcompass/compass/core/task"
	"github.com/fypcompass/compass/core/user"
)

// DB keeps every table in memory behind a single lock, so that deletions can cascade atomically.
type DB struct {
	mutex sync.RWMutex
	seq   int
	rank  map[string]int // insertion order of every row, by ID

	users       map[string]*user.User
	projects    map[string]*project.Project
	tasks       map[string]*task.Task
	submissions map[string]*task.Submission
	messages    map[string]*discussion.Message
}

func Open() *DB {
	return &DB{
		rank:        make(map[string]int),
		users:       make(map[string]*user.User),
		projects:    make(map[string]*project.Project),
		tasks:       make(map[string]*task.Task),
		submissions: make(map[string]*task.Submission),
		messages:    make(map[string]*discussion.Message),
	}
}

// newID must be called with the write lock held.
func (db *DB) newID() string {
	id := uuid.New().String()
	db.seq++
	db.rank[id] = db.seq
	return id
}

// older orders rows by creation time, then insertion order.
func (db *DB) older(idA string, a time.Time, idB string, b time.Time) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return db.rank[idA] < db.rank[idB]
}

func (db *DB) deleteProject(id string) {
	for tid, t := range db.tasks {
		if t.ProjectID == id {
			db.deleteTask(tid)
		}
	}
	for mid, m := range db.messages {
		if m.ProjectID == id {
			db.deleteRow(db.messages, mid)
		}
	}
	delete(db.projects, id)
	delete(db.rank, id)
}

func (db *DB) deleteTask(id string) {
	for sid, s := range db.submissions {
		if s.TaskID == id {
			delete(db.submissions, sid)
			delete(db.rank, sid)
		}
	}
	delete(db.tasks, id)
	delete(db.rank, id)
}

func (db *DB) deleteUser(id string) {
	for _, p := range db.projects {
		p.AdvisorIDs = without(p.AdvisorIDs, id)
		p.StudentIDs = without(p.StudentIDs, id)
	}
	for _, t := range db.tasks {
		if t.CreatedBy == id {
			t.CreatedBy = ""
		}
	}
	for sid, s := range db.submissions {
		if s.StudentID == id {
			delete(db.submissions, sid)
			delete(db.rank, sid)
		}
	}
	for mid, m := range db.messages {
		if m.SenderID == id {
			db.deleteRow(db.messages, mid)
		}
	}
	delete(db.users, id)
	delete(db.rank, id)
}

func (db *DB) deleteRow(table map[string]*discussion.Message, id string) {
	delete(table, id)
	delete(db.rank, id)
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, i := range ids {
		if i != id {
			out = append(out, i)
		}
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func copyStrings(list []string) []string {
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// compareFunc returns -1, 0 or 1 depending on whether a sorts before, with or after b.
type compareFunc func(i, j int) int

// sortBy sorts n rows with the orderings, falling back to tiebreak (which must be a strict order).
func sortBy(n int, swap func(i, j int), ordering []core.DBOrdering, fields map[string]compareFunc, tiebreak func(i, j int) bool) {
	sort.Sort(&sorter{n: n, swap: swap, less: func(i, j int) bool {
		for _, ord := range ordering {
			cmp, ok := fields[ord.Field]
			if !ok {
				continue
			}
			c := cmp(i, j)
			if !ord.Ascending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return tiebreak(i, j)
	}})
}

type sorter struct {
	n    int
	swap func(i, j int)
	less func(i, j int) bool
}

func (s *sorter) Len() int           { return s.n }
func (s *sorter) Swap(i, j int)      { s.swap(i, j) }
func (s *sorter) Less(i, j int) bool { return s.less(i, j) }

func compareStrings(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
