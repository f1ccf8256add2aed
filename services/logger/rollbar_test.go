package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/user"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), core.NewTestConfig(t.TempDir()))

	usr := user.User{ID: "42", Name: "Ada", Email: "ada@example.com", Role: user.RoleAdvisor}
	logger.Error("boom", errors.New("bad things"), usr)

	out := buf.String()
	assert.Contains(t, out, "boom\n")
	assert.Contains(t, out, "bad things")
	assert.Contains(t, out, "user: 42 <ada@example.com> (advisor)")
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := RollbarLogger{std: log.New(&bytes.Buffer{}, "", 0)}
	usr := user.User{ID: "1"}
	extra := map[string]interface{}{"k": "v"}

	args := logger.prepare("msg", []interface{}{usr, extra, user.User{ID: "2"}})
	assert.Equal(t, []interface{}{"msg", extra}, args, "users are stripped from reported args")
}
