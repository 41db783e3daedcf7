package main

import (
	"bytes"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(a)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestApppass_Lifecycle(t *testing.T) {
	dsn := fmt.Sprintf("file:apppass_%s?mode=memory&cache=shared", t.Name())
	a := &app{}

	out, err := run(t, a, "--database", dsn, "create", "editor", "--name", "laptop")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`password: (\w{4} ){5}\w{4}\n`), out)
	assert.Contains(t, out, "username: editor")

	out, err = run(t, a, "list", "editor")
	require.NoError(t, err)
	assert.Contains(t, out, "laptop")
	assert.Contains(t, out, "active")

	out, err = run(t, a, "revoke", "1")
	require.NoError(t, err)
	assert.Equal(t, "revoked 1\n", out)

	out, err = run(t, a, "list", "editor")
	require.NoError(t, err)
	assert.Contains(t, out, "revoked")

	out, err = run(t, a, "prune", "--older-than", "0s")
	require.NoError(t, err)
	assert.Equal(t, "pruned 1 revoked password(s)\n", out)
}

func TestApppass_RevokeRejectsBadID(t *testing.T) {
	_, err := run(t, &app{}, "revoke", "abc")
	assert.EqualError(t, err, `invalid id "abc"`)
}

func TestApppass_RequiresUsername(t *testing.T) {
	_, err := run(t, &app{}, "create")
	assert.Error(t, err)
}
