package doctest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shRunner() *Runner {
	return &Runner{Command: []string{"/bin/sh"}, Timeout: 10 * time.Second}
}

func TestRun_CapturesStdoutAndStderr(t *testing.T) {
	out, err := shRunner().Run(context.Background(), "echo one\necho two >&2\n")
	require.NoError(t, err)
	assert.Contains(t, out, "one")
	assert.Contains(t, out, "two")
}

func TestRun_NonZeroExitIsExecutionFailure(t *testing.T) {
	out, err := shRunner().Run(context.Background(), "echo partial\nexit 3\n")
	require.Error(t, err)
	assert.Contains(t, out, "partial")
}

func TestRun_TimeoutIsReportedNotHung(t *testing.T) {
	r := &Runner{Command: []string{"/bin/sh"}, Timeout: 200 * time.Millisecond}
	start := time.Now()
	_, err := r.Run(context.Background(), "sleep 30\n")
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCheck_PassAndFail(t *testing.T) {
	r := shRunner()

	pass := r.Check(context.Background(), "echo 4\n", "4\n")
	assert.True(t, pass.Pass)

	fail := r.Check(context.Background(), "echo 5\n", "4")
	require.False(t, fail.Pass)
	assert.Equal(t, "4", fail.Expected)
	assert.Contains(t, fail.Actual, "5")
}

func TestCheck_NormalizeWhitespace(t *testing.T) {
	r := shRunner()
	r.NormalizeWhitespace = true

	res := r.Check(context.Background(), "printf 'a  \\nb\\n'\n", "a\nb")
	assert.True(t, res.Pass)
}

func TestCheck_TimeoutMarksResult(t *testing.T) {
	r := &Runner{Command: []string{"/bin/sh"}, Timeout: 200 * time.Millisecond}
	res := r.Check(context.Background(), "sleep 30\n", "never")
	require.False(t, res.Pass)
	assert.True(t, res.TimedOut)
}

func TestSplitBlock(t *testing.T) {
	code, expected := SplitBlock("echo 4\n----\n4\n")
	assert.Equal(t, "echo 4\n", code)
	assert.Equal(t, "4\n", expected)

	code, expected = SplitBlock("echo hi\n")
	assert.Equal(t, "echo hi\n", code)
	assert.Empty(t, expected)
}
