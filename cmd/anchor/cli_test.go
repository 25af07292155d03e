package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const beforeHTML = `<html><head><title>Inbox</title></head><body>
<main>
	<ul id="messages">
		<li id="m1">First</li>
		<li id="m2"><button id="open-2">Open</button></li>
		<li id="m3">Third</li>
	</ul>
</main>
</body></html>`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// run executes the root command with a config path that does not exist,
// so every run starts from the default config.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml"), "--log-level", "error"}, args...))

	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags() {
	recoverBefore, recoverAfter, recoverRemove, recoverTarget = "", "", "", ""
	recoverStrategy, recoverJournal = "", ""
	axURL, axFile, axSelect = "", "", ""
	journalPath, journalLimit = "", 20
}

func TestRecover_Rerender(t *testing.T) {
	dir := t.TempDir()
	before := writeFile(t, dir, "before.html", beforeHTML)
	after := writeFile(t, dir, "after.html", beforeHTML)

	out, err := run(t, "recover", "--before", before, "--after", after, "--target", "#open-2", "--strategy", "all")
	require.NoError(t, err)

	assert.Contains(t, out, "main/list/listItem[2]/button")
	for _, want := range []string{"none", "ancestry", "tree_path", "exact", "ancestor", "unrecovered"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "3 reads, 3 recoveries")
}

func TestRecover_RemoveWithJournal(t *testing.T) {
	dir := t.TempDir()
	before := writeFile(t, dir, "before.html", beforeHTML)
	journalFile := filepath.Join(dir, "journal.db")

	out, err := run(t, "recover", "--before", before, "--remove", "main/list", "--target", "#open-2", "--journal", journalFile)
	require.NoError(t, err)
	assert.Contains(t, out, "tree_path")
	assert.Contains(t, out, "ancestor")

	out, err = run(t, "journal", "list", "--path", journalFile)
	require.NoError(t, err)
	assert.Contains(t, out, "tree_path")
	assert.Contains(t, out, "ancestor")

	out, err = run(t, "journal", "summary", "--path", journalFile)
	require.NoError(t, err)
	assert.Contains(t, out, "1 recoveries")
}

func TestRecover_ValidTargetIsNotRecovered(t *testing.T) {
	dir := t.TempDir()
	before := writeFile(t, dir, "before.html", beforeHTML)

	out, err := run(t, "recover", "--before", before, "--remove", "#m1", "--target", "#open-2", "--strategy", "ancestry")
	require.NoError(t, err)
	assert.Contains(t, out, "valid")
	assert.Contains(t, out, "1 reads, 0 recoveries")
}

func TestRecover_Errors(t *testing.T) {
	dir := t.TempDir()
	before := writeFile(t, dir, "before.html", beforeHTML)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "missing target", args: []string{"--before", before, "--remove", "#m1"}, wantErr: "required"},
		{name: "no mutation", args: []string{"--before", before, "--target", "#m1"}, wantErr: "exactly one"},
		{name: "both mutations", args: []string{"--before", before, "--target", "#m1", "--remove", "#m2", "--after", before}, wantErr: "exactly one"},
		{name: "bad strategy", args: []string{"--before", before, "--target", "#m1", "--remove", "#m2", "--strategy", "fuzzy"}, wantErr: "unknown strategy"},
		{name: "unknown target", args: []string{"--before", before, "--target", "#nope", "--remove", "#m2"}, wantErr: "not found"},
		{name: "missing file", args: []string{"--before", filepath.Join(dir, "nope.html"), "--target", "#m1", "--remove", "#m2"}, wantErr: "failed to read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"recover"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAX_File(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "page.html", beforeHTML)

	out, err := run(t, "ax", "--file", file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "desktop 1\n"))
	assert.Contains(t, out, `#open-2`)

	out, err = run(t, "ax", "--file", file, "--select", "#m3")
	require.NoError(t, err)
	assert.Contains(t, out, "main/list/listItem[3]")

	_, err = run(t, "ax")
	assert.Error(t, err)
}

func TestJournal_RequiresPath(t *testing.T) {
	_, err := run(t, "journal", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no journal configured")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "anchor version dev")
}
