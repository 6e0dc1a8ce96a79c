package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTempProject(t *testing.T) {
	root := CreateTempProject(t, map[string]string{
		"Card.htn":       `div.card { (children) }`,
		"pages/home.htt": `<Card/>`,
	})

	content, err := os.ReadFile(filepath.Join(root, "pages", "home.htt"))
	require.NoError(t, err)
	assert.Equal(t, `<Card/>`, string(content))
	AssertFilePermissions(t, filepath.Join(root, "Card.htn"), 0o644)
}

func TestCreateTestConfig(t *testing.T) {
	cfg := CreateTestConfig("/tmp/project")
	assert.Equal(t, []string{"/tmp/project"}, cfg.Templates.Paths)
	assert.Equal(t, []string{".htt"}, cfg.Templates.TagExtensions)
}

func TestWaitForFileChange(t *testing.T) {
	path := filepath.Join(CreateTempProject(t, map[string]string{"a.htt": "<p></p>"}), "a.htt")
	info, err := os.Stat(path)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		later := info.ModTime().Add(time.Second)
		_ = os.Chtimes(path, later, later)
	}()

	WaitForFileChange(t, path, info.ModTime(), 2*time.Second)
}
