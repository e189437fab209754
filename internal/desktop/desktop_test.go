package desktop

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConsent answers with a fixed decision and records every prompt.
type fakeConsent struct {
	mu      sync.Mutex
	answer  bool
	prompts []string
}

func (f *fakeConsent) RequestConsent(_ context.Context, message string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, message)
	return f.answer
}

type fakeVCS struct {
	restoreErr, backupErr error
	restores, backups     int
}

func (f *fakeVCS) Restore(context.Context) error { f.restores++; return f.restoreErr }
func (f *fakeVCS) Backup(context.Context) error  { f.backups++; return f.backupErr }

type alert struct{ title, message string }

type fakeNotifier struct{ alerts []alert }

func (f *fakeNotifier) ShowAlert(title, message string) {
	f.alerts = append(f.alerts, alert{title, message})
}

func (f *fakeNotifier) ShowConfirmation(_, _ string, cb func(bool), _, _ string) { cb(false) }

type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

// writeTree creates files (content = path) and directories (trailing slash).
func writeTree(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if strings.HasSuffix(p, "/") {
			require.NoError(t, os.MkdirAll(full, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(p), 0o644))
	}
}

func newDesktop(t *testing.T, approve bool) (*Desktop, *fakeConsent, string) {
	t.Helper()
	root := t.TempDir()
	c := &fakeConsent{answer: approve}
	d, err := New(Options{Root: root, Consent: c, GateMoveAll: true})
	require.NoError(t, err)
	return d, c, root
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func TestNew_RootMustBeDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "f.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := New(Options{Root: file})
	assert.Error(t, err)

	_, err = New(Options{Root: filepath.Join(root, "missing")})
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	d, _, root := newDesktop(t, true)

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "a.txt", want: filepath.Join(root, "a.txt")},
		{in: "docs/a.txt", want: filepath.Join(root, "docs", "a.txt")},
		{in: "docs/../a.txt", want: filepath.Join(root, "a.txt")},
		{in: filepath.Join(root, "b.txt"), want: filepath.Join(root, "b.txt")},
		{in: "../escape.txt", wantErr: true},
		{in: "..", wantErr: true},
		{in: "/etc/passwd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := d.resolve(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOutsideRoot)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListFiles(t *testing.T) {
	d, _, root := newDesktop(t, true)
	writeTree(t, root,
		"b.txt",
		"a.PDF",
		"docs/report.pdf",
		"docs/notes.md",
		"docs/deep/x.txt",
		"project/.git/HEAD",
		"project/main.go",
		"empty/",
		"noext",
	)

	tests := []struct {
		name   string
		filter string
		want   string
	}{
		{name: "all keyword", filter: "All", want: "a.PDF,b.txt,docs/deep/x.txt,docs/notes.md,docs/report.pdf,noext"},
		{name: "empty filter", filter: "", want: "a.PDF,b.txt,docs/deep/x.txt,docs/notes.md,docs/report.pdf,noext"},
		{name: "case insensitive", filter: ".pdf", want: "a.PDF,docs/report.pdf"},
		{name: "substring", filter: "m", want: "docs/notes.md"},
		{name: "no match", filter: ".exe", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.ListFiles(tt.filter))
		})
	}
}

func TestListFiles_NeverEntersRepositories(t *testing.T) {
	d, _, root := newDesktop(t, true)
	writeTree(t, root, "repo/.git/config", "repo/src/code.go", "repo/README", "keep.txt")

	out := d.ListFiles("All")
	assert.Equal(t, "keep.txt", out)
	assert.NotContains(t, out, "repo")
	assert.Equal(t, 4, d.CountFiles(), "counting includes repository contents")
}

func TestListFiles_RootIsRepository(t *testing.T) {
	d, _, root := newDesktop(t, true)
	writeTree(t, root, ".git/HEAD", "a.txt")

	assert.Equal(t, "", d.ListFiles("All"))
	assert.Equal(t, 2, d.CountFiles())
}

func TestListFiles_SkipsUnreadableDirectories(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	d, _, root := newDesktop(t, true)
	writeTree(t, root, "ok.txt", "locked/secret.txt")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	assert.Equal(t, "ok.txt", d.ListFiles(""))
}

func TestCountFiles(t *testing.T) {
	d, _, root := newDesktop(t, true)
	assert.Equal(t, 0, d.CountFiles())

	writeTree(t, root, "1.txt", "a/2.txt", "a/b/3.txt", "a/b/c/d/4.txt", "only-dirs/x/")
	assert.Equal(t, 4, d.CountFiles())
}

func TestCountFiles_IncludesNestedRepository(t *testing.T) {
	d, _, root := newDesktop(t, true)
	writeTree(t, root, "a.txt", "proj/main.go", "proj/.git/HEAD")

	assert.Equal(t, 3, d.CountFiles())
	assert.Equal(t, "a.txt", d.ListFiles("All"))
}

func TestResolve_RejectsSymlinkOutOfRoot(t *testing.T) {
	d, _, root := newDesktop(t, true)
	writeTree(t, root, "a.txt", "docs/")
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))
	require.NoError(t, os.Symlink(filepath.Join(root, "docs"), filepath.Join(root, "inside")))

	_, err := d.resolve("link/a.txt")
	assert.ErrorIs(t, err, ErrOutsideRoot)
	_, err = d.resolve("link/new/deeper/a.txt")
	assert.ErrorIs(t, err, ErrOutsideRoot)

	out := d.MoveFile(context.Background(), "a.txt", "link/a.txt")
	assert.NotContains(t, out, "moved to")
	assert.True(t, exists(filepath.Join(root, "a.txt")))
	assert.False(t, exists(filepath.Join(outside, "a.txt")))

	p, err := d.resolve("inside/a.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "inside", "a.txt"), p)
}

func TestReadFileHead(t *testing.T) {
	d, _, root := newDesktop(t, true)
	writeTree(t, root, "dir/")
	require.NoError(t, os.WriteFile(filepath.Join(root, "short.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "exact.txt"), []byte(strings.Repeat("x", HeadLimit)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "long.txt"), []byte(strings.Repeat("y", HeadLimit+50)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "runes.txt"), []byte(strings.Repeat("é", HeadLimit+1)), 0o644))

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "empty path", path: "", want: "Error reading file . Please provide a file path to read the content."},
		{name: "missing", path: "nope.txt", want: "Error reading file nope.txt. File not found."},
		{name: "directory", path: "dir", want: "Error reading file dir. Path is a directory."},
		{name: "outside", path: "../x", want: "Error reading file ../x. Path is outside the desktop."},
		{name: "short", path: "short.txt", want: "hello"},
		{name: "exactly the limit", path: "exact.txt", want: strings.Repeat("x", HeadLimit)},
		{name: "truncated", path: "long.txt", want: strings.Repeat("y", HeadLimit) + "..."},
		{name: "counts characters not bytes", path: "runes.txt", want: strings.Repeat("é", HeadLimit) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.ReadFileHead(tt.path))
		})
	}
}

func TestMoveFile(t *testing.T) {
	t.Run("creates missing parents", func(t *testing.T) {
		d, c, root := newDesktop(t, true)
		writeTree(t, root, "a.txt")

		got := d.MoveFile(context.Background(), "a.txt", "new/deeper/b.txt")
		assert.Equal(t, "File a.txt moved to new/deeper/b.txt", got)
		assert.False(t, exists(filepath.Join(root, "a.txt")))
		assert.True(t, exists(filepath.Join(root, "new", "deeper", "b.txt")))
		assert.Equal(t, []string{"We are about to move a.txt to new/deeper/b.txt, please approve or deny."}, c.prompts)
	})

	t.Run("denied leaves disk untouched", func(t *testing.T) {
		d, _, root := newDesktop(t, false)
		writeTree(t, root, "a.txt")

		got := d.MoveFile(context.Background(), "a.txt", "b/a.txt")
		assert.Equal(t, "User declined the file movement, please retry.", got)
		assert.True(t, exists(filepath.Join(root, "a.txt")))
		assert.False(t, exists(filepath.Join(root, "b")))
	})

	t.Run("empty arguments skip consent", func(t *testing.T) {
		d, c, _ := newDesktop(t, true)
		got := d.MoveFile(context.Background(), "", "b.txt")
		assert.Equal(t, "Error moving file  to b.txt. Please provide a valid file path and destination path.", got)
		assert.Empty(t, c.prompts)
	})

	t.Run("outside root skips consent", func(t *testing.T) {
		d, c, _ := newDesktop(t, true)
		got := d.MoveFile(context.Background(), "a.txt", "../../b.txt")
		assert.Equal(t, "Error moving file a.txt to ../../b.txt. Path is outside the desktop.", got)
		assert.Empty(t, c.prompts)
	})

	t.Run("missing source", func(t *testing.T) {
		d, _, _ := newDesktop(t, true)
		got := d.MoveFile(context.Background(), "ghost.txt", "b.txt")
		assert.Equal(t, "Error moving file ghost.txt to b.txt. Source file not found.", got)
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		d, _, root := newDesktop(t, true)
		writeTree(t, root, "a.txt", "b.txt")
		got := d.MoveFile(context.Background(), "a.txt", "b.txt")
		assert.Equal(t, "Error moving file a.txt to b.txt. Destination already exists.", got)
		content, _ := os.ReadFile(filepath.Join(root, "b.txt"))
		assert.Equal(t, "b.txt", string(content))
	})

	t.Run("refuses folders", func(t *testing.T) {
		d, _, root := newDesktop(t, true)
		writeTree(t, root, "dir/x.txt")
		got := d.MoveFile(context.Background(), "dir", "other")
		assert.True(t, strings.HasPrefix(got, "Error moving file dir to other."))
		assert.True(t, exists(filepath.Join(root, "dir", "x.txt")))
	})

	t.Run("no consent gate fails closed", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "a.txt")
		d, err := New(Options{Root: root})
		require.NoError(t, err)
		assert.Equal(t, "User declined the file movement, please retry.", d.MoveFile(context.Background(), "a.txt", "b.txt"))
		assert.True(t, exists(filepath.Join(root, "a.txt")))
	})
}

func TestMoveIntoFolder(t *testing.T) {
	t.Run("moves a whole folder", func(t *testing.T) {
		d, c, root := newDesktop(t, true)
		writeTree(t, root, "photos/a.jpg", "photos/trip/b.jpg")

		got := d.MoveIntoFolder(context.Background(), "photos", "Archive/2024")
		assert.Equal(t, "Successfully Moved photos to Archive/2024", got)
		assert.True(t, exists(filepath.Join(root, "Archive", "2024", "photos", "trip", "b.jpg")))
		assert.False(t, exists(filepath.Join(root, "photos")))
		assert.Equal(t, []string{"We are about to move photos to folder Archive/2024, please approve or deny."}, c.prompts)
	})

	t.Run("moves a file keeping its name", func(t *testing.T) {
		d, _, root := newDesktop(t, true)
		writeTree(t, root, "docs/cv.pdf")

		got := d.MoveIntoFolder(context.Background(), "docs/cv.pdf", "Work")
		assert.Equal(t, "Successfully Moved docs/cv.pdf to Work", got)
		assert.True(t, exists(filepath.Join(root, "Work", "cv.pdf")))
	})

	t.Run("denied", func(t *testing.T) {
		d, _, root := newDesktop(t, false)
		writeTree(t, root, "a.txt")
		assert.Equal(t, "User declined the file movement, please retry.", d.MoveIntoFolder(context.Background(), "a.txt", "X"))
		assert.False(t, exists(filepath.Join(root, "X")))
	})

	t.Run("empty arguments", func(t *testing.T) {
		d, c, _ := newDesktop(t, true)
		got := d.MoveIntoFolder(context.Background(), "a.txt", "")
		assert.Equal(t, "Error moving folder a.txt to . Please provide a valid folder path and destination path.", got)
		assert.Empty(t, c.prompts)
	})

	t.Run("into itself", func(t *testing.T) {
		d, _, root := newDesktop(t, true)
		writeTree(t, root, "a/b/")
		got := d.MoveIntoFolder(context.Background(), "a", "a/b")
		assert.Equal(t, "Error moving folder a to a/b. Cannot move a into itself.", got)
		assert.True(t, exists(filepath.Join(root, "a", "b")))
	})

	t.Run("missing source", func(t *testing.T) {
		d, _, _ := newDesktop(t, true)
		got := d.MoveIntoFolder(context.Background(), "ghost", "X")
		assert.Equal(t, "Error moving folder ghost to X. ghost not found.", got)
	})
}

func TestBulkMoveIntoFolder(t *testing.T) {
	t.Run("moves everything under one consent", func(t *testing.T) {
		d, c, root := newDesktop(t, true)
		writeTree(t, root, "a.txt", "b/c.txt", "dir/x.md")

		got := d.BulkMoveIntoFolder(context.Background(), []string{"a.txt", "b/c.txt", "dir"}, "Sorted")
		assert.Equal(t, "Files moved to Sorted", got)
		for _, p := range []string{"a.txt", "c.txt", "dir/x.md"} {
			assert.True(t, exists(filepath.Join(root, "Sorted", filepath.FromSlash(p))), p)
		}
		require.Len(t, c.prompts, 1)
		assert.Equal(t, "We are about to move below files to folder Sorted, please approve or deny. \n a.txt\nb/c.txt\ndir", c.prompts[0])
	})

	t.Run("stops at first failure and reports progress", func(t *testing.T) {
		d, _, root := newDesktop(t, true)
		writeTree(t, root, "f1.txt", "f3.txt")

		got := d.BulkMoveIntoFolder(context.Background(), []string{"f1.txt", "f2.txt", "f3.txt"}, "D")
		assert.Equal(t, "Error moving all files to D. f2.txt not found. Moved files are: f1.txt", got)
		assert.True(t, exists(filepath.Join(root, "D", "f1.txt")))
		assert.True(t, exists(filepath.Join(root, "f3.txt")))
		assert.False(t, exists(filepath.Join(root, "D", "f3.txt")))
	})

	t.Run("denied", func(t *testing.T) {
		d, _, root := newDesktop(t, false)
		writeTree(t, root, "a.txt")
		assert.Equal(t, "User declined the file movement, please retry.",
			d.BulkMoveIntoFolder(context.Background(), []string{"a.txt"}, "D"))
		assert.True(t, exists(filepath.Join(root, "a.txt")))
	})

	t.Run("empty input", func(t *testing.T) {
		d, c, _ := newDesktop(t, true)
		assert.Equal(t, "Error moving files to D. Please provide a valid file path and destination path.",
			d.BulkMoveIntoFolder(context.Background(), nil, "D"))
		assert.Empty(t, c.prompts)
	})
}

func TestMoveAllIntoFolder(t *testing.T) {
	t.Run("moves top level entries and skips the destination", func(t *testing.T) {
		d, c, root := newDesktop(t, true)
		writeTree(t, root, "a.txt", "docs/b.txt", "Archive/old/keep.txt")

		got := d.MoveAllIntoFolder(context.Background(), "Archive/new")
		assert.Equal(t, "All files and folders have been moved to Archive/new.", got)
		assert.True(t, exists(filepath.Join(root, "Archive", "new", "a.txt")))
		assert.True(t, exists(filepath.Join(root, "Archive", "new", "docs", "b.txt")))
		// Archive contains the destination so it stays put.
		assert.True(t, exists(filepath.Join(root, "Archive", "old", "keep.txt")))
		assert.Len(t, c.prompts, 1)
	})

	t.Run("gated by consent", func(t *testing.T) {
		d, c, root := newDesktop(t, false)
		writeTree(t, root, "a.txt")
		assert.Equal(t, "User declined the file movement, please retry.", d.MoveAllIntoFolder(context.Background(), "All"))
		assert.True(t, exists(filepath.Join(root, "a.txt")))
		assert.Equal(t, []string{"We are about to move all files and folders on Desktop into folder All, please approve or deny."}, c.prompts)
	})

	t.Run("ungated when configured", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "a.txt")
		c := &fakeConsent{answer: false}
		d, err := New(Options{Root: root, Consent: c, GateMoveAll: false})
		require.NoError(t, err)

		assert.Equal(t, "All files and folders have been moved to Box.", d.MoveAllIntoFolder(context.Background(), "Box"))
		assert.True(t, exists(filepath.Join(root, "Box", "a.txt")))
		assert.Empty(t, c.prompts)
	})

	t.Run("rejects the root itself", func(t *testing.T) {
		d, _, _ := newDesktop(t, true)
		assert.True(t, strings.HasPrefix(d.MoveAllIntoFolder(context.Background(), "."), "An error occurred:"))
		assert.True(t, strings.HasPrefix(d.MoveAllIntoFolder(context.Background(), ""), "An error occurred:"))
	})
}

func TestDeleteEmptyFolders(t *testing.T) {
	t.Run("single pass keeps newly emptied parents", func(t *testing.T) {
		d, c, root := newDesktop(t, true)
		writeTree(t, root, "parent/leaf/", "full/x.txt", "lonely/")

		got := d.DeleteEmptyFolders(context.Background())
		assert.Equal(t, "Empty folders deleted successfully.", got)
		assert.False(t, exists(filepath.Join(root, "parent", "leaf")))
		assert.True(t, exists(filepath.Join(root, "parent")))
		assert.False(t, exists(filepath.Join(root, "lonely")))
		assert.True(t, exists(filepath.Join(root, "full", "x.txt")))
		assert.Equal(t, []string{"We are about to delete all empty folders on Desktop. Please approve or deny."}, c.prompts)
	})

	t.Run("fixed point removes the whole chain", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "a/b/c/", "keep/x.txt")
		d, err := New(Options{Root: root, Consent: &fakeConsent{answer: true}, FixedPointCleanup: true})
		require.NoError(t, err)

		assert.Equal(t, "Empty folders deleted successfully.", d.DeleteEmptyFolders(context.Background()))
		assert.False(t, exists(filepath.Join(root, "a")))
		assert.True(t, exists(filepath.Join(root, "keep")))
		assert.True(t, exists(root))
	})

	t.Run("never touches repositories", func(t *testing.T) {
		d, _, root := newDesktop(t, true)
		writeTree(t, root, "repo/.git/refs/", "repo/empty/")

		d.DeleteEmptyFolders(context.Background())
		assert.True(t, exists(filepath.Join(root, "repo", ".git", "refs")))
		assert.True(t, exists(filepath.Join(root, "repo", "empty")))
	})

	t.Run("denied", func(t *testing.T) {
		d, _, root := newDesktop(t, false)
		writeTree(t, root, "empty/")
		assert.Equal(t, "User denied the file operations. Please retry or ask something else", d.DeleteEmptyFolders(context.Background()))
		assert.True(t, exists(filepath.Join(root, "empty")))
	})
}

func TestRestoreDesktop(t *testing.T) {
	tests := []struct {
		name    string
		approve bool
		err     error
		want    string
		calls   int
	}{
		{name: "success", approve: true, want: "Desktop restored to its original state.", calls: 1},
		{name: "failure", approve: true, err: errors.New("exit 1"), want: "Error restoring Desktop to its original state.", calls: 1},
		{name: "denied", approve: false, want: "User denied the file operations. Please retry or ask something else"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &fakeVCS{restoreErr: tt.err}
			c := &fakeConsent{answer: tt.approve}
			d, err := New(Options{Root: t.TempDir(), Consent: c, VCS: v})
			require.NoError(t, err)

			assert.Equal(t, tt.want, d.RestoreDesktop(context.Background()))
			assert.Equal(t, tt.calls, v.restores)
			assert.Equal(t, []string{"We are about to restore Desktop to its original state. Please approve or deny."}, c.prompts)
		})
	}

	t.Run("no runner", func(t *testing.T) {
		d, _, _ := newDesktop(t, true)
		assert.Equal(t, "Error restoring Desktop to its original state.", d.RestoreDesktop(context.Background()))
	})
}

func TestBackup(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		v := &fakeVCS{}
		n := &fakeNotifier{}
		c := &fakeConsent{}
		d, err := New(Options{Root: t.TempDir(), VCS: v, Notifier: n, Consent: c})
		require.NoError(t, err)

		require.NoError(t, d.Backup(context.Background()))
		assert.Equal(t, 1, v.backups)
		assert.Equal(t, []alert{{"Backup Desktop", "Desktop was backed up successfully"}}, n.alerts)
		assert.Empty(t, c.prompts, "backup never asks for consent")
	})

	t.Run("failure", func(t *testing.T) {
		v := &fakeVCS{backupErr: errors.New("nothing to commit")}
		n := &fakeNotifier{}
		d, err := New(Options{Root: t.TempDir(), VCS: v, Notifier: n})
		require.NoError(t, err)

		assert.Error(t, d.Backup(context.Background()))
		assert.Equal(t, []alert{{"Backup Desktop", "Failed to backup desktop, please retry"}}, n.alerts)
	})
}

func TestSuggestStructure(t *testing.T) {
	c := &fakeCompleter{reply: `{"images": ["a.jpg"]}`}
	d, err := New(Options{Root: t.TempDir(), Completer: c})
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, "Please provide a user preference to proceed with file organization.", d.SuggestStructure(ctx, "a.jpg", ""))
	assert.Empty(t, c.prompts)

	assert.Equal(t, `{"images": ["a.jpg"]}`, d.SuggestStructure(ctx, "a.jpg, b.txt", "by type"))
	require.Len(t, c.prompts, 1)
	assert.Contains(t, c.prompts[0], "BEGIN FILE TO ORGANIZE\na.jpg, b.txt\nEND FILE TO ORGANIZE")
	assert.Contains(t, c.prompts[0], "User Preference: by type")

	c.err = errors.New("rate limited")
	assert.Equal(t, "Error organizing files. rate limited", d.SuggestStructure(ctx, "a.jpg", "by type"))

	noModel, err := New(Options{Root: t.TempDir()})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(noModel.SuggestStructure(ctx, "a", "b"), "Error organizing files."))
}

func TestSummarizeFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "notes.txt")
	require.NoError(t, os.WriteFile(filepath.Join(root, "blank.txt"), []byte("  \n"), 0o644))

	main := &fakeCompleter{reply: "from main"}
	summary := &fakeCompleter{reply: "a short summary"}
	d, err := New(Options{Root: root, Completer: main, SummaryCompleter: summary, SummaryCacheSize: 4})
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, "a short summary", d.SummarizeFile(ctx, "notes.txt"))
	assert.Equal(t, "a short summary", d.SummarizeFile(ctx, "notes.txt"))
	require.Len(t, summary.prompts, 1, "second call should hit the cache")
	assert.Equal(t, "Summarize this file:\n```\nnotes.txt\n```\n", summary.prompts[0])
	assert.Empty(t, main.prompts)

	// A changed file is summarized again.
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("different content"), 0o644))
	d.SummarizeFile(ctx, "notes.txt")
	assert.Len(t, summary.prompts, 2)

	assert.Equal(t, "File is empty or failed to read contents from file.", d.SummarizeFile(ctx, "blank.txt"))
	assert.Equal(t, "Error summarizing file missing.txt. File not found.", d.SummarizeFile(ctx, "missing.txt"))
	assert.Equal(t, "Error reading file . Please provide a file path to read the content.", d.SummarizeFile(ctx, ""))

	summary.err = errors.New("model offline")
	require.NoError(t, os.WriteFile(filepath.Join(root, "other.txt"), []byte("text"), 0o644))
	assert.Equal(t, "Error summarizing file other.txt. model offline", d.SummarizeFile(ctx, "other.txt"))
}

func TestSummarizeFile_FallsBackToMainModel(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.txt")
	main := &fakeCompleter{reply: "main summary"}
	d, err := New(Options{Root: root, Completer: main})
	require.NoError(t, err)

	assert.Equal(t, "main summary", d.SummarizeFile(context.Background(), "a.txt"))
}

func TestSnapshotDiff(t *testing.T) {
	d, _, root := newDesktop(t, true)
	writeTree(t, root, "b.txt", "a.txt")

	before := d.Snapshot()
	assert.Equal(t, []string{"a.txt", "b.txt"}, before)

	d.MoveFile(context.Background(), "a.txt", "docs/a.txt")
	after := d.Snapshot()

	diff := DiffSnapshots(before, after)
	assert.Contains(t, diff, "-a.txt")
	assert.Contains(t, diff, "+docs/a.txt")
	assert.Equal(t, "", DiffSnapshots(after, after))
}
