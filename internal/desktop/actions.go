package desktop

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// HeadLimit is how many characters ReadFileHead returns before truncating.
const HeadLimit = 1000

const (
	declinedMove = "User declined the file movement, please retry."
	deniedOps    = "User denied the file operations. Please retry or ask something else"
)

// ListFiles returns every file under the root as comma-joined relative paths.
// filter "" or "All" matches everything; otherwise it is a case-insensitive
// substring match on the extension, dot included.
func (d *Desktop) ListFiles(filter string) string {
	return strings.Join(d.listFiles(filter), ",")
}

func (d *Desktop) listFiles(filter string) []string {
	all := filter == "" || strings.EqualFold(filter, "all")
	needle := strings.ToLower(filter)

	var files []string
	d.walkFiles(func(abs string) {
		if !all && !strings.Contains(strings.ToLower(filepath.Ext(abs)), needle) {
			return
		}
		files = append(files, d.relative(abs))
	})
	return files
}

// CountFiles counts every file below the root, repositories included.
// Unreadable directories are skipped.
func (d *Desktop) CountFiles() int {
	n := 0
	_ = filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if entry != nil && entry.IsDir() && path != d.root {
				return fs.SkipDir
			}
			return nil
		}
		if !entry.IsDir() {
			n++
		}
		return nil
	})
	return n
}

// ReadFileHead returns the first HeadLimit characters of a file, followed by
// "..." when there is more.
func (d *Desktop) ReadFileHead(path string) string {
	if path == "" {
		return "Error reading file . Please provide a file path to read the content."
	}
	content, err := d.readHead(path)
	if err != nil {
		return fmt.Sprintf("Error reading file %s. %s", path, err)
	}
	return content
}

// failure is an error whose text goes to the agent as-is.
type failure string

func (f failure) Error() string { return string(f) }

const (
	errNotFound    failure = "File not found."
	errIsDirectory failure = "Path is a directory."
)

func (d *Desktop) readHead(path string) (string, error) {
	abs, err := d.resolve(path)
	if err != nil {
		return "", failure("Path is outside the desktop.")
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errNotFound
		}
		return "", failure(reason(err))
	}
	if info.IsDir() {
		return "", errIsDirectory
	}

	f, err := os.Open(abs)
	if err != nil {
		return "", failure(reason(err))
	}
	defer func() { _ = f.Close() }()

	r := bufio.NewReader(f)
	var sb strings.Builder
	for n := 0; n < HeadLimit; n++ {
		ch, _, err := r.ReadRune()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return "", failure(reason(err))
		}
		sb.WriteRune(ch)
	}

	if _, _, err := r.ReadRune(); err == nil {
		sb.WriteString("...")
	}
	return sb.String(), nil
}

// MoveFile moves a single file, creating the destination's parent folders.
// It never overwrites and never moves directories.
func (d *Desktop) MoveFile(ctx context.Context, source, destination string) string {
	fail := func(msg string) string {
		return fmt.Sprintf("Error moving file %s to %s. %s", source, destination, msg)
	}

	if source == "" || destination == "" {
		return fail("Please provide a valid file path and destination path.")
	}
	src, err := d.resolve(source)
	if err != nil {
		return fail(capitalize(err.Error()) + ".")
	}
	dst, err := d.resolve(destination)
	if err != nil {
		return fail(capitalize(err.Error()) + ".")
	}

	if !d.ask(ctx, fmt.Sprintf("We are about to move %s to %s, please approve or deny.", source, destination)) {
		return declinedMove
	}

	info, err := os.Stat(src)
	switch {
	case os.IsNotExist(err):
		return fail("Source file not found.")
	case err != nil:
		return fail(reason(err))
	case info.IsDir():
		return fail("Source is a folder, use MoveIntoFolder to move folders.")
	}
	if _, err := os.Lstat(dst); err == nil {
		return fail("Destination already exists.")
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fail(reason(err))
	}
	if err := os.Rename(src, dst); err != nil {
		return fail(reason(err))
	}

	log.Info("moved %s -> %s", source, destination)
	return fmt.Sprintf("File %s moved to %s", source, destination)
}

// MoveIntoFolder moves a file or a whole folder into folder, keeping its name.
func (d *Desktop) MoveIntoFolder(ctx context.Context, source, folder string) string {
	fail := func(msg string) string {
		return fmt.Sprintf("Error moving folder %s to %s. %s", source, folder, msg)
	}

	if source == "" || folder == "" {
		return fail("Please provide a valid folder path and destination path.")
	}
	if _, err := d.resolve(source); err != nil {
		return fail(capitalize(err.Error()) + ".")
	}
	if _, err := d.resolve(folder); err != nil {
		return fail(capitalize(err.Error()) + ".")
	}

	if !d.ask(ctx, fmt.Sprintf("We are about to move %s to folder %s, please approve or deny.", source, folder)) {
		return declinedMove
	}

	if err := d.moveInto(source, folder); err != nil {
		return fail(err.Error())
	}
	return fmt.Sprintf("Successfully Moved %s to %s", source, folder)
}

// BulkMoveIntoFolder moves each source into folder in order under a single
// consent. It stops at the first failure and reports what was already moved.
func (d *Desktop) BulkMoveIntoFolder(ctx context.Context, sources []string, folder string) string {
	if len(sources) == 0 || folder == "" {
		return fmt.Sprintf("Error moving files to %s. Please provide a valid file path and destination path.", folder)
	}
	if _, err := d.resolve(folder); err != nil {
		return fmt.Sprintf("Error moving files to %s. %s.", folder, capitalize(err.Error()))
	}

	prompt := fmt.Sprintf("We are about to move below files to folder %s, please approve or deny. \n %s",
		folder, strings.Join(sources, "\n"))
	if !d.ask(ctx, prompt) {
		return declinedMove
	}

	moved := make([]string, 0, len(sources))
	for _, src := range sources {
		if err := d.moveInto(src, folder); err != nil {
			return fmt.Sprintf("Error moving all files to %s. %s. Moved files are: %s",
				folder, strings.TrimSuffix(err.Error(), "."), strings.Join(moved, ", "))
		}
		moved = append(moved, src)
	}
	return fmt.Sprintf("Files moved to %s", folder)
}

// moveInto moves source (file or folder) to folder/<base name of source>.
func (d *Desktop) moveInto(source, folder string) error {
	if source == "" {
		return failure("Empty source path.")
	}
	src, err := d.resolve(source)
	if err != nil {
		return failure(fmt.Sprintf("%s: %s.", source, capitalize(err.Error())))
	}
	dir, err := d.resolve(folder)
	if err != nil {
		return failure(fmt.Sprintf("%s: %s.", folder, capitalize(err.Error())))
	}
	if src == d.root {
		return failure("Cannot move the desktop itself.")
	}

	info, err := os.Lstat(src)
	if os.IsNotExist(err) {
		return failure(fmt.Sprintf("%s not found.", source))
	}
	if err != nil {
		return failure(reason(err))
	}
	if info.IsDir() && within(dir, src) {
		return failure(fmt.Sprintf("Cannot move %s into itself.", source))
	}

	dst := filepath.Join(dir, filepath.Base(src))
	if dst == src {
		return failure(fmt.Sprintf("%s is already in %s.", source, folder))
	}
	if _, err := os.Lstat(dst); err == nil {
		return failure(fmt.Sprintf("%s already exists.", d.relative(dst)))
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return failure(reason(err))
	}
	if err := os.Rename(src, dst); err != nil {
		return failure(reason(err))
	}
	log.Info("moved %s into %s", source, folder)
	return nil
}

// within reports whether path is dir or lies beneath it.
func within(path, dir string) bool {
	r, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return r == "." || (r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator)))
}

// MoveAllIntoFolder moves every top-level entry into folder. The folder and any
// entry containing it stay where they are, as does a top-level .git.
func (d *Desktop) MoveAllIntoFolder(ctx context.Context, folder string) string {
	if folder == "" {
		return "An error occurred: Please provide a destination folder."
	}
	dir, err := d.resolve(folder)
	if err != nil || dir == d.root {
		return fmt.Sprintf("An error occurred: %s is not a valid destination folder.", folder)
	}

	if d.gateMoveAll {
		prompt := fmt.Sprintf("We are about to move all files and folders on Desktop into folder %s, please approve or deny.", folder)
		if !d.ask(ctx, prompt) {
			return declinedMove
		}
	}

	entries, err := os.ReadDir(d.root)
	if err != nil {
		return fmt.Sprintf("An error occurred: %s", reason(err))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Sprintf("An error occurred: %s", reason(err))
	}

	for _, entry := range entries {
		src := filepath.Join(d.root, entry.Name())
		if entry.Name() == ".git" || within(dir, src) {
			continue
		}
		if err := os.Rename(src, filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Sprintf("An error occurred: %s", reason(err))
		}
	}

	log.Info("moved all top-level entries into %s", folder)
	return fmt.Sprintf("All files and folders have been moved to %s.", folder)
}

// DeleteEmptyFolders removes every folder that was empty when the scan ran.
// Parents emptied by the removal stay unless fixed-point cleanup is on.
func (d *Desktop) DeleteEmptyFolders(ctx context.Context) string {
	if !d.ask(ctx, "We are about to delete all empty folders on Desktop. Please approve or deny.") {
		return deniedOps
	}

	total := 0
	for {
		removed, err := d.deleteEmptyPass()
		total += removed
		if err != nil {
			return fmt.Sprintf("Error deleting empty folders. %s", reason(err))
		}
		if !d.fixedPoint || removed == 0 {
			break
		}
	}

	log.Info("removed %d empty folders", total)
	return "Empty folders deleted successfully."
}

func (d *Desktop) deleteEmptyPass() (int, error) {
	var empty []string
	for _, dir := range d.walkDirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		if len(entries) == 0 {
			empty = append(empty, dir)
		}
	}

	for i, dir := range empty {
		if err := os.Remove(dir); err != nil {
			return i, err
		}
	}
	return len(empty), nil
}

// RestoreDesktop resets the desktop to its last backup.
func (d *Desktop) RestoreDesktop(ctx context.Context) string {
	if !d.ask(ctx, "We are about to restore Desktop to its original state. Please approve or deny.") {
		return deniedOps
	}

	if d.vcs == nil {
		log.Warn("restore requested without a version-control runner")
		return "Error restoring Desktop to its original state."
	}
	if err := d.vcs.Restore(ctx); err != nil {
		log.Error("restore failed: %v", err)
		return "Error restoring Desktop to its original state."
	}
	return "Desktop restored to its original state."
}

// Backup commits the current desktop state. It is not in the agent catalogue
// and asks no consent; the outcome is shown through the notifier.
func (d *Desktop) Backup(ctx context.Context) error {
	var err error
	if d.vcs == nil {
		err = errors.New("no version-control runner configured")
	} else {
		err = d.vcs.Backup(ctx)
	}

	if err != nil {
		log.Error("backup failed: %v", err)
		d.alert("Backup Desktop", "Failed to backup desktop, please retry")
		return err
	}
	d.alert("Backup Desktop", "Desktop was backed up successfully")
	return nil
}

func (d *Desktop) alert(title, message string) {
	if d.notifier != nil {
		d.notifier.ShowAlert(title, message)
	}
}
