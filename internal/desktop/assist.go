package desktop

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

const structurePrompt = `Based on files and their relative paths in 'FILE TO ORGANIZE', provide suggestions on how to organize these files to different folders.
Make sure to follow user's preference on how to organize the files. User's preference will be provided in 'User Preference'.
Return the organized file structure in json.

EXAMPLE INPUT:
file1.txt, image/image1.jpg, software.exe, document/document1.docx

EXAMPLE OUTPUT:
{
    'images': ['image1.jpg'],
    'documents': ['document1.docx'],
    'others': ['file1.txt', 'software.exe']
}

BEGIN FILE TO ORGANIZE
%s
END FILE TO ORGANIZE

User Preference: %s

OUTPUT:
`

const summaryPrompt = "Summarize this file:\n```\n%s\n```\n"

var errNoModel = errors.New("no language model configured")

// SuggestStructure asks the model for a JSON folder layout for fileList. It
// proposes only; nothing on disk changes.
func (d *Desktop) SuggestStructure(ctx context.Context, fileList, preference string) string {
	if preference == "" {
		return "Please provide a user preference to proceed with file organization."
	}
	if d.completer == nil {
		return fmt.Sprintf("Error organizing files. %s", errNoModel)
	}

	reply, err := d.completer.Complete(ctx, fmt.Sprintf(structurePrompt, fileList, preference))
	if err != nil {
		log.Error("suggest structure: %v", err)
		return fmt.Sprintf("Error organizing files. %s", err)
	}
	return reply
}

// SummarizeFile summarizes the head of a file with the summary model.
// Replies are cached by path, size and modification time.
func (d *Desktop) SummarizeFile(ctx context.Context, path string) string {
	if path == "" {
		return "Error reading file . Please provide a file path to read the content."
	}

	content, err := d.readHead(path)
	if err != nil {
		return fmt.Sprintf("Error summarizing file %s. %s", path, err)
	}
	if strings.TrimSpace(content) == "" {
		return "File is empty or failed to read contents from file."
	}
	if d.summarize == nil {
		return fmt.Sprintf("Error summarizing file %s. %s", path, errNoModel)
	}

	key := d.summaryKey(path)
	if key != "" {
		if cached, ok := d.summaries.Get(key); ok {
			log.Debug("summary cache hit for %s", path)
			return cached
		}
	}

	reply, err := d.summarize.Complete(ctx, fmt.Sprintf(summaryPrompt, content))
	if err != nil {
		log.Error("summarize %s: %v", path, err)
		return fmt.Sprintf("Error summarizing file %s. %s", path, err)
	}

	if key != "" {
		d.summaries.Add(key, reply)
	}
	return reply
}

func (d *Desktop) summaryKey(path string) string {
	abs, err := d.resolve(path)
	if err != nil {
		return ""
	}
	info, err := os.Stat(abs)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s|%d|%d", abs, info.Size(), info.ModTime().UnixNano())
}
