package toolserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names as the agent sees them.
const (
	ToolGetNewFileStructure     = "GetNewFileStructure"
	ToolSummarizeFile           = "SummarizeFile"
	ToolGetDesktopFiles         = "GetDesktopFiles"
	ToolReadFileContent         = "ReadFileContent"
	ToolMoveFile                = "MoveFile"
	ToolMoveIntoFolder          = "MoveIntoFolder"
	ToolBulkMoveFilesIntoFolder = "BulkMoveFilesIntoFolder"
	ToolMoveAllFilesIntoFolder  = "MoveAllFilesIntoFolder"
	ToolDeleteEmptyFolders      = "DeleteEmptyFolders"
	ToolCountFiles              = "CountFiles"
	ToolRestoreDesktop          = "RestoreDesktop"
)

const (
	descRelativeFile = "Relative file path on Desktop"
	descDestFolder   = "Destination folder path where the file or folder will be moved into, relative destination path on Desktop"
)

// registerTools adds the catalogue in a fixed order; Definitions follows it.
func (s *Server) registerTools() {
	s.add(mcp.NewTool(ToolGetNewFileStructure,
		mcp.WithDescription("Get the new file and folder structure based on user's preference. This doesn't act on the files."),
		mcp.WithString("fileList", mcp.Required(),
			mcp.Description("List of files to organize"),
		),
		mcp.WithString("userPreference", mcp.Required(),
			mcp.Description("User preferred way to organize their desktop files"),
		),
	), s.handleGetNewFileStructure)

	s.add(mcp.NewTool(ToolSummarizeFile,
		mcp.WithDescription("Summarize the contents of a file"),
		mcp.WithString("filePath", mcp.Required(),
			mcp.Description(descRelativeFile),
		),
	), s.handleSummarizeFile)

	s.add(mcp.NewTool(ToolGetDesktopFiles,
		mcp.WithDescription("Get a list of files with their relative path from Desktop, separated by commas"),
		mcp.WithString("fileExtensionFilter",
			mcp.Description("Filter on file extension when getting files"),
			mcp.DefaultString("All"),
		),
	), s.handleGetDesktopFiles)

	s.add(mcp.NewTool(ToolReadFileContent,
		mcp.WithDescription("Read the first 1000 characters from a file."),
		mcp.WithString("filePath", mcp.Required(),
			mcp.Description(descRelativeFile),
		),
	), s.handleReadFileContent)

	s.add(mcp.NewTool(ToolMoveFile,
		mcp.WithDescription("Move a single file from one location to another location using relative path on Desktop. "+
			"This function will create new folders as needed automatically. Both source file and destination file should be file not folder. "+
			"This function can also be used to rename a file by moving it to a new location with a different file name."),
		mcp.WithString("filePath", mcp.Required(),
			mcp.Description("Source file path, relative file path on Desktop"),
		),
		mcp.WithString("destinationPath", mcp.Required(),
			mcp.Description("Destination file path, relative destination path on Desktop"),
		),
	), s.handleMoveFile)

	s.add(mcp.NewTool(ToolMoveIntoFolder,
		mcp.WithDescription("Move a single file or a folder from one location into another folder using relative path on Desktop. "+
			"This function will create new folders as needed automatically. "+
			"If you want to move the entire folder, just pass the source folder path in, don't move all files under it one by one."),
		mcp.WithString("fileOrFolderPath", mcp.Required(),
			mcp.Description("Source folder path, relative folder path on Desktop"),
		),
		mcp.WithString("destinationFolder", mcp.Required(),
			mcp.Description(descDestFolder),
		),
	), s.handleMoveIntoFolder)

	s.add(mcp.NewTool(ToolBulkMoveFilesIntoFolder,
		mcp.WithDescription("Move multiple files or folders from various locations into a folder using relative path on Desktop. "+
			"This function will create new folders as needed automatically. "+
			"If you want to move the entire folder, just pass the source folder path in, don't move all files under it one by one."),
		mcp.WithArray("filePaths", mcp.Required(),
			mcp.Description("A list of source files or folders with relative file path on Desktop. "+
				"If file is in a folder, make sure to include the folder info in the relative path."),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("destinationFolder", mcp.Required(),
			mcp.Description(descDestFolder),
		),
	), s.handleBulkMoveFilesIntoFolder)

	s.add(mcp.NewTool(ToolMoveAllFilesIntoFolder,
		mcp.WithDescription("Move all files and folders into a folder"),
		mcp.WithString("destinationFolder", mcp.Required(),
			mcp.Description("Destination folder name where the file or folder will be moved into"),
		),
	), s.handleMoveAllFilesIntoFolder)

	s.add(mcp.NewTool(ToolDeleteEmptyFolders,
		mcp.WithDescription("Delete all empty folders on Desktop."),
	), s.handleDeleteEmptyFolders)

	s.add(mcp.NewTool(ToolCountFiles,
		mcp.WithDescription("Count files on the desktop"),
	), s.handleCountFiles)

	s.add(mcp.NewTool(ToolRestoreDesktop,
		mcp.WithDescription("Restore Desktop to its original state, and revert all changes."),
	), s.handleRestoreDesktop)
}
