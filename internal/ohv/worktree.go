package ohv

// WorkTree is a directory of plain files addressed by slash-separated
// relative paths. It backs both the project's source tree and the build area.
type WorkTree interface {
	// ReadFile returns the file content. Returns an error wrapping
	// ErrNotFound when the file is absent.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes the file, creating parent directories as needed.
	WriteFile(path string, data []byte) error

	// Exists reports whether a regular file exists at path.
	Exists(path string) (bool, error)
}
