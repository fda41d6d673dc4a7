package ingest

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"thinkr-backend/internal/worker"
)

// FileError records a corpus file that could not be turned into a job.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// CollectJobs walks root and turns every supported file into a chunked job.
// Sources are slash-separated paths relative to root, so re-ingesting the same
// tree replaces the same rows. Unsupported files are skipped silently.
func CollectJobs(root string, chunkSize, overlap int) ([]worker.Job, []FileError, error) {
	var jobs []worker.Job
	var failures []FileError

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !Supported(path) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		source := filepath.ToSlash(rel)

		text, err := ExtractText(path)
		if err != nil {
			failures = append(failures, FileError{Path: source, Err: err})
			return nil
		}

		jobs = append(jobs, worker.Job{Source: source, Chunks: SplitText(text, chunkSize, overlap)})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return jobs, failures, nil
}
