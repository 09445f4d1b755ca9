package checkpointer

import (
	"fmt"
	"time"
)

// EpisodeFilename returns a function which names files after the
// episode that is checkpointed, e.g. EpisodeFilename("model_ep_",
// ".bin") names the checkpoint of episode 10 model_ep_10.bin.
func EpisodeFilename(filename, extension string) func(int) string {
	return func(episode int) string {
		return fmt.Sprintf("%v%v%v", filename, episode, extension)
	}
}

// fileEnumerator enumerates filenames
type fileEnumerator struct {
	i         int
	name      string
	extension string
}

// filename returns the name of the next consecutive enumerated file
func (f *fileEnumerator) filename(int) string {
	f.i++
	return fmt.Sprintf("%v%v%v", f.name, f.i, f.extension)
}

// FilenameEnumerator returns a function which will return filenames
// with a counter integer suffix. Each time the returned function is
// called, the filename counter suffix will be one higher than on the
// previous call, starting at start+1. The filename parameter is the
// full filename with its path, while the extension parameter
// determines the file extension.
func FilenameEnumerator(start int, filename, extension string) func(int) string {
	enum := fileEnumerator{i: start, name: filename, extension: extension}

	return enum.filename
}

// FileTimer returns a function which will append to a filename the
// number of nanoseconds since January 1, 1970.
func FileTimer(filename, extension string) func(int) string {
	return func(int) string {
		return fmt.Sprintf("%v-%v%v", filename, time.Now().UnixNano(),
			extension)
	}
}
