package checkpointer

// nEpisode implements checkpointing every N episodes
type nEpisode struct {
	interval int
	object   Serializable // Object to save

	// filename returns the filename of the file to save the object in
	// at the end of an episode.
	//
	// If each checkpoint should be named after its episode (e.g.
	// model_ep_0.bin, model_ep_10.bin, ...), use EpisodeFilename.
	//
	// If each serialized object should be saved in a separate file
	// with each file having an incremented number as a suffix (e.g.
	// file1.bin, file2.bin, ..., fileK.bin), use FilenameEnumerator.
	//
	// Otherwise, if each serialized object should be saved in a
	// separate file, but the filename does not matter, use FileTimer.
	// For example:
	//
	//	n := NewNEpisode(10, object, FileTimer("filename", ".bin"))
	filename func(episode int) string
}

// NewNEpisode returns a checkpointer that checkpoints at the end of
// every episode whose number is a multiple of n, starting with episode
// 0. If n < 1, the checkpointer never checkpoints.
func NewNEpisode(n int, object Serializable,
	filename func(episode int) string) Checkpointer {
	return &nEpisode{
		interval: n,
		object:   object,
		filename: filename,
	}
}

// Checkpoint saves the Checkpointer's tracked object if episode is a
// multiple of the checkpointing interval
func (n *nEpisode) Checkpoint(episode int) error {
	if n.interval < 1 || episode%n.interval != 0 {
		return nil
	}
	return Save(n.object, n.filename(episode))
}
