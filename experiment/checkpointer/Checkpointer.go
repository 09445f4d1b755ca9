// Package checkpointer implements saving serializable objects, such as
// networks, at intervals during an experiment
package checkpointer

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Serializable is an object that can be saved/serialized
type Serializable interface {
	gob.GobEncoder
	gob.GobDecoder
}

// Checkpointer checkpoints/saves serializable objects at the end of
// episodes. Episodes are numbered from 0.
type Checkpointer interface {
	Checkpoint(episode int) error
}

// Save gob encodes object into the file filename, creating or
// truncating the file
func Save(object Serializable, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create file: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(object); err != nil {
		return fmt.Errorf("save: could not encode object: %v", err)
	}
	return file.Close()
}

// Load decodes the contents of filename, previously written by Save,
// into object
func Load(object Serializable, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("load: could not open file: %v", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(object); err != nil {
		return fmt.Errorf("load: could not decode object: %v", err)
	}
	return nil
}
