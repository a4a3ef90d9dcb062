package extract

import "fmt"

// InvalidFrameNameError reports a frame name with fewer than three segments.
type InvalidFrameNameError struct {
	Name string
}

func (e *InvalidFrameNameError) Error() string {
	return fmt.Sprintf("extract: invalid frame name %q: want group/subgroup/leaf", e.Name)
}

// SpriteWriteError wraps a rotate, crop, pad or write failure of one frame.
type SpriteWriteError struct {
	Name string
	Path string
	Err  error
}

func (e *SpriteWriteError) Error() string {
	return fmt.Sprintf("extract: %s -> %s: %v", e.Name, e.Path, e.Err)
}

func (e *SpriteWriteError) Unwrap() error { return e.Err }

// PathCollisionError reports a frame whose output file is already claimed by
// Owner, e.g. "a/b/x.png" and "a/b/x.jpg" both writing a/b/x.png.
type PathCollisionError struct {
	Owner string
}

func (e *PathCollisionError) Error() string {
	return fmt.Sprintf("output file already written by %s", e.Owner)
}
