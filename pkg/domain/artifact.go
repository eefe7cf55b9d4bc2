package domain

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// ArtifactKey formats the storage key of the counter-th artifact written under prefix.
// The layout is "<prefix>_<counter:05>_.<ext>", matching the host runtime's output folder.
func ArtifactKey(prefix string, counter int, ext string) string {
	return fmt.Sprintf("%s_%05d_.%s", path.Clean(prefix), counter, strings.TrimPrefix(ext, "."))
}

// ArtifactCounter extracts the counter from a key produced by ArtifactKey for prefix.
// Keys of any extension are accepted so counters stay unique per prefix.
func ArtifactCounter(prefix, key string) (int, bool) {
	head := path.Clean(prefix) + "_"
	if !strings.HasPrefix(key, head) {
		return 0, false
	}
	rest := key[len(head):]
	end := strings.Index(rest, "_")
	if end <= 0 {
		return 0, false
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// NextArtifactCounter returns one past the highest counter among keys for prefix.
func NextArtifactCounter(prefix string, keys []string) int {
	max := 0
	for _, k := range keys {
		if n, ok := ArtifactCounter(prefix, k); ok && n > max {
			max = n
		}
	}
	return max + 1
}

type artifactRecorderKey struct{}

// WithArtifactRecorder returns a context whose RecordArtifact calls reach fn.
func WithArtifactRecorder(ctx context.Context, fn func(key string)) context.Context {
	return context.WithValue(ctx, artifactRecorderKey{}, fn)
}

// RecordArtifact reports a written artifact key to the recorder in ctx, if any.
func RecordArtifact(ctx context.Context, key string) {
	if fn, ok := ctx.Value(artifactRecorderKey{}).(func(string)); ok && fn != nil {
		fn(key)
	}
}
