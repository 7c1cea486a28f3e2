package encoder

import (
	"fmt"
	"os"
	"strings"

	"reelforge/internal/services"
)

// WriteConcatList writes a concat demuxer input list for the given files.
// The list is intentionally bare: the demuxer offers no per-entry trim or
// filter syntax, so anything beyond a file path has to be resolved before
// this point.
func WriteConcatList(path string, files []string) error {
	var b strings.Builder
	for _, file := range files {
		fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(file))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return services.Wrap(services.ErrProcessInvocation, "encoder", "write concat list",
			"check temp directory permissions", err)
	}
	return nil
}

// escapeConcatPath embeds single quotes using the demuxer's quote-break
// idiom, matching how ffmpeg's own documentation escapes list entries.
func escapeConcatPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}
