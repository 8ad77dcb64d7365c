package stt

// preferredFormats orders capture MIME types by how well the pipeline
// handles them: opus-in-webm first, raw wav last.
var preferredFormats = []string{
	"audio/webm;codecs=opus",
	"audio/webm",
	"audio/mp4",
	"audio/wav",
}

// NegotiateFormat picks the capture format the pipeline prefers from the
// list a producer supports. Returns the empty string when nothing in the
// list is usable.
func NegotiateFormat(supported []string) string {
	for _, want := range preferredFormats {
		for _, have := range supported {
			if have == want {
				return want
			}
		}
	}
	return ""
}
