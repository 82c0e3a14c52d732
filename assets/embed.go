package assets

import (
	"embed"
	"io"
)

// FrequencyFile is the name of the bundled vocabulary (columns: word, frequency).
const FrequencyFile = "word_frequency.csv"

//go:embed word_frequency.csv
var FS embed.FS

// OpenFrequencyList opens the bundled word frequency CSV.
// The caller closes the returned reader.
func OpenFrequencyList() (io.ReadCloser, error) {
	return FS.Open(FrequencyFile)
}
