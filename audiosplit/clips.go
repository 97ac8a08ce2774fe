package audiosplit

import (
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// SplitClips cuts mono samples into consecutive clips of clipSeconds. A
// trailing clip shorter than that is dropped. The clips share memory with
// samples.
func SplitClips(samples []float64, sampleRate, clipSeconds int) [][]float64 {
	clipLen := sampleRate * clipSeconds
	if clipLen <= 0 {
		return nil
	}

	clips := make([][]float64, 0, len(samples)/clipLen)
	for start := 0; start+clipLen <= len(samples); start += clipLen {
		clips = append(clips, samples[start:start+clipLen:start+clipLen])
	}
	return clips
}

// IsSilent reports whether any full windowSeconds window of clip has a sample
// variance below threshold. Such clips are mostly silence or a held tone and
// make poor training material.
func IsSilent(clip []float64, sampleRate, windowSeconds int, threshold float64) bool {
	window := sampleRate * windowSeconds
	if window <= 1 {
		return false
	}

	for start := 0; start+window <= len(clip); start += window {
		if stat.Variance(clip[start:start+window], nil) < threshold {
			return true
		}
	}
	return false
}

// ClipDir is the directory that receives the clips of file: its path
// relative to inputRoot with the extension and any dots removed, placed under
// outputRoot.
func ClipDir(inputRoot, outputRoot, file string) string {
	rel, err := filepath.Rel(inputRoot, file)
	if err != nil {
		rel = filepath.Base(file)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	rel = strings.TrimSpace(strings.ReplaceAll(rel, ".", ""))
	return filepath.Join(outputRoot, rel)
}
