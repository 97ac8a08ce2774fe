// Command degrade corrupts image datasets for restoration training and
// prepares audio clip corpora.
//
// Usage:
//
//	degrade corrupt --input ./clean --output ./degraded --seed 7
//	degrade plan --count 5
//	degrade inspect clean.png degraded.png
//	degrade split-audio --input ./music --output ./clips
//	degrade progress status
//	degrade config init
//
// Configuration is read from ~/.config/degrade/config.toml unless --config
// points elsewhere. Flags override the file.
package main
