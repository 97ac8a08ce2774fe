// Package corrupt degrades training images with a configurable, randomised
// sequence of corruptions (blur, noise, quantisation, lossy resampling, JPEG
// artifacts, brightening) so that a downstream model learns to cope with
// real-world quality loss.
//
// A Corruptor is built once from a Config and is immutable afterwards. Each
// call samples NumRandomCorruptions identifiers from the random pool (with
// replacement, once per batch), appends the fixed corruptions, and applies
// the combined sequence to every image with a fresh strength draw per
// image per step. Strength draws for fixed corruptions are reported back as
// entropy.
//
// All randomness comes from the *rand.Rand passed by the caller, in a fixed
// order: kind selection, then per image and per step the strength draw
// followed by any auxiliary draws the step needs (blur angle, interpolation
// mode, noise samples). A seeded source therefore reproduces a call exactly.
package corrupt
