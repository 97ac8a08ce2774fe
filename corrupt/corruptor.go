package corrupt

import (
	"fmt"
	"math/rand/v2"

	"github.com/RyanBlaney/degrade/logging"
	"github.com/RyanBlaney/degrade/raster"
)

// Step is one planned corruption application.
type Step struct {
	Corruption
	// Fixed marks steps that come from the fixed list and report entropy.
	Fixed bool
	// Suppressed steps still consume a strength draw but leave the image alone.
	Suppressed bool
}

// Plan is the ordered sequence of steps applied to every image of one batch.
type Plan struct {
	Steps      []Step
	Suppressed map[Kind]bool
}

// Tags lists the identifiers of the steps that will change the image.
func (p Plan) Tags() []string {
	tags := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		if !s.Suppressed {
			tags = append(tags, s.Tag)
		}
	}
	return tags
}

// Batch is the outcome of one corruption call.
type Batch struct {
	Images []*raster.Image
	// Entropy holds one strength per fixed corruption per image, image-major.
	Entropy []float64
	Plan    Plan
}

// Option customises a Corruptor.
type Option func(*Corruptor)

// WithLogger replaces the component logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Corruptor) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Corruptor applies a fixed configuration of corruptions to image batches.
// It holds no mutable state and may be shared between goroutines as long as
// each caller passes its own random source and images.
type Corruptor struct {
	config    Config
	fixed     []Corruption
	pool      []Corruption
	numRandom int
	logger    logging.Logger
}

// New validates cfg and resolves every identifier it names. Unknown
// identifiers fail here, never during Corrupt.
func New(cfg Config, opts ...Option) (*Corruptor, error) {
	if cfg.NumRandomCorruptions < 0 {
		return nil, fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidOption, OptNumRandomCorruptions, cfg.NumRandomCorruptions)
	}

	fixed, err := ParseCorruptions(cfg.FixedCorruptions)
	if err != nil {
		return nil, fmt.Errorf("fixed corruptions: %w", err)
	}

	var pool []Corruption
	if cfg.NumRandomCorruptions > 0 {
		if len(cfg.RandomCorruptions) == 0 {
			return nil, ErrEmptyRandomPool
		}
		pool, err = ParseCorruptions(cfg.RandomCorruptions)
		if err != nil {
			return nil, fmt.Errorf("random corruptions: %w", err)
		}
	}

	c := &Corruptor{
		config:    cloneConfig(cfg),
		fixed:     fixed,
		pool:      pool,
		numRandom: cfg.NumRandomCorruptions,
		logger: logging.WithFields(logging.Fields{
			"component": "corruptor",
		}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger.Debug("Corruptor configured", logging.Fields{
		"fixed":       cfg.FixedCorruptions,
		"num_random":  c.numRandom,
		"random_pool": len(pool),
		"blur_scale":  cfg.BlurScale,
	})
	return c, nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.FixedCorruptions = append([]string(nil), cfg.FixedCorruptions...)
	out.RandomCorruptions = append([]string(nil), cfg.RandomCorruptions...)
	return out
}

// Config returns a copy of the configuration the Corruptor was built with.
func (c *Corruptor) Config() Config {
	return cloneConfig(c.config)
}

// IsIdentity reports whether Corrupt passes images through untouched.
func (c *Corruptor) IsIdentity() bool {
	return c.numRandom == 0 && len(c.fixed) == 0
}

// Plan draws the random corruptions for one batch and returns the combined
// sequence: sampled corruptions first, then the fixed ones. JPEG steps are
// suppressed when any step adds noise.
func (c *Corruptor) Plan(rng *rand.Rand) Plan {
	plan := Plan{Suppressed: map[Kind]bool{}}
	if c.IsIdentity() {
		return plan
	}

	plan.Steps = make([]Step, 0, c.numRandom+len(c.fixed))
	for i := 0; i < c.numRandom; i++ {
		plan.Steps = append(plan.Steps, Step{Corruption: c.pool[rng.IntN(len(c.pool))]})
	}
	for _, f := range c.fixed {
		plan.Steps = append(plan.Steps, Step{Corruption: f, Fixed: true})
	}

	for _, s := range plan.Steps {
		if s.Kind == Noise {
			plan.Suppressed[JPEG] = true
			break
		}
	}
	for i := range plan.Steps {
		if plan.Suppressed[plan.Steps[i].Kind] {
			plan.Steps[i].Suppressed = true
		}
	}
	return plan
}

// Corrupt applies the configured corruptions to images in place and returns
// them. A nil rng draws from the process-wide source.
func (c *Corruptor) Corrupt(rng *rand.Rand, images []*raster.Image) ([]*raster.Image, error) {
	batch, err := c.CorruptBatch(rng, images)
	if err != nil {
		return nil, err
	}
	return batch.Images, nil
}

// CorruptWithEntropy is Corrupt that also returns the strength draws of the
// fixed corruptions: len(images)*len(FixedCorruptions) values, image-major.
func (c *Corruptor) CorruptWithEntropy(rng *rand.Rand, images []*raster.Image) ([]*raster.Image, []float64, error) {
	batch, err := c.CorruptBatch(rng, images)
	if err != nil {
		return nil, nil, err
	}
	return batch.Images, batch.Entropy, nil
}

// CorruptBatch runs one corruption call and reports the plan alongside the
// images and entropy. Any step error aborts the whole batch.
func (c *Corruptor) CorruptBatch(rng *rand.Rand, images []*raster.Image) (*Batch, error) {
	if c.IsIdentity() {
		return &Batch{Images: images, Entropy: []float64{}, Plan: Plan{Suppressed: map[Kind]bool{}}}, nil
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	plan := c.Plan(rng)
	c.logger.Debug("Corruption plan drawn", logging.Fields{
		"steps":  plan.Tags(),
		"images": len(images),
	})

	entropy := make([]float64, 0, len(images)*len(c.fixed))
	for i, img := range images {
		for _, step := range plan.Steps {
			r := BiasedRand(rng)
			if !step.Suppressed {
				if err := c.apply(rng, img, step.Corruption, r); err != nil {
					return nil, fmt.Errorf("image %d: apply %s: %w", i, step.Tag, err)
				}
			}
			if step.Fixed {
				entropy = append(entropy, r)
			}
		}
	}

	return &Batch{Images: images, Entropy: entropy, Plan: plan}, nil
}
