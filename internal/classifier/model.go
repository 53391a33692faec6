// Package classifier wraps a pretrained gradient-boosted-tree model and
// exposes phishing probabilities with per-feature contribution weights.
package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/rbelous/phishscope/internal/model"
)

// Model is the opaque handle the adapter scores against. It is loaded once
// at process start and shared read-only across all requests.
type Model interface {
	Score(v model.FeatureVector) model.ClassifierScore
}

// Node is one node of a decision tree. Internal nodes carry a feature test
// (value <= Threshold goes left); leaves carry a logit value.
type Node struct {
	Feature   string  `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      *Node   `json:"left,omitempty"`
	Right     *Node   `json:"right,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

// leaf reports whether the node is terminal.
func (n *Node) leaf() bool {
	return n.Left == nil && n.Right == nil
}

// Tree is a single boosted tree.
type Tree struct {
	Root *Node `json:"root"`
}

// Ensemble is a gradient-boosted ensemble over the canonical feature vector.
// The summed tree logits plus BaseScore pass through a sigmoid to produce
// P(phishing).
type Ensemble struct {
	BaseScore float64 `json:"base_score"`
	Trees     []*Tree `json:"trees"`
}

// Load reads a model artifact from disk. A missing or invalid artifact is a
// startup failure: the returned error wraps ErrModelUnavailable and the
// process should not serve requests with a degraded classifier.
func Load(path string) (*Ensemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read artifact %s: %v", model.ErrModelUnavailable, path, err)
	}

	var ens Ensemble
	if err := json.Unmarshal(data, &ens); err != nil {
		return nil, fmt.Errorf("%w: parse artifact %s: %v", model.ErrModelUnavailable, path, err)
	}
	if err := ens.validate(); err != nil {
		return nil, fmt.Errorf("%w: artifact %s: %v", model.ErrModelUnavailable, path, err)
	}
	return &ens, nil
}

// validate checks the artifact references only known features.
func (e *Ensemble) validate() error {
	if len(e.Trees) == 0 {
		return fmt.Errorf("ensemble has no trees")
	}
	var walk func(n *Node) error
	walk = func(n *Node) error {
		if n == nil {
			return fmt.Errorf("nil node")
		}
		if n.leaf() {
			return nil
		}
		if model.FeatureIndex(n.Feature) < 0 {
			return fmt.Errorf("unknown feature %q", n.Feature)
		}
		if err := walk(n.Left); err != nil {
			return err
		}
		return walk(n.Right)
	}
	for i, t := range e.Trees {
		if t == nil || t.Root == nil {
			return fmt.Errorf("tree %d has no root", i)
		}
		if err := walk(t.Root); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// Score computes P(phishing) and per-feature contributions. Each tree's leaf
// logit is attributed evenly across the distinct features tested on its
// decision path, so contributions sum to the logit minus the base score.
func (e *Ensemble) Score(v model.FeatureVector) model.ClassifierScore {
	logit := e.BaseScore
	contrib := make(map[string]float64)

	for _, t := range e.Trees {
		node := t.Root
		path := make([]string, 0, 4)
		for !node.leaf() {
			path = append(path, node.Feature)
			if v.Get(node.Feature) <= node.Threshold {
				node = node.Left
			} else {
				node = node.Right
			}
		}
		logit += node.Value

		if node.Value == 0 || len(path) == 0 {
			continue
		}
		seen := make(map[string]bool, len(path))
		distinct := path[:0]
		for _, f := range path {
			if !seen[f] {
				seen[f] = true
				distinct = append(distinct, f)
			}
		}
		share := node.Value / float64(len(distinct))
		for _, f := range distinct {
			contrib[f] += share
		}
	}

	contributions := make([]model.Contribution, 0, len(contrib))
	for f, w := range contrib {
		contributions = append(contributions, model.Contribution{Feature: f, Weight: w})
	}
	sort.Slice(contributions, func(i, j int) bool {
		wi, wj := math.Abs(contributions[i].Weight), math.Abs(contributions[j].Weight)
		if wi != wj {
			return wi > wj
		}
		// Stable order for equal magnitudes: deterministic output matters
		// for prompt and cache-key stability downstream.
		return contributions[i].Feature < contributions[j].Feature
	})

	return model.ClassifierScore{
		Probability:   sigmoid(logit),
		Contributions: contributions,
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
