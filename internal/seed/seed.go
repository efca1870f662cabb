// Package seed loads proposal fixtures from a YAML or JSON file and replays
// them through the lifecycle engine.
package seed

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/rulesmith/internal/common"
	"github.com/Veraticus/rulesmith/internal/engine"
)

// File is the mapping form of a seed file. A bare list of proposals is
// accepted as well.
type File struct {
	Proposals []engine.ProposalInput `yaml:"proposals"`
}

// Load reads proposal inputs from path. JSON files parse as YAML.
func Load(path string) ([]engine.ProposalInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	inputs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inputs, nil
}

// Parse decodes seed content. The document may be a list of proposals or a
// mapping with a "proposals" key.
func Parse(data []byte) ([]engine.ProposalInput, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid seed document: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var inputs []engine.ProposalInput
		if err := root.Decode(&inputs); err != nil {
			return nil, fmt.Errorf("invalid seed proposals: %w", err)
		}
		return inputs, nil
	case yaml.MappingNode:
		var file File
		if err := root.Decode(&file); err != nil {
			return nil, fmt.Errorf("invalid seed proposals: %w", err)
		}
		return file.Proposals, nil
	default:
		return nil, fmt.Errorf("seed document must be a list or a mapping, got line %d", root.Line)
	}
}

// Options controls how seed proposals are applied.
type Options struct {
	// Approve approves each proposal right after submitting it.
	Approve bool
	// Progress, when set, is called after every entry.
	Progress func(done, total int)
}

// Failure records an entry that could not be applied.
type Failure struct {
	Index int
	Err   error
}

// Result summarizes an Apply run.
type Result struct {
	Proposed int
	Approved int
	Failures []Failure
}

// Apply submits every input through eng, in file order. A failing entry is
// recorded and the run continues with the next one.
func Apply(ctx context.Context, eng *engine.Engine, inputs []engine.ProposalInput, opts Options) (*Result, error) {
	result := &Result{}
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := applyOne(ctx, eng, in, opts, result); err != nil {
			common.LogDebug(ctx, "seed entry failed", common.Fields{"index": i, "error": err.Error()})
			result.Failures = append(result.Failures, Failure{Index: i, Err: err})
		}
		if opts.Progress != nil {
			opts.Progress(i+1, len(inputs))
		}
	}

	common.LogInfo(ctx, "seed applied", common.Fields{
		"proposed": result.Proposed,
		"approved": result.Approved,
		"failed":   len(result.Failures),
	})
	return result, nil
}

func applyOne(ctx context.Context, eng *engine.Engine, in engine.ProposalInput, opts Options, result *Result) error {
	proposal, err := eng.Propose(ctx, in)
	if err != nil {
		return fmt.Errorf("propose: %w", err)
	}
	result.Proposed++

	if !opts.Approve {
		return nil
	}
	if _, err := eng.Approve(ctx, proposal.ID); err != nil {
		return fmt.Errorf("approve %s: %w", proposal.ID, err)
	}
	result.Approved++
	return nil
}
