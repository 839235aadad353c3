package hcl

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/specialistvlad/gridmake/internal/build"
	"github.com/specialistvlad/gridmake/internal/ctxlog"
	"github.com/specialistvlad/gridmake/internal/dag"
	"github.com/specialistvlad/gridmake/internal/step"
)

// FileName is the build file that also marks the project root.
const FileName = "build.hcl"

// Project is a loaded build file.
type Project struct {
	// Registry holds every declared and implicitly referenced node.
	Registry *dag.Registry
	// Self is the node producing the build tool itself, if declared.
	Self *dag.Node
	// Defaults are built when no target is named on the command line.
	Defaults []*dag.Node
	// TieBreak is the timestamp tie policy requested by the engine block.
	TieBreak build.TieBreak
}

// Loader reads build files.
type Loader struct{}

// NewLoader creates a new build file loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and decodes the build file at path.
func (l *Loader) Load(ctx context.Context, path string) (*Project, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading build file: %w", err)
	}
	return l.Parse(ctx, path, src)
}

// Parse decodes src as a build file named filename.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) (*Project, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "file", filename)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var lr localsRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &lr); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	evalCtx, diags := evalLocals(lr.Locals)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to evaluate locals in %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(lr.Remain, evalCtx, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	reg, err := register(&root)
	if err != nil {
		return nil, fmt.Errorf("in %s: %w", filename, err)
	}
	p := &Project{Registry: reg, TieBreak: build.TieBreak{Attempts: build.DefaultTieBreak.Attempts, Interval: build.DefaultTieBreak.Interval}}
	if err := p.applyEngine(root.Engine); err != nil {
		return nil, fmt.Errorf("in %s: %w", filename, err)
	}

	logger.Debug("HCL loading complete.", "nodes", reg.Len(), "targets", len(root.Targets))
	return p, nil
}

// register lays the declarations out in an outline, rejects cycles, and
// registers every node after its sources.
func register(root *fileRoot) (*dag.Registry, error) {
	outline := dag.NewOutline()
	declared := make(map[string]*targetBlock, len(root.Targets))
	for _, s := range root.Sources {
		if outline.Has(s.Name) {
			return nil, &dag.DuplicateTargetError{Target: s.Name}
		}
		outline.AddNode(s.Name)
	}
	for _, t := range root.Targets {
		if outline.Has(t.Name) {
			return nil, &dag.DuplicateTargetError{Target: t.Name}
		}
		outline.AddNode(t.Name)
		declared[t.Name] = t
	}
	for _, t := range root.Targets {
		for _, src := range t.Sources {
			outline.AddNode(src)
			if err := outline.AddEdge(src, t.Name); err != nil {
				return nil, err
			}
		}
	}

	order, err := outline.Order()
	if err != nil {
		return nil, err
	}

	reg := dag.NewRegistry()
	for _, id := range order {
		t, ok := declared[id]
		if !ok {
			if _, err := reg.Source(id); err != nil {
				return nil, err
			}
			continue
		}
		if err := registerTarget(reg, t); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func registerTarget(reg *dag.Registry, t *targetBlock) error {
	sources := make([]*dag.Node, 0, len(t.Sources))
	for _, name := range t.Sources {
		n, err := reg.Lookup(name)
		if err != nil {
			return err
		}
		sources = append(sources, n)
	}

	var sep byte
	if t.Separator != nil {
		if len(*t.Separator) != 1 {
			return &dag.InvalidTargetError{Target: t.Name, Reason: fmt.Sprintf("separator %q must be a single byte", *t.Separator)}
		}
		sep = (*t.Separator)[0]
	}

	action, err := buildAction(t)
	if err != nil {
		return err
	}
	_, err = reg.Register(t.Name, sources, sep, action)
	return err
}

// buildAction constructs the step for the single action block of t, or nil
// if t declares none.
func buildAction(t *targetBlock) (dag.Action, error) {
	count := 0
	for _, present := range []bool{t.Exec != nil, t.Touch != nil, t.Transform != nil, t.Capture != nil} {
		if present {
			count++
		}
	}
	if count > 1 {
		return nil, &dag.InvalidTargetError{Target: t.Name, Reason: "at most one of exec, touch, transform and capture may be declared"}
	}

	switch {
	case t.Exec != nil:
		return step.NewCommand(t.Exec.Command)
	case t.Capture != nil:
		if !strings.HasSuffix(t.Name, ".log") {
			return nil, &dag.InvalidTargetError{Target: t.Name, Reason: "a capture target names its log file and must end in .log"}
		}
		return step.NewCapture(t.Capture.Command)
	case t.Touch != nil:
		return step.Touch{}, nil
	case t.Transform != nil:
		return buildTransform(t.Name, t.Transform)
	default:
		return nil, nil
	}
}

func buildTransform(target string, b *transformBlock) (*step.Transform, error) {
	reps := make([]step.Replacement, 0, len(b.Replace))
	for _, r := range b.Replace {
		if r.From == "" {
			return nil, &dag.InvalidTargetError{Target: target, Reason: "replace block with empty from"}
		}
		reps = append(reps, step.Replacement{From: r.From, To: r.To})
	}
	tr := step.NewTransform(reps...)
	if b.Marker != nil {
		tr.Marker = *b.Marker
	}
	if b.MinBytes != nil {
		tr.MinBytes = *b.MinBytes
	}
	if b.MaxBytes != nil {
		tr.MaxBytes = *b.MaxBytes
	}
	if tr.MaxBytes <= 0 || tr.MinBytes < 0 || tr.MinBytes >= tr.MaxBytes {
		return nil, &dag.InvalidTargetError{Target: target, Reason: fmt.Sprintf("transform limits min_bytes=%d max_bytes=%d are inconsistent", tr.MinBytes, tr.MaxBytes)}
	}
	return tr, nil
}

func (p *Project) applyEngine(blocks []*engineBlock) error {
	if len(blocks) == 0 {
		return nil
	}
	if len(blocks) > 1 {
		return fmt.Errorf("duplicate engine block: only one engine block is allowed")
	}
	b := blocks[0]

	if b.Self != "" {
		n, err := p.Registry.Lookup(b.Self)
		if err != nil {
			return fmt.Errorf("engine self: %w", err)
		}
		if n.IsSource() {
			return fmt.Errorf("engine self %q must be a target with sources", b.Self)
		}
		p.Self = n
	}
	for _, name := range b.Default {
		n, err := p.Registry.Lookup(name)
		if err != nil {
			return fmt.Errorf("engine default: %w", err)
		}
		p.Defaults = append(p.Defaults, n)
	}

	if b.AllowTimestampTies != nil {
		p.TieBreak.Enabled = !*b.AllowTimestampTies
	}
	if tb := b.TieBreak; tb != nil {
		if tb.Attempts != nil {
			if *tb.Attempts < 1 {
				return fmt.Errorf("tie_break attempts must be positive, got %d", *tb.Attempts)
			}
			p.TieBreak.Attempts = uint64(*tb.Attempts)
		}
		if tb.Interval != nil {
			d, err := time.ParseDuration(*tb.Interval)
			if err != nil {
				return fmt.Errorf("tie_break interval: %w", err)
			}
			if d <= 0 {
				return fmt.Errorf("tie_break interval must be positive, got %s", d)
			}
			p.TieBreak.Interval = d
		}
	}
	return nil
}
