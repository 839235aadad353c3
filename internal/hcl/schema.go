package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// localsRoot is decoded first so that every other block can be evaluated
// against the locals it declares.
type localsRoot struct {
	Locals []*localsBlock `hcl:"locals,block"`
	Remain hcl.Body       `hcl:",remain"`
}

type localsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// fileRoot holds the remaining top-level blocks of a build file.
type fileRoot struct {
	Engine  []*engineBlock `hcl:"engine,block"`
	Sources []*sourceBlock `hcl:"source,block"`
	Targets []*targetBlock `hcl:"target,block"`
}

type engineBlock struct {
	Self               string         `hcl:"self,optional"`
	Default            []string       `hcl:"default,optional"`
	AllowTimestampTies *bool          `hcl:"allow_timestamp_ties,optional"`
	TieBreak           *tieBreakBlock `hcl:"tie_break,block"`
}

type tieBreakBlock struct {
	Attempts *int    `hcl:"attempts,optional"`
	Interval *string `hcl:"interval,optional"`
}

type sourceBlock struct {
	Name string `hcl:"name,label"`
}

// targetBlock declares a derived file. At most one of the action blocks may
// be present.
type targetBlock struct {
	Name      string          `hcl:"name,label"`
	Sources   []string        `hcl:"sources,optional"`
	Separator *string         `hcl:"separator,optional"`
	Exec      *commandBlock   `hcl:"exec,block"`
	Touch     *touchBlock     `hcl:"touch,block"`
	Transform *transformBlock `hcl:"transform,block"`
	Capture   *commandBlock   `hcl:"capture,block"`
}

type commandBlock struct {
	Command string `hcl:"command"`
}

type touchBlock struct{}

type transformBlock struct {
	Replace  []*replaceBlock `hcl:"replace,block"`
	Marker   *string         `hcl:"marker,optional"`
	MinBytes *int            `hcl:"min_bytes,optional"`
	MaxBytes *int            `hcl:"max_bytes,optional"`
}

type replaceBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}
