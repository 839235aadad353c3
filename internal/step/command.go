package step

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/gridmake/internal/dag"
)

// Placeholders understood by command templates.
const (
	PlaceholderDst  = "%dst"
	PlaceholderSrc0 = "%src0"
	PlaceholderSrc  = "%src"
	PlaceholderTop  = "%top"
)

// PlaceholderError reports a '%' token in a template that is not one of the
// known placeholders.
type PlaceholderError struct {
	Template string
	Offset   int
}

func (e *PlaceholderError) Error() string {
	return fmt.Sprintf("dependency exec has unknown pattern: %s", e.Template[e.Offset:])
}

// Command runs an expanded template through the process runner.
//
//	%dst   absolute path of the target
//	%src   absolute source paths joined with the node's separator
//	%src0  first source's raw identifier
//	%top   project root
type Command struct {
	template string
	expanded map[*dag.Node]string
}

// NewCommand validates template and returns the action.
func NewCommand(template string) (*Command, error) {
	if err := checkPlaceholders(template); err != nil {
		return nil, err
	}
	return &Command{template: template, expanded: make(map[*dag.Node]string)}, nil
}

// Template returns the unexpanded command line.
func (c *Command) Template() string { return c.template }

// Expand substitutes the placeholders for n. The result is cached per node.
func (c *Command) Expand(top string, n *dag.Node) string {
	if s, ok := c.expanded[n]; ok {
		return s
	}
	var src0 string
	if srcs := n.Sources(); len(srcs) > 0 {
		src0 = srcs[0].Target()
	}
	// %src0 must be listed before %src so the longer token wins.
	s := strings.NewReplacer(
		PlaceholderDst, n.Path(top),
		PlaceholderSrc0, src0,
		PlaceholderSrc, n.FlattenSourcePaths(top, n.Separator()),
		PlaceholderTop, top,
	).Replace(c.template)
	c.expanded[n] = s
	return s
}

// Execute echoes the expanded command and runs it unless this is a dry run.
func (c *Command) Execute(ctx context.Context, env dag.Env, n *dag.Node) ([]byte, error) {
	line := c.Expand(env.Top(), n)
	fmt.Fprintln(env.Console(), line)
	if env.DryRun() {
		return nil, nil
	}
	return env.Exec(ctx, line)
}

func checkPlaceholders(template string) error {
	for i := 0; i < len(template); i++ {
		if template[i] != dag.Wildcard {
			continue
		}
		rest := template[i+1:]
		if !strings.HasPrefix(rest, "dst") && !strings.HasPrefix(rest, "src") && !strings.HasPrefix(rest, "top") {
			return &PlaceholderError{Template: template, Offset: i}
		}
		// %src0 is the only indexed form.
		if strings.HasPrefix(rest, "src") {
			digits := rest[len("src"):]
			if isDigit(digits, 0) && (digits[0] != '0' || isDigit(digits, 1)) {
				return &PlaceholderError{Template: template, Offset: i}
			}
		}
	}
	return nil
}

func isDigit(s string, i int) bool {
	return i < len(s) && s[i] >= '0' && s[i] <= '9'
}
