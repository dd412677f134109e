package engage

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// FilterEnv is the environment a profile's target_filter expression sees.
//
//	distance < 9 && source != "passive"
type FilterEnv struct {
	Candidate    string  `expr:"candidate"`
	Distance     float64 `expr:"distance"`
	HoldDistance float64 `expr:"hold_distance"` // -1 when no hold point is set
	Holding      bool    `expr:"holding"`
	Source       string  `expr:"source"`
	TeamSize     int     `expr:"team_size"`
}

type targetFilter struct {
	src     string
	program *vm.Program
}

// compileTargetFilter returns nil for an empty expression.
func compileTargetFilter(src string) (*targetFilter, error) {
	if src == "" {
		return nil, nil
	}
	program, err := expr.Compile(src, expr.Env(FilterEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: target_filter %q: %v", ErrInvalidConfig, src, err)
	}
	return &targetFilter{src: src, program: program}, nil
}

func (f *targetFilter) allow(env FilterEnv) (bool, error) {
	if f == nil {
		return true, nil
	}
	out, err := vm.Run(f.program, env)
	if err != nil {
		return false, err
	}
	ok, _ := out.(bool)
	return ok, nil
}
