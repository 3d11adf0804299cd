package stdlib

import (
	"fmt"
	"io"

	"github.com/lemonberrylabs/dollop/pkg/types"
)

// RegisterPrint registers the print function bound to w. This is separate
// because the host owns the output stream: the CLI hands over os.Stdout,
// the server a per-run buffer.
func (r *Registry) RegisterPrint(w io.Writer) {
	r.Register("print", func(args []types.Value) (types.Value, error) {
		if err := requireArgs("print", args, 1, 1); err != nil {
			return types.Value{}, err
		}
		if _, err := fmt.Fprintln(w, args[0].String()); err != nil {
			return types.Value{}, fmt.Errorf("print: %w", err)
		}
		return types.NewNumber(0), nil
	})
}
