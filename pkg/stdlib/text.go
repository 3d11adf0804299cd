package stdlib

import (
	"fmt"
	"strings"

	"github.com/lemonberrylabs/dollop/pkg/types"
)

// registerText registers text.* functions.
func (r *Registry) registerText() {
	r.Register("text.concat", textConcat)
	r.Register("text.len", textLen)
	r.Register("text.lower", textLower)
	r.Register("text.upper", textUpper)
}

func textConcat(args []types.Value) (types.Value, error) {
	if err := requireArgs("text.concat", args, 1, -1); err != nil {
		return types.Value{}, err
	}
	var b strings.Builder
	for _, v := range args {
		if v.Type() != types.TypeString {
			return types.Value{}, types.NewTypeError(
				fmt.Sprintf("text.concat requires string arguments, got %s", v.Type()))
		}
		b.WriteString(v.AsString())
	}
	return types.NewString(b.String()), nil
}

func textLen(args []types.Value) (types.Value, error) {
	if err := requireArgs("text.len", args, 1, 1); err != nil {
		return types.Value{}, err
	}
	if args[0].Type() != types.TypeString {
		return types.Value{}, types.NewTypeError(
			fmt.Sprintf("text.len requires a string argument, got %s", args[0].Type()))
	}
	return types.NewNumber(float64(len(args[0].AsString()))), nil
}

func textLower(args []types.Value) (types.Value, error) {
	if err := requireArgs("text.lower", args, 1, 1); err != nil {
		return types.Value{}, err
	}
	if args[0].Type() != types.TypeString {
		return types.Value{}, types.NewTypeError(
			fmt.Sprintf("text.lower requires a string argument, got %s", args[0].Type()))
	}
	return types.NewString(strings.ToLower(args[0].AsString())), nil
}

func textUpper(args []types.Value) (types.Value, error) {
	if err := requireArgs("text.upper", args, 1, 1); err != nil {
		return types.Value{}, err
	}
	if args[0].Type() != types.TypeString {
		return types.Value{}, types.NewTypeError(
			fmt.Sprintf("text.upper requires a string argument, got %s", args[0].Type()))
	}
	return types.NewString(strings.ToUpper(args[0].AsString())), nil
}
