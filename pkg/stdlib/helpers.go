package stdlib

import (
	"fmt"

	"github.com/lemonberrylabs/dollop/pkg/types"
)

// requireArgs checks that the number of args is in range. A negative max
// means no upper bound.
func requireArgs(name string, args []types.Value, min, max int) error {
	if len(args) >= min && (max < 0 || len(args) <= max) {
		return nil
	}
	if min == max {
		return types.NewBadArityError(
			fmt.Sprintf("%s expects %d argument(s), got %d", name, min, len(args)))
	}
	if max < 0 {
		return types.NewBadArityError(
			fmt.Sprintf("%s expects at least %d argument(s), got %d", name, min, len(args)))
	}
	return types.NewBadArityError(
		fmt.Sprintf("%s expects %d-%d arguments, got %d", name, min, max, len(args)))
}

// numberArgs extracts float64s from args, requiring every value to be a
// number.
func numberArgs(name string, args []types.Value) ([]float64, error) {
	nums := make([]float64, len(args))
	for i, v := range args {
		if v.Type() != types.TypeNumber {
			return nil, types.NewTypeError(
				fmt.Sprintf("%s requires number arguments, got %s", name, v.Type()))
		}
		nums[i] = v.AsNumber()
	}
	return nums, nil
}

// operandNumbers validates an arithmetic-style call: at least one argument,
// all numbers.
func operandNumbers(name string, args []types.Value) ([]float64, error) {
	if err := requireArgs(name, args, 1, -1); err != nil {
		return nil, err
	}
	return numberArgs(name, args)
}
