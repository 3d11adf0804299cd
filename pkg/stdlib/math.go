package stdlib

import (
	"math"

	"github.com/lemonberrylabs/dollop/pkg/types"
)

// registerMath registers math.* functions.
func (r *Registry) registerMath() {
	r.Register("math.abs", mathAbs)
	r.Register("math.floor", mathFloor)
	r.Register("math.max", mathMax)
	r.Register("math.min", mathMin)
}

func mathAbs(args []types.Value) (types.Value, error) {
	if err := requireArgs("math.abs", args, 1, 1); err != nil {
		return types.Value{}, err
	}
	nums, err := numberArgs("math.abs", args)
	if err != nil {
		return types.Value{}, err
	}
	return types.NewNumber(math.Abs(nums[0])), nil
}

func mathFloor(args []types.Value) (types.Value, error) {
	if err := requireArgs("math.floor", args, 1, 1); err != nil {
		return types.Value{}, err
	}
	nums, err := numberArgs("math.floor", args)
	if err != nil {
		return types.Value{}, err
	}
	return types.NewNumber(math.Floor(nums[0])), nil
}

func mathMax(args []types.Value) (types.Value, error) {
	nums, err := operandNumbers("math.max", args)
	if err != nil {
		return types.Value{}, err
	}
	best := nums[0]
	for _, n := range nums[1:] {
		if n > best {
			best = n
		}
	}
	return types.NewNumber(best), nil
}

func mathMin(args []types.Value) (types.Value, error) {
	nums, err := operandNumbers("math.min", args)
	if err != nil {
		return types.Value{}, err
	}
	best := nums[0]
	for _, n := range nums[1:] {
		if n < best {
			best = n
		}
	}
	return types.NewNumber(best), nil
}
