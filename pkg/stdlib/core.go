package stdlib

import (
	"github.com/lemonberrylabs/dollop/pkg/types"
)

// registerCore registers the arithmetic operators. Each takes one or more
// numbers and folds left from the first: (- 10 3 2) is (10-3)-2, (- 5) is 5.
func (r *Registry) registerCore() {
	r.Register("+", coreAdd)
	r.Register("-", coreSub)
	r.Register("*", coreMul)
	r.Register("/", coreDiv)
}

func coreAdd(args []types.Value) (types.Value, error) {
	nums, err := operandNumbers("+", args)
	if err != nil {
		return types.Value{}, err
	}
	acc := nums[0]
	for _, n := range nums[1:] {
		acc += n
	}
	return types.NewNumber(acc), nil
}

func coreSub(args []types.Value) (types.Value, error) {
	nums, err := operandNumbers("-", args)
	if err != nil {
		return types.Value{}, err
	}
	acc := nums[0]
	for _, n := range nums[1:] {
		acc -= n
	}
	return types.NewNumber(acc), nil
}

func coreMul(args []types.Value) (types.Value, error) {
	nums, err := operandNumbers("*", args)
	if err != nil {
		return types.Value{}, err
	}
	acc := nums[0]
	for _, n := range nums[1:] {
		acc *= n
	}
	return types.NewNumber(acc), nil
}

func coreDiv(args []types.Value) (types.Value, error) {
	nums, err := operandNumbers("/", args)
	if err != nil {
		return types.Value{}, err
	}
	acc := nums[0]
	for _, n := range nums[1:] {
		if n == 0 {
			return types.Value{}, types.NewZeroDivisionError()
		}
		acc /= n
	}
	return types.NewNumber(acc), nil
}
