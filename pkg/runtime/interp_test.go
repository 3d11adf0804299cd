package runtime

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/lemonberrylabs/dollop/pkg/types"
)

func TestInterpreterPrint(t *testing.T) {
	var buf bytes.Buffer
	in := New(WithOutput(&buf))

	result, err := in.Run(`(print $ + 34 $ - 40 23)`)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if got := buf.String(); got != "51\n" {
		t.Errorf("got output %q, want \"51\\n\"", got)
	}
	if !result.Equal(types.NewNumber(0)) {
		t.Errorf("got %v, want print's 0", result)
	}
}

func TestInterpreterResult(t *testing.T) {
	in := New(WithOutput(bytes.NewBuffer(nil)))

	result, err := in.Run(`(+ 40 2)`)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if !result.Equal(types.NewNumber(42)) {
		t.Errorf("got %v, want 42", result)
	}
}

func TestBarePrintWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	in := New(WithOutput(&buf))

	result, err := in.Run(`print`)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if !result.IsFunction() {
		t.Errorf("got %v, want a function value", result)
	}
	if buf.Len() != 0 {
		t.Errorf("looking up print wrote %q", buf.String())
	}
}

func TestRegister(t *testing.T) {
	in := New()
	in.Register("double", func(args []types.Value) (types.Value, error) {
		return types.NewNumber(args[0].AsNumber() * 2), nil
	})

	result, err := in.Run(`(double 21)`)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if !result.Equal(types.NewNumber(42)) {
		t.Errorf("got %v, want 42", result)
	}
}

func TestRegisterOverridesStdlib(t *testing.T) {
	in := New()
	in.Register("+", func(args []types.Value) (types.Value, error) {
		return types.NewNumber(999), nil
	})

	result, err := in.Run(`(+ 1 2)`)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if !result.Equal(types.NewNumber(999)) {
		t.Errorf("got %v, want the override's 999", result)
	}
}

func TestBind(t *testing.T) {
	in := New()
	in.Bind("answer", types.NewNumber(42))

	result, err := in.Run(`answer`)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if !result.Equal(types.NewNumber(42)) {
		t.Errorf("got %v, want 42", result)
	}
}

func TestWithoutStdlib(t *testing.T) {
	in := New(WithoutStdlib())

	_, err := in.Run(`(+ 1 2)`)
	rerr, ok := err.(*types.RuntimeError)
	if !ok {
		t.Fatalf("expected RuntimeError, got %T: %v", err, err)
	}
	if rerr.Kind != types.KindUnboundName {
		t.Errorf("got kind %s, want %s", rerr.Kind, types.KindUnboundName)
	}

	result, err := in.Run(`"still works"`)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if !result.Equal(types.NewString("still works")) {
		t.Errorf("got %v, want the literal back", result)
	}
}

func TestEmptyScript(t *testing.T) {
	in := New()

	for _, source := range []string{"", "   \n\t", "// just a comment\n", "{* nothing here }*"} {
		_, err := in.Run(source)
		perr, ok := err.(*types.ParseError)
		if !ok {
			t.Fatalf("source %q: expected ParseError, got %T: %v", source, err, err)
		}
		if perr.Kind != types.KindEmptyExpression {
			t.Errorf("source %q: got kind %s, want %s", source, perr.Kind, types.KindEmptyExpression)
		}
	}
}

func TestInterpreterMaxSteps(t *testing.T) {
	in := New(WithMaxSteps(3))

	_, err := in.Run(`(+ 1 2 3 4 5)`)
	rerr, ok := err.(*types.RuntimeError)
	if !ok {
		t.Fatalf("expected RuntimeError, got %T: %v", err, err)
	}
	if rerr.Kind != types.KindResourceLimit {
		t.Errorf("got kind %s, want %s", rerr.Kind, types.KindResourceLimit)
	}
}

func TestArgumentOrder(t *testing.T) {
	var calls []string
	in := New()
	in.Register("note", func(args []types.Value) (types.Value, error) {
		calls = append(calls, args[0].String())
		return types.NewNumber(0), nil
	})

	if _, err := in.Run(`(+ (note 1) (note 2) (note 3))`); err != nil {
		t.Fatalf("run error: %v", err)
	}

	want := []string{"1", "2", "3"}
	if len(calls) != len(want) {
		t.Fatalf("got %d calls, want %d", len(calls), len(want))
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: got %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestNativeErrorPassesThrough(t *testing.T) {
	sentinel := errors.New("backend unavailable")
	in := New()
	in.Register("fetch", func(args []types.Value) (types.Value, error) {
		return types.Value{}, sentinel
	})

	_, err := in.Run(`(fetch "key")`)
	if !errors.Is(err, sentinel) {
		t.Errorf("got %v, want the native's own error unwrapped", err)
	}
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := New()
	_, err := in.RunContext(ctx, `(+ 1 2)`)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestLexErrorSurfaces(t *testing.T) {
	in := New()

	_, err := in.Run(`(print "oops)`)
	lerr, ok := err.(*types.LexError)
	if !ok {
		t.Fatalf("expected LexError, got %T: %v", err, err)
	}
	if lerr.Kind != types.KindUnterminatedString {
		t.Errorf("got kind %s, want %s", lerr.Kind, types.KindUnterminatedString)
	}
}

func TestParseErrorSurfaces(t *testing.T) {
	in := New()

	_, err := in.Run(`(print "oops"`)
	perr, ok := err.(*types.ParseError)
	if !ok {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
	if perr.Kind != types.KindUnterminatedExpression {
		t.Errorf("got kind %s, want %s", perr.Kind, types.KindUnterminatedExpression)
	}
}
