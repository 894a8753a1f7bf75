package p

// Work around module issues. The analyzer just looks for `workflow.Context` currently
import (
	workflow "context"
	"fmt"
	"math/rand"
	"time"
)

func wf(ctx workflow.Context) error {
	return nil
}

func wfWithResult(ctx workflow.Context) (string, error) {
	return "", nil
}

func wfWithTooManyResults(ctx workflow.Context) (int, string, error) { // want "workflow \"wfWithTooManyResults\" returns more than two values"
	return 42, "", nil
}

func wfWrongOrder(ctx workflow.Context) (error, string) { // want "workflow \"wfWrongOrder\" doesn't return `error` as last return value"
	return nil, ""
}

func wfWithoutReturn(ctx workflow.Context) { // want "workflow \"wfWithoutReturn\" doesn't return anything. needs to return at least `error`"
}

func wfIteratingOverMap(ctx workflow.Context) error {
	x := make(map[string]string)

	fmt.Println("log")

	for _, v := range x { // want "iterating over a map is not deterministic and not allowed in workflows"
		if v == "a" {
			return nil
		}
	}

	return nil
}

func wfUsingGoRoutine(ctx workflow.Context) error {
	go func() { // want "use workflow.Go instead of `go` in workflows"
		fmt.Println("hello")
	}()

	return nil
}

func wfUsingWallClock(ctx workflow.Context) error {
	t := time.Now() // want "time.Now is not deterministic, use workflow.Now instead"
	fmt.Println(t)

	time.Sleep(time.Second) // want "time.Sleep is not deterministic, use workflow.Sleep instead"

	return nil
}

func wfUsingRand(ctx workflow.Context) error {
	n := rand.Intn(10) // want "rand.Intn is not deterministic, use a side effect to capture random values"
	fmt.Println(n)

	return nil
}

func wfNestedMapIteration(ctx workflow.Context) error {
	x := make(map[string]string)

	if len(x) > 0 {
		for k := range x { // want "iterating over a map is not deterministic and not allowed in workflows"
			fmt.Println(k)
		}
	}

	return nil
}
