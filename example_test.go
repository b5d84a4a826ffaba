package g4scope_test

import (
	"context"
	"fmt"

	"github.com/ava12/g4scope/tree"
	"github.com/ava12/g4scope/workbench"
)

func Example() {
	grammar := `grammar Pair;
start : twoWords EOF ;
twoWords : WORD SPACE WORD ;
WORD : [a-zA-Z0-9_]+ ;
SPACE : ' ' | '\t' ;
`
	w := workbench.New(workbench.Config{})
	for _, input := range []string{"hello world", "hello, world"} {
		resp := w.Run(context.Background(), workbench.Request{Grammar: grammar, Input: input})
		res := resp.Result
		if !res.OK() {
			m, _ := res.Errors.Primary()
			fmt.Println(m.Source, m.Position())
			continue
		}

		for _, t := range res.Tokens {
			fmt.Printf("%s %q\n", t.Type, t.Text)
		}
		fmt.Println(tree.String(res.Tree))
	}

	// Output:
	// WORD "hello"
	// SPACE " "
	// WORD "world"
	// (start (twoWords hello   world) <EOF>)
	// CODE 1:5
}
