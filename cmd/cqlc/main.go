package main

import (
	"context"
	"os"

	"github.com/brimdata/cql/cmd/cqlc/root"
	"github.com/brimdata/cql/cmd/cqlc/translate"
	"github.com/brimdata/cql/cmd/cqlc/types"
)

func main() {
	cqlc := root.New()
	cqlc.AddCommand(translate.New(cqlc), types.New(cqlc))
	if err := cqlc.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
