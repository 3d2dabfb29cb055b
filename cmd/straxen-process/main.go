// straxen-process is a standalone, flag-only version of "straxen process"
// for batch systems that dislike subcommands. The run is given as
// -run-id; everything else matches the subcommand's flags.
package main

import (
	"log"

	"github.com/jaffee/commandeer"

	"github.com/tunnell/straxen/process"

	// Register the named processing contexts.
	_ "github.com/tunnell/straxen/contexts"
)

func main() {
	if err := commandeer.Run(process.NewMain()); err != nil {
		log.Fatal(err)
	}
}
