package main

import (
	"fmt"
	"os"

	"github.com/phillip1029/reagent/workflow"
)

// main entry point to the training and test workflows
func main() {
	rootCommand := workflow.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
