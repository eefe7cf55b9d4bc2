/*
Package nodeflow drives a dataflow of dynamically discovered processing nodes.

A run has three phases. Bootstrap locates the host runtime and the optional
extra-paths file by walking up from a start directory. LoadPlugins registers the
built-in node types, then every plugin manifest found under the custom node
roots, and seals the registry. Run executes a Workflow: its setup steps once and
its body steps once per iteration, wiring each step's keyword arguments from
literals, fresh random seeds, or positions in earlier step outputs.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/nodeflow"
		"github.com/aretw0/nodeflow/pkg/adapters/file"
		"github.com/aretw0/nodeflow/pkg/workflow"
	)

	func main() {
		drv, err := nodeflow.New(nodeflow.WithArtifactStore(file.NewArtifacts("output")))
		if err != nil {
			log.Fatal(err)
		}
		defer drv.Close()

		rec, err := drv.Run(context.Background(), workflow.Default())
		if err != nil {
			log.Fatal(err)
		}
		log.Println("saved", rec.Artifacts)
	}
*/
package nodeflow
