/*
Package dsl provides a fluent builder for constructing nodeflow workflows in Go.

It is an alternative to YAML or JSON workflow files, useful for generated
workflows, tests, and IDE type-checking.

Example usage:

	b := dsl.New("flux")
	b.Instance("ckpt", "CheckpointLoaderSimple").
		Instance("sampler", "KSampler")

	b.Setup("loaded").
		Call("ckpt", "load_checkpoint").
		With("ckpt_name", "flux1-dev-fp8.safetensors")

	b.Step("sampled").
		Call("sampler", "sample").
		Seed("seed").
		From("model", "loaded", 0)

	wf, err := b.Build()
*/
package dsl
