/*
Package workflow executes a static, acyclic chain of node invocations.

A Workflow names its node instances, a setup section that runs once, and a
body that runs once per iteration. Every keyword argument is either a literal,
a position in an earlier step's output bundle, or a freshly drawn seed.
Outputs are addressed with domain.Bundle.At, so a step never needs to know
whether the producer returned a sequence or a record.
*/
package workflow
