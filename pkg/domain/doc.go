/*
Package domain contains the core data model of the nodeflow driver.

It defines the values that flow between node invocations and the contracts
external node implementations must honour. The package is kept free of I/O
and persistence.

# Key Entities

  - NodeType / Node: a named capability and a live handle invoked with keyword arguments.
  - Bundle: the output of an operation, either a sequence or a record with a "result" entry.
  - Workflow / Step / Input: a static, acyclic chain of invocations and how each argument is sourced.
  - RunRecord: the audit trail of one execution.
*/
package domain
