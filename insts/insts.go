// Package insts decodes a MIPS-like 32-bit instruction set and executes it.
//
// It plays the role of the "FuncInstr" collaborator spec.md treats as an
// external dependency: the pipeline core only ever touches instructions
// through the surface declared in decoder.go and execute.go
// (source/destination register numbers, load/store/jump predicates,
// Execute, Misprediction).
package insts
