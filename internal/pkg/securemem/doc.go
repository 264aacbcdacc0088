// Package securemem provides the secure heap used to back secret key material.
//
// Buffers are allocated through memguard: they are mlocked so they never reach swap, surrounded by guard
// pages, excluded from core dumps and overwritten before their pages are released. A Subsystem counts the
// Heap handles that are open against it; it is initialized when the first handle opens and torn down, which
// destroys every buffer still alive, when the last handle closes.
package securemem
